package bandit

import (
	"math"
	"sort"
	"time"
)

type observation struct {
	at     time.Time
	reward float64
}

// arm holds one allocatable unit's statistics. The reward window is bounded
// both by age and by count; eviction keeps the allocator tracking drift
// instead of averaging over stale history.
type arm struct {
	key    string
	pulls  int // lifetime observations, survives eviction
	window []observation
}

func (a *arm) observe(at time.Time, reward float64) {
	a.pulls++
	a.window = append(a.window, observation{at: at, reward: reward})
	// Stages report in completion order, but observations replayed from the
	// durable log may arrive with older timestamps.
	if n := len(a.window); n > 1 && a.window[n-1].at.Before(a.window[n-2].at) {
		sort.Slice(a.window, func(i, j int) bool { return a.window[i].at.Before(a.window[j].at) })
	}
}

func (a *arm) evict(now time.Time, horizon time.Duration, maxSize int) {
	cutoff := now.Add(-horizon)
	i := 0
	for i < len(a.window) && a.window[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		a.window = a.window[i:]
	}
	if len(a.window) > maxSize {
		a.window = a.window[len(a.window)-maxSize:]
	}
}

// weightedMean is the exponential-decay recency-weighted mean over the
// current window. Newer observations are provably more influential: a halving
// of weight per halfLife of age.
func (a *arm) weightedMean(now time.Time, halfLife time.Duration) float64 {
	if len(a.window) == 0 {
		return 0
	}
	var sumW, sumWR float64
	for _, o := range a.window {
		age := now.Sub(o.at)
		if age < 0 {
			age = 0
		}
		w := math.Pow(0.5, age.Seconds()/halfLife.Seconds())
		sumW += w
		sumWR += w * o.reward
	}
	if sumW == 0 {
		return 0
	}
	return sumWR / sumW
}

// explorationBonus grows as an arm's window empties relative to the total
// observation count, so sparsely-observed arms keep getting selected.
func explorationBonus(coeff float64, totalPulls, armPulls int) float64 {
	return coeff * math.Sqrt(math.Log(float64(totalPulls)+1)/float64(armPulls+1))
}
