package bandit

import (
	"sort"
	"sync"
	"time"

	"github.com/promoforge/promoq/pkg/domain"
)

// Options are the allocator's tuning knobs. Zero values are replaced with the
// same defaults pkg/config applies.
type Options struct {
	Window              time.Duration
	MaxWindow           int
	HalfLife            time.Duration
	ExplorationCoeff    float64
	MinShareFloor       float64
	ImprovementCapPct   float64
	ReallocateThreshold float64
	// ScheduleWindows and ScheduleWindowLength shape the recommended posting
	// schedule built from the top-scoring slot arms.
	ScheduleWindows      int
	ScheduleWindowLength int
	Now                  func() time.Time
}

func (o *Options) sanitize() {
	if o.Window <= 0 {
		o.Window = 6 * time.Hour
	}
	if o.MaxWindow <= 0 {
		o.MaxWindow = 50
	}
	if o.HalfLife <= 0 {
		o.HalfLife = time.Hour
	}
	if o.ExplorationCoeff <= 0 {
		o.ExplorationCoeff = 1.5
	}
	if o.MinShareFloor <= 0 {
		o.MinShareFloor = 0.05
	}
	if o.ImprovementCapPct <= 0 {
		o.ImprovementCapPct = 50
	}
	if o.ReallocateThreshold <= 0 {
		o.ReallocateThreshold = 0.2
	}
	if o.ScheduleWindows <= 0 {
		o.ScheduleWindows = 3
	}
	if o.ScheduleWindowLength <= 0 {
		o.ScheduleWindowLength = 2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// ArmStats is a read-only snapshot of one arm's aggregate.
type ArmStats struct {
	Key        string  `json:"key"`
	Pulls      int     `json:"pulls"`
	WindowSize int     `json:"windowSize"`
	Mean       float64 `json:"mean"`
	Score      float64 `json:"score"`
}

// Allocator maintains per-arm reward statistics and recommends how the next
// round of budget and scheduling should be split across platforms. It has no
// I/O; concurrent use is safe, all state sits behind one mutex so an arm's
// aggregate can never be read mid-update.
type Allocator struct {
	mu         sync.Mutex
	opts       Options
	arms       map[string]*arm
	totalPulls int

	// lastBlended remembers the expected reward of the previous
	// recommendation so the next one can report a relative uplift.
	lastBlended float64
	hasPrevious bool
}

func NewAllocator(opts Options) *Allocator {
	opts.sanitize()
	return &Allocator{opts: opts, arms: make(map[string]*arm)}
}

// RecordObservation appends one (arm, reward) measurement. Unknown arm keys
// create the arm lazily; the call never fails.
func (a *Allocator) RecordObservation(armKey string, reward float64, at time.Time) {
	if armKey == "" {
		return
	}
	if at.IsZero() {
		at = a.opts.Now()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.arms[armKey]
	if !ok {
		m = &arm{key: armKey}
		a.arms[armKey] = m
	}
	m.observe(at, reward)
	m.evict(a.opts.Now(), a.opts.Window, a.opts.MaxWindow)
	a.totalPulls++
}

// SelectArm picks one candidate by upper-confidence score, ties broken by the
// lowest key so behavior stays reproducible. Empty candidate sets return "".
func (a *Allocator) SelectArm(candidateKeys []string) string {
	if len(candidateKeys) == 0 {
		return ""
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.opts.Now()
	sorted := append([]string(nil), candidateKeys...)
	sort.Strings(sorted)

	best := ""
	bestScore := 0.0
	for _, key := range sorted {
		score := a.scoreLocked(key, now)
		// Strict > over a sorted walk keeps the lexicographically smallest
		// key on exact ties.
		if best == "" || score > bestScore {
			best = key
			bestScore = score
		}
	}
	return best
}

func (a *Allocator) scoreLocked(key string, now time.Time) float64 {
	m := a.arms[key]
	if m == nil {
		return explorationBonus(a.opts.ExplorationCoeff, a.totalPulls, 0)
	}
	m.evict(now, a.opts.Window, a.opts.MaxWindow)
	return m.weightedMean(now, a.opts.HalfLife) +
		explorationBonus(a.opts.ExplorationCoeff, a.totalPulls, len(m.window))
}

func (a *Allocator) meanLocked(key string, now time.Time) float64 {
	m := a.arms[key]
	if m == nil {
		return 0
	}
	m.evict(now, a.opts.Window, a.opts.MaxWindow)
	return m.weightedMean(now, a.opts.HalfLife)
}

// RecommendAllocation computes the budget split and posting schedule for the
// next round. Every candidate receives at least the configured floor share;
// fractions sum to 1.0 unless the candidate set is empty or the budget is
// non-positive.
func (a *Allocator) RecommendAllocation(candidateKeys []string, totalBudget float64) domain.AllocationRecommendation {
	rec := domain.AllocationRecommendation{
		PlatformSplit:    map[string]float64{},
		BudgetByPlatform: map[string]float64{},
	}
	if len(candidateKeys) == 0 {
		return rec
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.opts.Now()

	platforms := make([]string, 0, len(candidateKeys))
	seen := map[string]bool{}
	for _, key := range candidateKeys {
		p, _, hasSlot := domain.SplitArmKey(key)
		if hasSlot {
			continue
		}
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	if len(platforms) == 0 {
		// All candidates were slot arms; recommend a schedule only.
		rec.Schedule = a.scheduleLocked(candidateKeys, now)
		return rec
	}
	sort.Strings(platforms)

	floor := a.opts.MinShareFloor
	if floor*float64(len(platforms)) >= 1 {
		floor = 1 / float64(len(platforms))
	}

	means := make(map[string]float64, len(platforms))
	var sumPositive float64
	for _, p := range platforms {
		m := a.meanLocked(p, now)
		if m < 0 {
			m = 0
		}
		means[p] = m
		sumPositive += m
	}

	// Proportional-above-floor: floor share to everyone, remainder split by
	// observed mean. Shares sum to 1 by construction.
	remainder := 1 - floor*float64(len(platforms))
	for _, p := range platforms {
		share := floor
		if sumPositive > 0 {
			share += remainder * means[p] / sumPositive
		} else {
			share += remainder / float64(len(platforms))
		}
		rec.PlatformSplit[p] = share
	}
	if totalBudget > 0 {
		for p, share := range rec.PlatformSplit {
			rec.BudgetByPlatform[p] = share * totalBudget
		}
	} else {
		for p := range rec.PlatformSplit {
			rec.PlatformSplit[p] = 0
			rec.BudgetByPlatform[p] = 0
		}
		return rec
	}

	rec.Schedule = a.scheduleLocked(candidateKeys, now)

	var blended float64
	for p, share := range rec.PlatformSplit {
		blended += share * means[p]
	}
	if a.hasPrevious && a.lastBlended > 0 {
		pct := (blended - a.lastBlended) / a.lastBlended * 100
		if pct < 0 {
			pct = 0
		}
		if pct > a.opts.ImprovementCapPct {
			pct = a.opts.ImprovementCapPct
		}
		rec.ExpectedImprovementPercent = pct
	}
	a.lastBlended = blended
	a.hasPrevious = true

	return rec
}

// scheduleLocked builds preferred posting windows out of the best-scoring
// slot arms known for the candidate platforms.
func (a *Allocator) scheduleLocked(candidateKeys []string, now time.Time) []domain.TimeWindow {
	platforms := map[string]bool{}
	for _, key := range candidateKeys {
		p, _, _ := domain.SplitArmKey(key)
		platforms[p] = true
	}

	type slotScore struct {
		hour  int
		score float64
	}
	best := map[int]float64{}
	for key, m := range a.arms {
		p, hour, hasSlot := domain.SplitArmKey(key)
		if !hasSlot || !platforms[p] {
			continue
		}
		m.evict(now, a.opts.Window, a.opts.MaxWindow)
		s := m.weightedMean(now, a.opts.HalfLife) +
			explorationBonus(a.opts.ExplorationCoeff, a.totalPulls, len(m.window))
		if cur, ok := best[hour]; !ok || s > cur {
			best[hour] = s
		}
	}
	if len(best) == 0 {
		return nil
	}

	slots := make([]slotScore, 0, len(best))
	for h, s := range best {
		slots = append(slots, slotScore{hour: h, score: s})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].score != slots[j].score {
			return slots[i].score > slots[j].score
		}
		return slots[i].hour < slots[j].hour
	})
	if len(slots) > a.opts.ScheduleWindows {
		slots = slots[:a.opts.ScheduleWindows]
	}

	windows := make([]domain.TimeWindow, 0, len(slots))
	for _, s := range slots {
		windows = append(windows, domain.TimeWindow{
			StartHour: s.hour,
			EndHour:   (s.hour + a.opts.ScheduleWindowLength) % 24,
		})
	}
	return windows
}

// ShouldReallocate reports whether the best arm's recency-weighted mean has
// pulled far enough ahead of the arm holding the largest budget share that a
// fresh recommendation is worth requesting before the regular cadence.
func (a *Allocator) ShouldReallocate(currentSplit map[string]float64) bool {
	if len(currentSplit) == 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.opts.Now()

	largest := ""
	largestShare := -1.0
	for p, share := range currentSplit {
		if share > largestShare || (share == largestShare && p < largest) {
			largest = p
			largestShare = share
		}
	}

	top := ""
	topMean := 0.0
	for p := range currentSplit {
		m := a.meanLocked(p, now)
		if top == "" || m > topMean || (m == topMean && p < top) {
			top = p
			topMean = m
		}
	}
	if top == largest || topMean <= 0 {
		return false
	}

	current := a.meanLocked(largest, now)
	return (topMean-current)/topMean > a.opts.ReallocateThreshold
}

// Stats snapshots every arm, sorted by key, for the admin surface.
func (a *Allocator) Stats() []ArmStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.opts.Now()

	keys := make([]string, 0, len(a.arms))
	for k := range a.arms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ArmStats, 0, len(keys))
	for _, k := range keys {
		m := a.arms[k]
		m.evict(now, a.opts.Window, a.opts.MaxWindow)
		out = append(out, ArmStats{
			Key:        k,
			Pulls:      m.pulls,
			WindowSize: len(m.window),
			Mean:       m.weightedMean(now, a.opts.HalfLife),
			Score:      m.weightedMean(now, a.opts.HalfLife) + explorationBonus(a.opts.ExplorationCoeff, a.totalPulls, len(m.window)),
		})
	}
	return out
}
