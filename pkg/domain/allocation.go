package domain

import (
	"fmt"
	"strings"
	"time"
)

// An arm key is either a bare platform ("tiktok") or a platform plus an
// hour-of-day slot ("tiktok@18"). Slot arms feed the schedule side of a
// recommendation; platform arms feed the budget split.

func PlatformArm(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

func SlotArm(platform string, hour int) string {
	return fmt.Sprintf("%s@%02d", PlatformArm(platform), hour)
}

// SplitArmKey returns the platform part and, when present, the slot hour.
func SplitArmKey(key string) (platform string, hour int, hasSlot bool) {
	i := strings.IndexByte(key, '@')
	if i < 0 {
		return key, 0, false
	}
	if _, err := fmt.Sscanf(key[i+1:], "%d", &hour); err != nil {
		return key[:i], 0, false
	}
	return key[:i], hour, true
}

// Observation is a single (arm, profit) measurement reported after a pipeline
// stage completes.
type Observation struct {
	ArmKey     string    `json:"armKey"`
	Reward     float64   `json:"reward"`
	ObservedAt time.Time `json:"observedAt"`
}

// TimeWindow is one preferred posting window in the recommended schedule.
type TimeWindow struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// AllocationRecommendation is the allocator's advice for the next round.
// PlatformSplit fractions sum to 1.0 within floating-point tolerance whenever
// the candidate set is non-empty and the budget positive.
type AllocationRecommendation struct {
	Schedule                   []TimeWindow       `json:"schedule"`
	PlatformSplit              map[string]float64 `json:"platformSplit"`
	BudgetByPlatform           map[string]float64 `json:"budgetByPlatform"`
	ExpectedImprovementPercent float64            `json:"expectedImprovementPercent"`
}
