package domain

// VideoOptions controls the rendering collaborator. HeavyProcessing requests
// full video synthesis rather than the caption-only fallback and widens the
// completion-time estimate accordingly.
type VideoOptions struct {
	Style           string `json:"style,omitempty" yaml:"style"`
	DurationSeconds int    `json:"durationSeconds,omitempty" yaml:"durationSeconds"`
	AspectRatio     string `json:"aspectRatio,omitempty" yaml:"aspectRatio"`
	HeavyProcessing bool   `json:"heavyProcessing,omitempty" yaml:"heavyProcessing"`
}

// AutomationConfig is the one-click configuration submitted by a caller. It is
// snapshotted into the task at submission time and never mutated afterwards.
type AutomationConfig struct {
	ContentTheme      string       `json:"contentTheme" binding:"required" yaml:"contentTheme"`
	TargetAudience    string       `json:"targetAudience" binding:"required" yaml:"targetAudience"`
	Platforms         []string     `json:"platforms" binding:"required,min=1" yaml:"platforms"`
	ProductCategories []string     `json:"productCategories,omitempty" yaml:"productCategories"`
	BudgetPerPlatform float64      `json:"budgetPerPlatform" yaml:"budgetPerPlatform"`
	TargetROAS        float64      `json:"targetRoas,omitempty" yaml:"targetRoas"`
	PostingSchedule   []string     `json:"postingSchedule,omitempty" yaml:"postingSchedule"` // "HH:MM" slots
	Video             VideoOptions `json:"video" yaml:"video"`
}

func (c AutomationConfig) Clone() AutomationConfig {
	cp := c
	cp.Platforms = append([]string(nil), c.Platforms...)
	if c.ProductCategories != nil {
		cp.ProductCategories = append([]string(nil), c.ProductCategories...)
	}
	if c.PostingSchedule != nil {
		cp.PostingSchedule = append([]string(nil), c.PostingSchedule...)
	}
	return cp
}

// HasAdBudget reports whether the config funds ad campaigns at all.
func (c AutomationConfig) HasAdBudget() bool { return c.BudgetPerPlatform > 0 }
