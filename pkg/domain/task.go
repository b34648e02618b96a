package domain

import (
	"encoding"
	"time"
)

type TaskType string

const (
	TypeContentGeneration     TaskType = "content_generation"
	TypeSocialPosting         TaskType = "social_posting"
	TypeAdCampaign            TaskType = "ad_campaign"
	TypeAffiliateOptimization TaskType = "affiliate_optimization"
)

// Valid reports whether t is one of the known automation task types.
func (t TaskType) Valid() bool {
	switch t {
	case TypeContentGeneration, TypeSocialPosting, TypeAdCampaign, TypeAffiliateOptimization:
		return true
	}
	return false
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// ErrCancelled is the task-level error recorded when a running task is
// cancelled through the public contract.
const ErrCancelled = "Cancelled by user"

// Terminal reports whether a status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskResults accumulates partial pipeline output. It is populated while a
// task runs and is inspectable even on a failed task.
type TaskResults struct {
	ContentGenerated int            `json:"contentGenerated"`
	PostsPublished   map[string]int `json:"postsPublished,omitempty"`
	CampaignsCreated int            `json:"campaignsCreated"`
	AffiliateLinks   int            `json:"affiliateLinksGenerated"`
	EstimatedRevenue float64        `json:"estimatedRevenue"`
	Errors           []string       `json:"errors,omitempty"`
}

// TotalPostsPublished sums successful publishes across platforms.
func (r TaskResults) TotalPostsPublished() int {
	n := 0
	for _, c := range r.PostsPublished {
		n += c
	}
	return n
}

type Task struct {
	ID     string           `json:"id"`
	Type   TaskType         `json:"type"`
	Config AutomationConfig `json:"config"`
	Status TaskStatus       `json:"status"`
	// Results holds partial output even when Status is failed.
	Results TaskResults `json:"results"`
	// Error is reserved for pipeline-fatal conditions; per-idea stage
	// failures land in Results.Errors instead.
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

var (
	_ encoding.BinaryMarshaler = TaskType("")
	_ encoding.TextMarshaler   = TaskType("")
	_ encoding.BinaryMarshaler = TaskStatus("")
	_ encoding.TextMarshaler   = TaskStatus("")
)

func (t TaskType) MarshalBinary() ([]byte, error) { return []byte(string(t)), nil }
func (t TaskType) MarshalText() ([]byte, error)   { return []byte(string(t)), nil }

func (s TaskStatus) MarshalBinary() ([]byte, error) { return []byte(string(s)), nil }
func (s TaskStatus) MarshalText() ([]byte, error)   { return []byte(string(s)), nil }

// Clone returns a deep copy safe to hand to callers while the pipeline keeps
// writing to the original record.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Config = t.Config.Clone()
	if t.Results.PostsPublished != nil {
		cp.Results.PostsPublished = make(map[string]int, len(t.Results.PostsPublished))
		for k, v := range t.Results.PostsPublished {
			cp.Results.PostsPublished[k] = v
		}
	}
	if t.Results.Errors != nil {
		cp.Results.Errors = append([]string(nil), t.Results.Errors...)
	}
	if t.CompletedAt != nil {
		end := *t.CompletedAt
		cp.CompletedAt = &end
	}
	return &cp
}
