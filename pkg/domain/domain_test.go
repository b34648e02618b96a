package domain

import (
	"testing"
)

func TestTaskStatusMarshalText(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   string
	}{
		{"pending", StatusPending, "pending"},
		{"running", StatusRunning, "running"},
		{"completed", StatusCompleted, "completed"},
		{"failed", StatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.status.MarshalText()
			if err != nil {
				t.Errorf("MarshalText() error = %v", err)
				return
			}
			if string(got) != tt.want {
				t.Errorf("MarshalText() = %v, want %v", string(got), tt.want)
			}
		})
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTaskClone(t *testing.T) {
	task := Task{
		ID:     "task-123",
		Type:   TypeContentGeneration,
		Status: StatusRunning,
		Config: AutomationConfig{
			ContentTheme:   "tech gadgets",
			TargetAudience: "young professionals",
			Platforms:      []string{"tiktok", "instagram"},
		},
		Results: TaskResults{
			ContentGenerated: 2,
			PostsPublished:   map[string]int{"tiktok": 1},
			Errors:           []string{"video generation timed out"},
		},
	}

	cp := task.Clone()
	cp.Results.PostsPublished["instagram"] = 5
	cp.Results.Errors[0] = "mutated"
	cp.Config.Platforms[0] = "youtube"

	if task.Results.PostsPublished["instagram"] != 0 {
		t.Error("Clone shares PostsPublished map with original")
	}
	if task.Results.Errors[0] != "video generation timed out" {
		t.Error("Clone shares Errors slice with original")
	}
	if task.Config.Platforms[0] != "tiktok" {
		t.Error("Clone shares Platforms slice with original")
	}
}

func TestSplitArmKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		platform string
		hour     int
		hasSlot  bool
	}{
		{"platform only", "tiktok", "tiktok", 0, false},
		{"platform and slot", "tiktok@18", "tiktok", 18, true},
		{"midnight slot", "instagram@00", "instagram", 0, true},
		{"malformed slot", "tiktok@evening", "tiktok", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, hour, hasSlot := SplitArmKey(tt.key)
			if platform != tt.platform || hour != tt.hour || hasSlot != tt.hasSlot {
				t.Errorf("SplitArmKey(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.key, platform, hour, hasSlot, tt.platform, tt.hour, tt.hasSlot)
			}
		})
	}
}

func TestSlotArmRoundTrip(t *testing.T) {
	key := SlotArm("TikTok", 7)
	if key != "tiktok@07" {
		t.Fatalf("SlotArm = %q, want tiktok@07", key)
	}
	platform, hour, hasSlot := SplitArmKey(key)
	if platform != "tiktok" || hour != 7 || !hasSlot {
		t.Errorf("round trip = (%q, %d, %v)", platform, hour, hasSlot)
	}
}

func TestResultsTotalPostsPublished(t *testing.T) {
	r := TaskResults{PostsPublished: map[string]int{"tiktok": 2, "instagram": 3}}
	if got := r.TotalPostsPublished(); got != 5 {
		t.Errorf("TotalPostsPublished() = %d, want 5", got)
	}
	var empty TaskResults
	if got := empty.TotalPostsPublished(); got != 0 {
		t.Errorf("TotalPostsPublished() on zero value = %d, want 0", got)
	}
}
