package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promoforge/promoq/internal/metrics"
	"github.com/promoforge/promoq/internal/providers"
	"github.com/promoforge/promoq/pkg/config"
	"github.com/promoforge/promoq/pkg/domain"
)

// ErrCapacity is returned by Submit when the operational cap on simultaneous
// tasks is reached. Submissions are rejected, not queued.
var ErrCapacity = errors.New("too many concurrent tasks")

type OrchestratorService interface {
	// Submit snapshots the config into a new pending task, schedules its
	// pipeline in the background and returns immediately with a completion
	// estimate in minutes.
	Submit(ctx context.Context, taskType domain.TaskType, cfg domain.AutomationConfig) (*domain.Task, int, error)
	// GetStatus returns a snapshot; it never blocks on in-flight work.
	GetStatus(ctx context.Context, id string) (*domain.Task, error)
	// ListActive returns snapshots of every tracked task in insertion order,
	// terminal ones included while they remain in memory.
	ListActive(ctx context.Context) []*domain.Task
	// Cancel succeeds only against a running task. It flips the task to
	// failed immediately and cancels the pipeline context, so collaborator
	// calls that honor their context stop too.
	Cancel(ctx context.Context, id string) bool
	// EvictTerminalBefore removes terminal tasks whose completion is older
	// than cutoff from the registry, returning the removed snapshots.
	EvictTerminalBefore(cutoff time.Time) []*domain.Task
}

type orchestratorService struct {
	mu      sync.RWMutex
	tasks   map[string]*domain.Task
	order   []string
	cancels map[string]context.CancelFunc

	collab   providers.Providers
	recorder ObservationRecorder
	logger   *slog.Logger
	now      func() time.Time

	maxConcurrent int
	maxIdeas      int
	maxLinks      int
	estimates     config.EstimateConfig
	rewardScale   float64
}

func NewOrchestratorService(collab providers.Providers, recorder ObservationRecorder, logger *slog.Logger, now func() time.Time, maxConcurrent, maxIdeas, maxLinks int, estimates config.EstimateConfig, rewardScale float64) OrchestratorService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	if maxIdeas <= 0 {
		maxIdeas = 3
	}
	if maxLinks <= 0 {
		maxLinks = 3
	}
	if rewardScale <= 0 {
		rewardScale = 100
	}
	return &orchestratorService{
		tasks:         make(map[string]*domain.Task),
		cancels:       make(map[string]context.CancelFunc),
		collab:        collab,
		recorder:      recorder,
		logger:        logger,
		now:           now,
		maxConcurrent: maxConcurrent,
		maxIdeas:      maxIdeas,
		maxLinks:      maxLinks,
		estimates:     estimates,
		rewardScale:   rewardScale,
	}
}

func (s *orchestratorService) Submit(ctx context.Context, taskType domain.TaskType, cfg domain.AutomationConfig) (*domain.Task, int, error) {
	if taskType == "" {
		taskType = domain.TypeContentGeneration
	}

	task := &domain.Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		Config:    cfg.Clone(),
		Status:    domain.StatusPending,
		Results:   domain.TaskResults{PostsPublished: map[string]int{}},
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	active := 0
	for _, t := range s.tasks {
		if !t.Status.Terminal() {
			active++
		}
	}
	if active >= s.maxConcurrent {
		s.mu.Unlock()
		return nil, 0, ErrCapacity
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	// The pipeline context is detached from the submit request: the caller's
	// request ending must not abort background work.
	pipeCtx, cancel := context.WithCancel(context.Background())
	s.cancels[task.ID] = cancel
	snapshot := task.Clone()
	s.mu.Unlock()

	metrics.TaskCreatedTotal.WithLabelValues(string(taskType)).Inc()
	s.logger.Info("task submitted", "taskId", task.ID, "type", taskType, "platforms", cfg.Platforms)

	go s.runPipeline(pipeCtx, task.ID)

	return snapshot, s.estimateMinutes(cfg), nil
}

// estimateMinutes is a coarse heuristic, not a promise: a base cost, a
// per-platform increment, a bigger one for heavyweight video processing and a
// smaller one when ad campaigns are funded.
func (s *orchestratorService) estimateMinutes(cfg domain.AutomationConfig) int {
	est := s.estimates.BaseMinutes + s.estimates.PerPlatformMinutes*len(cfg.Platforms)
	if cfg.Video.HeavyProcessing {
		est += s.estimates.VideoProcessingMinutes
	}
	if cfg.HasAdBudget() {
		est += s.estimates.AdCampaignMinutes
	}
	return est
}

func (s *orchestratorService) GetStatus(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	if ok {
		snapshot := task.Clone()
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()
	return nil, errors.New("not-found")
}

func (s *orchestratorService) ListActive(ctx context.Context) []*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *orchestratorService) Cancel(ctx context.Context, id string) bool {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || task.Status != domain.StatusRunning {
		s.mu.Unlock()
		return false
	}
	task.Status = domain.StatusFailed
	task.Error = domain.ErrCancelled
	end := s.now()
	task.CompletedAt = &end
	cancel := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	metrics.TaskCompletedTotal.WithLabelValues(string(task.Type), string(domain.StatusFailed)).Inc()
	s.logger.Info("task cancelled", "taskId", id)
	return true
}

func (s *orchestratorService) EvictTerminalBefore(cutoff time.Time) []*domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []*domain.Task
	remaining := s.order[:0]
	for _, id := range s.order {
		t, ok := s.tasks[id]
		if !ok {
			continue
		}
		if t.Status.Terminal() && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			evicted = append(evicted, t.Clone())
			delete(s.tasks, id)
			delete(s.cancels, id)
			continue
		}
		remaining = append(remaining, id)
	}
	s.order = remaining
	return evicted
}

// transition mutates a task under the registry lock. fn runs only while the
// task is still in the expected status; terminal states are never left.
func (s *orchestratorService) transition(id string, from domain.TaskStatus, fn func(t *domain.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Status != from {
		return false
	}
	fn(task)
	return true
}

// mutateResults applies fn to a task's results regardless of status, so late
// stage completions after a cancel still leave their partial output visible.
func (s *orchestratorService) mutateResults(id string, fn func(r *domain.TaskResults)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[id]; ok {
		fn(&task.Results)
	}
}

func (s *orchestratorService) snapshotConfig(id string) (domain.AutomationConfig, domain.TaskType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return domain.AutomationConfig{}, "", false
	}
	return task.Config.Clone(), task.Type, true
}
