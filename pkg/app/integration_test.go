package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/promoforge/promoq/internal/providers"
	"github.com/promoforge/promoq/pkg/config"
	"github.com/promoforge/promoq/pkg/domain"
)

type stubIdeas struct{}

func (stubIdeas) Generate(ctx context.Context, theme, audience string) ([]domain.ContentIdea, error) {
	return []domain.ContentIdea{{Title: "stub idea", Description: "stub description"}}, nil
}

func testApplication(t *testing.T) *Application {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	cfg, err := config.LoadConfigOptional("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.RedisAddr = mr.Addr()
	cfg.Env = "dev"
	cfg.LogLevel = "error"

	application, err := NewApplication(cfg, WithProviders(providers.Providers{
		Ideas:     stubIdeas{},
		Catalog:   providers.NewStaticCatalog(),
		Links:     providers.StaticLinkGenerator{},
		Video:     providers.CaptionOnlyVideoGenerator{},
		Poster:    providers.SimulatedPoster{},
		Campaigns: providers.SimulatedCampaignManager{},
	}))
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	SetupMappings(application)
	return application
}

func doJSON(t *testing.T, app *Application, method, path string, body any, out any) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Engine.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, w.Body.String()
}

func submitTask(t *testing.T, app *Application) string {
	t.Helper()
	body := map[string]any{
		"type": "content_generation",
		"config": map[string]any{
			"contentTheme":      "tech reviews",
			"targetAudience":    "developers",
			"platforms":         []string{"tiktok", "youtube"},
			"productCategories": []string{"tech"},
			"budgetPerPlatform": 25,
		},
	}
	var resp struct {
		Task                       domain.Task `json:"task"`
		EstimatedCompletionMinutes int         `json:"estimatedCompletionMinutes"`
	}
	status, raw := doJSON(t, app, http.MethodPost, "/v1/promoq/tasks", body, &resp)
	if status != http.StatusAccepted {
		t.Fatalf("submit: expected 202, got %d (%s)", status, raw)
	}
	if resp.Task.ID == "" || resp.EstimatedCompletionMinutes <= 0 {
		t.Fatalf("submit: incomplete response %s", raw)
	}
	return resp.Task.ID
}

func waitCompleted(t *testing.T, app *Application, id string) domain.Task {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var task domain.Task
		status, raw := doJSON(t, app, http.MethodGet, "/v1/promoq/tasks/"+id, nil, &task)
		if status != http.StatusOK {
			t.Fatalf("get task: %d (%s)", status, raw)
		}
		if task.Status.Terminal() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never finished", id)
	return domain.Task{}
}

func TestSubmitAndTrackTask(t *testing.T) {
	application := testApplication(t)

	id := submitTask(t, application)
	task := waitCompleted(t, application, id)
	if task.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", task.Status, task.Error)
	}
	if task.Results.TotalPostsPublished() == 0 {
		t.Fatal("expected posts in results")
	}

	var listResp struct {
		Tasks []domain.Task `json:"tasks"`
		Count int           `json:"count"`
	}
	status, raw := doJSON(t, application, http.MethodGet, "/v1/promoq/tasks", nil, &listResp)
	if status != http.StatusOK || listResp.Count != 1 {
		t.Fatalf("list: %d %s", status, raw)
	}
}

func TestSubmitValidation(t *testing.T) {
	application := testApplication(t)

	status, _ := doJSON(t, application, http.MethodPost, "/v1/promoq/tasks", map[string]any{
		"type":   "content_generation",
		"config": map[string]any{"contentTheme": "x"}, // no platforms
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing platforms, got %d", status)
	}

	status, _ = doJSON(t, application, http.MethodPost, "/v1/promoq/tasks", map[string]any{
		"type":   "mine_bitcoin",
		"config": map[string]any{"platforms": []string{"tiktok"}},
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", status)
	}
}

func TestAllocationEndpoints(t *testing.T) {
	application := testApplication(t)

	// Seed observations through the public surface.
	for i := 0; i < 5; i++ {
		status, raw := doJSON(t, application, http.MethodPost, "/v1/promoq/allocations/observations", map[string]any{
			"platform": "tiktok",
			"reward":   0.8,
		}, nil)
		if status != http.StatusAccepted {
			t.Fatalf("observation: %d %s", status, raw)
		}
	}
	doJSON(t, application, http.MethodPost, "/v1/promoq/allocations/observations", map[string]any{
		"platform": "youtube",
		"reward":   0.1,
		"hour":     18,
	}, nil)

	var rec domain.AllocationRecommendation
	status, raw := doJSON(t, application, http.MethodGet, "/v1/promoq/allocations/recommendation?platforms=tiktok,youtube&budget=100", nil, &rec)
	if status != http.StatusOK {
		t.Fatalf("recommendation: %d %s", status, raw)
	}
	sum := 0.0
	for _, v := range rec.PlatformSplit {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("split must sum to 1, got %v", rec.PlatformSplit)
	}
	if rec.PlatformSplit["tiktok"] <= rec.PlatformSplit["youtube"] {
		t.Fatalf("expected tiktok favored: %v", rec.PlatformSplit)
	}
	budgetTotal := 0.0
	for _, v := range rec.BudgetByPlatform {
		budgetTotal += v
	}
	if budgetTotal < 99.9 || budgetTotal > 100.1 {
		t.Fatalf("budget must be fully assigned, got %v", rec.BudgetByPlatform)
	}

	status, _ = doJSON(t, application, http.MethodGet, "/v1/promoq/allocations/recommendation", nil, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 without platforms, got %d", status)
	}

	var arms struct {
		Count int `json:"count"`
	}
	status, raw = doJSON(t, application, http.MethodGet, "/v1/promoq/allocations/arms", nil, &arms)
	if status != http.StatusOK || arms.Count == 0 {
		t.Fatalf("arms: %d %s", status, raw)
	}
}

func TestCancelEndpoint(t *testing.T) {
	application := testApplication(t)

	id := submitTask(t, application)
	waitCompleted(t, application, id)

	var resp struct {
		Cancelled bool `json:"cancelled"`
	}
	status, raw := doJSON(t, application, http.MethodPost, fmt.Sprintf("/v1/promoq/tasks/%s/cancel", id), nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("cancel: %d %s", status, raw)
	}
	if resp.Cancelled {
		t.Fatal("cancel of a completed task must report cancelled=false")
	}

	status, _ = doJSON(t, application, http.MethodPost, "/v1/promoq/tasks/unknown/cancel", nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d", status)
	}
}

func TestHealthz(t *testing.T) {
	application := testApplication(t)
	status, raw := doJSON(t, application, http.MethodGet, "/healthz", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("healthz: %d %s", status, raw)
	}
}
