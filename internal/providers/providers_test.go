package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/promoforge/promoq/internal/backoff"
	"github.com/promoforge/promoq/pkg/domain"
)

func TestLocalArtifactStoreSaveBytes(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalArtifactStore(tmpDir)

	url, err := store.SaveBytes(context.Background(), "renders/job-1.mp4", "video/mp4", []byte("bytes"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("expected file:// URL, got %s", url)
	}
	content, err := os.ReadFile(filepath.Join(tmpDir, "renders/job-1.mp4"))
	if err != nil {
		t.Fatalf("failed to read saved artifact: %v", err)
	}
	if string(content) != "bytes" {
		t.Errorf("artifact content = %q", string(content))
	}
}

func TestFallbackIdeasScopedByTheme(t *testing.T) {
	tests := []struct {
		theme     string
		wantTitle string
	}{
		{"amazing tech gadgets", "5 gadgets you didn't know you needed"},
		{"home fitness", "10-minute no-equipment burn"},
		{"something unmatched", "Top picks this week"},
	}
	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			ideas := FallbackIdeas(tt.theme)
			if len(ideas) == 0 {
				t.Fatal("fallback set must never be empty")
			}
			if ideas[0].Title != tt.wantTitle {
				t.Errorf("first idea = %q, want %q", ideas[0].Title, tt.wantTitle)
			}
		})
	}
}

func TestStaticCatalogRankedByCommission(t *testing.T) {
	catalog := NewStaticCatalog()

	products, err := catalog.Search(context.Background(), "tech", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 tech products, got %d", len(products))
	}
	if products[0].CommissionValue < products[1].CommissionValue {
		t.Error("products not ranked by commission value")
	}

	limited, _ := catalog.Search(context.Background(), "", 2)
	if len(limited) != 2 {
		t.Errorf("limit not applied, got %d products", len(limited))
	}
}

func TestStaticLinkGenerator(t *testing.T) {
	gen := StaticLinkGenerator{TrackingTag: "campaign42"}
	links, err := gen.Generate(context.Background(), []domain.Product{
		{ID: "p1", AffiliateURL: "https://aff.example.com/p1"},
		{ID: "p2", AffiliateURL: "https://aff.example.com/p2?src=x"},
		{ID: "p3"}, // no URL, skipped
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0] != "https://aff.example.com/p1?tag=campaign42" {
		t.Errorf("link[0] = %s", links[0])
	}
	if links[1] != "https://aff.example.com/p2?src=x&tag=campaign42" {
		t.Errorf("link[1] = %s", links[1])
	}
}

func TestCaptionOnlyVideoGenerator(t *testing.T) {
	gen := CaptionOnlyVideoGenerator{}
	product := &domain.Product{Name: "Wireless Earbuds Pro"}
	idea := domain.ContentIdea{
		Title:       "Unboxing the hype",
		Description: "First impressions",
		Hashtags:    []string{"#unboxing", "#tech"},
	}

	content, err := gen.Generate(context.Background(), idea, product, domain.VideoOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content.VideoPath != "" {
		t.Error("caption-only generator must not set VideoPath")
	}
	if !strings.Contains(content.Script, "Wireless Earbuds Pro") {
		t.Errorf("script missing product name: %s", content.Script)
	}
	if !strings.Contains(content.Caption, "#unboxing") {
		t.Errorf("caption missing hashtags: %s", content.Caption)
	}
}

func TestRenderFarmPollsUntilDone(t *testing.T) {
	var statusCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/render", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-7", "state": "queued"})
	})
	mux.HandleFunc("/v1/render/job-7", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&statusCalls, 1)
		st := map[string]string{"jobId": "job-7", "state": "rendering"}
		if n >= 3 {
			st["state"] = "done"
			st["videoUrl"] = "http://" + r.Host + "/artifacts/job-7.mp4"
		}
		_ = json.NewEncoder(w).Encode(st)
	})
	mux.HandleFunc("/artifacts/job-7.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake-mp4"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gen := NewRenderFarmVideoGenerator(srv.URL, NewLocalArtifactStore(t.TempDir()), 10, backoff.Policy{Kind: "fixed", Base: time.Millisecond})
	content, err := gen.Generate(context.Background(), domain.ContentIdea{Title: "t"}, nil, domain.VideoOptions{HeavyProcessing: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content.VideoPath == "" {
		t.Error("expected VideoPath after successful render")
	}
	if atomic.LoadInt32(&statusCalls) < 3 {
		t.Errorf("status polled %d times, want >= 3", statusCalls)
	}
}

func TestRenderFarmBoundedPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/render", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-8", "state": "queued"})
	})
	var statusCalls int32
	mux.HandleFunc("/v1/render/job-8", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&statusCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-8", "state": "rendering"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gen := NewRenderFarmVideoGenerator(srv.URL, nil, 4, backoff.Policy{Kind: "fixed", Base: time.Millisecond})
	_, err := gen.Generate(context.Background(), domain.ContentIdea{Title: "t"}, nil, domain.VideoOptions{HeavyProcessing: true})
	if err == nil {
		t.Fatal("expected error after poll budget exhausted")
	}
	if got := atomic.LoadInt32(&statusCalls); got != 4 {
		t.Errorf("status polled %d times, want exactly 4", got)
	}
}

func TestRenderFarmSkipsLightweightRequests(t *testing.T) {
	// No server: heavy processing off must never touch the network.
	gen := NewRenderFarmVideoGenerator("http://render.invalid", nil, 3, backoff.Policy{Kind: "fixed", Base: time.Millisecond})
	content, err := gen.Generate(context.Background(), domain.ContentIdea{Title: "t"}, nil, domain.VideoOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content.VideoPath != "" {
		t.Error("lightweight path must stay caption-only")
	}
}
