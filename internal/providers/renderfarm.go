package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promoforge/promoq/internal/backoff"
	"github.com/promoforge/promoq/internal/tracing"
	"github.com/promoforge/promoq/pkg/domain"
)

// RenderFarmVideoGenerator submits render jobs to an HTTP render service and
// polls until the job finishes. Polling is bounded (fixed attempt budget,
// delay shaped by the backoff policy); exhaustion surfaces as a stage error,
// never a hang.
type RenderFarmVideoGenerator struct {
	baseURL      string
	httpClient   *http.Client
	artifacts    ArtifactStore
	pollAttempts int
	pollPolicy   backoff.Policy
}

func NewRenderFarmVideoGenerator(baseURL string, artifacts ArtifactStore, pollAttempts int, pollPolicy backoff.Policy) *RenderFarmVideoGenerator {
	if pollAttempts <= 0 {
		pollAttempts = 30
	}
	if pollPolicy.Base <= 0 {
		pollPolicy = backoff.Policy{Kind: "fixed", Base: 10 * time.Second}
	}
	return &RenderFarmVideoGenerator{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		artifacts:    artifacts,
		pollAttempts: pollAttempts,
		pollPolicy:   pollPolicy,
	}
}

type renderJobRequest struct {
	Script          string `json:"script"`
	Style           string `json:"style,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
}

type renderJobStatus struct {
	JobID    string `json:"jobId"`
	State    string `json:"state"` // queued | rendering | done | failed
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (r *RenderFarmVideoGenerator) Generate(ctx context.Context, idea domain.ContentIdea, product *domain.Product, opts domain.VideoOptions) (*domain.VideoContent, error) {
	content, _ := CaptionOnlyVideoGenerator{}.Generate(ctx, idea, product, opts)

	if !opts.HeavyProcessing {
		// Caption-only is the contracted lightweight path.
		return content, nil
	}

	jobID, err := r.submit(ctx, renderJobRequest{
		Script:          content.Script,
		Style:           opts.Style,
		DurationSeconds: opts.DurationSeconds,
		AspectRatio:     opts.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("render submit: %w", err)
	}

	var final renderJobStatus
	err = backoff.Poll(ctx, r.pollAttempts, r.pollPolicy, func(ctx context.Context) (bool, error) {
		st, err := r.status(ctx, jobID)
		if err != nil {
			// Transient status failures consume attempts instead of aborting.
			return false, nil
		}
		switch st.State {
		case "done":
			final = *st
			return true, nil
		case "failed":
			return false, fmt.Errorf("render job %s failed: %s", jobID, st.Error)
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("render job %s: %w", jobID, err)
	}

	if final.VideoURL != "" && r.artifacts != nil {
		if path, err := r.fetchArtifact(ctx, jobID, final.VideoURL); err == nil {
			content.VideoPath = path
		} else {
			// Absent videoPath means caption-only fallback per the contract.
			return content, nil
		}
	}
	return content, nil
}

func (r *RenderFarmVideoGenerator) submit(ctx context.Context, job renderJobRequest) (string, error) {
	body, _ := json.Marshal(job)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectHeaders(ctx, req.Header)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render service returned %d", resp.StatusCode)
	}
	var st renderJobStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return "", err
	}
	if st.JobID == "" {
		return "", fmt.Errorf("render service returned no job id")
	}
	return st.JobID, nil
}

func (r *RenderFarmVideoGenerator) status(ctx context.Context, jobID string) (*renderJobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/render/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render status returned %d", resp.StatusCode)
	}
	var st renderJobStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *RenderFarmVideoGenerator) fetchArtifact(ctx context.Context, jobID, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artifact fetch returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return r.artifacts.SaveBytes(ctx, fmt.Sprintf("renders/%s.mp4", jobID), "video/mp4", data)
}
