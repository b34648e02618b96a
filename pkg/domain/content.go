package domain

// ContentIdea is one candidate piece of content produced by the idea
// generator (or its static fallback).
type ContentIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Product is an affiliate catalog entry ranked by commission value.
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category,omitempty"`
	CommissionValue float64 `json:"commissionValue"`
	AffiliateURL    string  `json:"affiliateUrl"`
}

// VideoContent is the rendering collaborator's output. VideoPath is empty when
// the renderer degraded to a caption-only result.
type VideoContent struct {
	Script    string `json:"script"`
	Caption   string `json:"caption"`
	VideoPath string `json:"videoPath,omitempty"`
}

// PostResult is the per-platform outcome of one publish attempt.
type PostResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	PostURL  string `json:"postUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Campaign identifies an ad campaign created on one platform.
type Campaign struct {
	ID       string  `json:"campaignId"`
	Platform string  `json:"platform"`
	Budget   float64 `json:"budget"`
}
