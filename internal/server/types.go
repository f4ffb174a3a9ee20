// Package server provides the HTTP server for the media studio API.
// It includes handlers, middleware, routes, and DTOs separated from
// domain types.
package server

import (
	"time"

	"github.com/nmoreras/media-studio-api/internal/generation"
	"github.com/nmoreras/media-studio-api/internal/replicate"
	"github.com/nmoreras/media-studio-api/internal/storage"
)

// GenerateVideoRequest is the HTTP request body for the video generation
// endpoints (sync, async, and streaming).
type GenerateVideoRequest struct {
	// Prompt is the generation prompt.
	Prompt string `json:"prompt" validate:"required"`
	// Model is the model identifier.
	Model string `json:"model" validate:"required"`
	// Duration is the clip length in seconds.
	Duration int `json:"duration" validate:"omitempty,oneof=5 10"`
	// Quality selects the quality tier.
	Quality string `json:"quality" validate:"omitempty,oneof=standard high"`
	// AspectRatio is the output aspect ratio.
	AspectRatio string `json:"aspectRatio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	// StartImage is an optional reference image URL.
	StartImage string `json:"startImage" validate:"omitempty,url"`
	// NegativePrompt optionally describes what to avoid.
	NegativePrompt string `json:"negativePrompt"`
	// Seed optionally fixes the random seed.
	Seed *int `json:"seed"`
	// EnhancePrompt asks the provider to rewrite the prompt.
	EnhancePrompt bool `json:"enhancePrompt"`
}

// toDomain converts the DTO into a domain request.
func (r GenerateVideoRequest) toDomain() generation.Request {
	return generation.Request{
		Prompt:         r.Prompt,
		Model:          r.Model,
		Duration:       r.Duration,
		Quality:        generation.Quality(r.Quality),
		AspectRatio:    r.AspectRatio,
		StartImage:     r.StartImage,
		NegativePrompt: r.NegativePrompt,
		Seed:           r.Seed,
		EnhancePrompt:  r.EnhancePrompt,
	}
}

// VideoResponse is the final document returned by the synchronous
// generation endpoint.
type VideoResponse struct {
	ID            string    `json:"id"`
	VideoURL      string    `json:"videoUrl"`
	PredictionID  string    `json:"predictionId"`
	Model         string    `json:"model"`
	OriginalModel string    `json:"originalModel,omitempty"`
	Prompt        string    `json:"prompt"`
	Duration      int       `json:"duration"`
	Quality       string    `json:"quality"`
	AspectRatio   string    `json:"aspectRatio"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AsyncVideoResponse is returned immediately by the asynchronous
// generation endpoint; the client polls the status endpoint afterwards.
type AsyncVideoResponse struct {
	ID            string    `json:"id"`
	PredictionID  string    `json:"predictionId"`
	Status        string    `json:"status"`
	Model         string    `json:"model"`
	OriginalModel string    `json:"originalModel,omitempty"`
	Prompt        string    `json:"prompt"`
	Duration      int       `json:"duration"`
	Quality       string    `json:"quality"`
	AspectRatio   string    `json:"aspectRatio"`
	CreatedAt     time.Time `json:"createdAt"`
	Message       string    `json:"message"`
}

// StatusResponse is the document returned by the status endpoint. Which
// fields are set depends on the prediction state.
type StatusResponse struct {
	Status       string             `json:"status"`
	PredictionID string             `json:"predictionId"`
	VideoURL     string             `json:"videoUrl,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
	Metrics      *replicate.Metrics `json:"metrics,omitempty"`
	Error        string             `json:"error,omitempty"`
	Logs         string             `json:"logs,omitempty"`
	Progress     *int               `json:"progress,omitempty"`
	Message      string             `json:"message,omitempty"`
}

// ExtractRequest is the HTTP request body for the video extraction
// endpoint.
type ExtractRequest struct {
	// URL is the social platform video URL.
	URL string `json:"url" validate:"required,url"`
	// Format is an optional yt-dlp format selector.
	Format string `json:"format"`
}

// ExtractResponse describes the stored download.
type ExtractResponse struct {
	Media storage.Entry `json:"media"`
}

// MediaListResponse is the response for the media listing endpoint.
type MediaListResponse struct {
	Media []storage.Entry `json:"media"`
}

// ErrorResponse is the standard error response format. Every error body
// carries at least Error; Details and Code are optional diagnostics.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Details preserves underlying error text for diagnosis.
	Details string `json:"details,omitempty"`
	// Code is the error code for programmatic handling.
	Code string `json:"code,omitempty"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// Models lists the supported generation models.
	Models []string `json:"models"`
}
