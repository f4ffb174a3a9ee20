// Package replicate provides an HTTP client for the hosted prediction API
// that runs the video generation models.
package replicate

import (
	"encoding/json"
	"time"
)

// Status represents the status of a prediction.
type Status string

// Prediction statuses aligned with the provider API.
const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// IsTerminal returns true if the status is a terminal state.
// A prediction never transitions out of a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Metrics contains provider-reported timing for a finished prediction.
type Metrics struct {
	// PredictTime is the number of seconds the model spent predicting.
	PredictTime float64 `json:"predict_time,omitempty"`
}

// Prediction represents one invocation of a hosted generation model.
// It is created by CreatePrediction and re-read by GetPrediction; the
// provider is the single source of truth for its state.
type Prediction struct {
	// ID is the opaque provider-issued identifier.
	ID string `json:"id"`
	// Version is the model version the prediction runs against.
	Version string `json:"version,omitempty"`
	// Status is the current prediction state.
	Status Status `json:"status"`
	// Input echoes the submitted input payload.
	Input json.RawMessage `json:"input,omitempty"`
	// Output is the provider output. For video models this is either a
	// single URL string or a list of URL strings.
	Output json.RawMessage `json:"output,omitempty"`
	// Error is the provider-supplied failure message (terminal failure only).
	Error string `json:"error,omitempty"`
	// Logs contains the provider-side run log, if any.
	Logs string `json:"logs,omitempty"`
	// Metrics is present once the prediction finished.
	Metrics *Metrics `json:"metrics,omitempty"`
	// CreatedAt is when the provider accepted the prediction.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when processing began, if it did.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the prediction reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// OutputURL extracts the first output URL from a succeeded prediction.
// It handles both output shapes the provider uses: a bare string and a
// list of strings. Returns "" if no output is present.
func (p *Prediction) OutputURL() string {
	if len(p.Output) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return single
	}

	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil && len(list) > 0 {
		return list[0]
	}

	return ""
}

// createRequest is the request body for the create prediction endpoint.
type createRequest struct {
	Version string `json:"version"`
	Input   any    `json:"input"`
}

// modelResponse is the response from the get model endpoint, reduced to
// the fields needed for version resolution.
type modelResponse struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	LatestVersion struct {
		ID string `json:"id"`
	} `json:"latest_version"`
}

// apiErrorBody is the error shape the provider returns on non-2xx responses.
type apiErrorBody struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
	Title  string `json:"title,omitempty"`
}

// message returns the most specific message available in the body.
func (b apiErrorBody) message() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Error != "":
		return b.Error
	default:
		return b.Title
	}
}
