// Package stream delivers generation progress to the client over a single
// long-lived server-sent event connection. It offers the same wait-for-
// completion semantics as the synchronous poller, but incrementally, so
// slow models do not trip client or proxy timeouts.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nmoreras/media-studio-api/internal/generation"
	"github.com/nmoreras/media-studio-api/internal/replicate"
)

// EventType tags a streamed event.
type EventType string

const (
	// EventProgress carries an approximate progress percentage.
	EventProgress EventType = "progress"
	// EventVideo is the single terminal success event.
	EventVideo EventType = "video"
	// EventError is the single terminal failure event.
	EventError EventType = "error"
	// EventDone always follows the terminal event and closes the stream.
	EventDone EventType = "done"
)

// Event is one streamed JSON document. Exactly one of the terminal content
// events (video or error) is emitted per stream, followed by exactly one
// done event.
type Event struct {
	Type EventType `json:"type"`
	// Message is a human-readable status or error description.
	Message string `json:"message,omitempty"`
	// Progress is the approximate completion percentage (progress events).
	Progress *int `json:"progress,omitempty"`
	// Video payload fields (video events only).
	VideoURL     string `json:"videoUrl,omitempty"`
	PredictionID string `json:"predictionId,omitempty"`
	Model        string `json:"model,omitempty"`
}

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("stream: response writer does not support flushing")

// Relay writes server-sent events to one HTTP response.
type Relay struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *slog.Logger
}

// NewRelay prepares a response for event streaming and returns a Relay
// bound to it. Headers are written immediately.
func NewRelay(w http.ResponseWriter, logger *slog.Logger) (*Relay, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	if logger == nil {
		logger = slog.Default()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Relay{w: w, flusher: flusher, logger: logger}, nil
}

// Send writes a single event in "data: <json>\n\n" framing and flushes it.
func (r *Relay) Send(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(r.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("stream: write event: %w", err)
	}
	r.flusher.Flush()
	return nil
}

// Run polls the submitted prediction until it is terminal, relaying
// progress along the way. The event order is always: one progress(0),
// zero or more non-decreasing progress events, exactly one video or error
// event, exactly one done event. Nothing is emitted after done.
//
// If ctx is cancelled (the client went away), polling stops immediately
// and no further provider calls are issued.
func (r *Relay) Run(ctx context.Context, client replicate.Client, sub *generation.Submission, opts generation.PollOptions) {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = generation.DefaultPollOptions().MaxAttempts
	}

	id := sub.Prediction.ID
	estimator := generation.NewProgressEstimator(sub.Model.ExpectedDuration)

	zero := 0
	if err := r.Send(Event{Type: EventProgress, Progress: &zero, Message: "Generation started"}); err != nil {
		return
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			r.logger.Info("client disconnected, stopping poll",
				slog.String("prediction_id", id),
			)
			return
		case <-time.After(opts.Interval):
		}

		pred, err := client.GetPrediction(ctx, id)
		if err != nil {
			if replicate.IsKind(err, replicate.KindProviderTransient) {
				// A single failed read never fails the whole stream.
				continue
			}
			r.finishError(err, id)
			return
		}

		switch pred.Status {
		case replicate.StatusSucceeded:
			r.finishVideo(pred, sub)
			return
		case replicate.StatusFailed:
			r.finishError(&predictionFailure{id: id, message: pred.Error}, id)
			return
		case replicate.StatusCanceled:
			r.finishError(&predictionFailure{id: id, message: "generation was canceled"}, id)
			return
		default:
			pct := estimator.Next()
			if err := r.Send(Event{
				Type:     EventProgress,
				Progress: &pct,
				Message:  progressMessage(pred.Status),
			}); err != nil {
				return
			}
		}
	}

	r.finishError(&generation.TimeoutError{PredictionID: id, Attempts: opts.MaxAttempts}, id)
}

// finishVideo emits the terminal video event followed by done.
func (r *Relay) finishVideo(pred *replicate.Prediction, sub *generation.Submission) {
	full := 100
	_ = r.Send(Event{
		Type:         EventVideo,
		Progress:     &full,
		VideoURL:     pred.OutputURL(),
		PredictionID: pred.ID,
		Model:        sub.Model.ID,
		Message:      "Generation complete",
	})
	_ = r.Send(Event{Type: EventDone})
}

// finishError emits the terminal error event followed by done. The failure
// taxonomy is surfaced in-band because the HTTP status cannot change
// mid-stream.
func (r *Relay) finishError(err error, predictionID string) {
	r.logger.Error("stream terminated with error",
		slog.String("prediction_id", predictionID),
		slog.String("error", err.Error()),
	)
	_ = r.Send(Event{
		Type:         EventError,
		Message:      errorMessage(err),
		PredictionID: predictionID,
	})
	_ = r.Send(Event{Type: EventDone})
}

// predictionFailure carries a provider-reported terminal failure.
type predictionFailure struct {
	id      string
	message string
}

func (e *predictionFailure) Error() string {
	if e.message == "" {
		return fmt.Sprintf("prediction %s failed", e.id)
	}
	return fmt.Sprintf("prediction %s failed: %s", e.id, e.message)
}

// progressMessage describes a non-terminal provider status.
func progressMessage(status replicate.Status) string {
	switch status {
	case replicate.StatusStarting:
		return "Waiting for the model to start"
	case replicate.StatusProcessing:
		return "Generating video"
	default:
		return "Working"
	}
}

// errorMessage renders a failure as a distinct human-readable message per
// taxonomy kind. Raw stack traces never reach the client.
func errorMessage(err error) string {
	var apiErr *replicate.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case replicate.KindQuotaExceeded:
			return "Generation quota exceeded. Please check your provider billing."
		case replicate.KindAuthenticationFailed:
			return "Provider authentication failed. Please check the API credentials."
		case replicate.KindProviderTransient:
			return "The generation provider is temporarily unavailable. Please try again."
		case replicate.KindModelUnavailable:
			return "The requested model is currently unavailable."
		}
	}

	if generation.IsTimeout(err) {
		return "Generation is taking longer than expected. You can keep checking the status endpoint."
	}

	var failure *predictionFailure
	if errors.As(err, &failure) {
		return "Generation failed: " + failure.Error()
	}

	return "Generation failed unexpectedly."
}
