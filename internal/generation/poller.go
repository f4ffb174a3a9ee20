package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmoreras/media-studio-api/internal/replicate"
)

// PollOptions bounds a wait for a terminal prediction state.
type PollOptions struct {
	// Interval is the fixed delay between status reads.
	Interval time.Duration
	// MaxAttempts is the number of status reads before giving up.
	MaxAttempts int
}

// DefaultPollOptions polls once per second for up to two minutes.
func DefaultPollOptions() PollOptions {
	return PollOptions{
		Interval:    1 * time.Second,
		MaxAttempts: 120,
	}
}

// TimeoutError is returned when the local wait budget is exhausted while
// the prediction is still non-terminal. The prediction ID is carried so
// the caller can keep polling out-of-band.
type TimeoutError struct {
	PredictionID string
	Attempts     int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation: prediction %s still running after %d status checks", e.PredictionID, e.Attempts)
}

// IsTimeout reports whether err is a poller timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// WaitForTerminal blocks until the prediction reaches a terminal status or
// the attempt budget is exhausted.
//
// Status reads are strictly sequential. A transient read failure consumes
// an attempt but never aborts the wait; the transport layer has already
// retried it with its own, separate budget. Non-transient failures (auth,
// not found) abort immediately.
func WaitForTerminal(ctx context.Context, client replicate.Client, id string, opts PollOptions, logger *slog.Logger) (*replicate.Prediction, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultPollOptions().MaxAttempts
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		pred, err := client.GetPrediction(ctx, id)
		switch {
		case err == nil:
			if pred.Status.IsTerminal() {
				return pred, nil
			}
		case replicate.IsKind(err, replicate.KindProviderTransient):
			logger.Warn("transient status read failure, continuing",
				slog.String("prediction_id", id),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		default:
			return nil, err
		}

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation: wait cancelled: %w", ctx.Err())
		case <-time.After(opts.Interval):
		}
	}

	return nil, &TimeoutError{PredictionID: id, Attempts: opts.MaxAttempts}
}
