package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nmoreras/media-studio-api/internal/generation"
	"github.com/nmoreras/media-studio-api/internal/replicate"
	"github.com/nmoreras/media-studio-api/internal/storage"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondError renders any adapter, poller, or provider failure as exactly
// one structured error body per the failure taxonomy. No error is ever
// dropped: unrecognized failures fall back to a generic 500 with the raw
// message preserved in details.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case generation.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return

	case generation.IsTimeout(err):
		var te *generation.TimeoutError
		_ = errors.As(err, &te)
		logger.Warn("generation wait timed out",
			slog.String("prediction_id", te.PredictionID),
			slog.Int("attempts", te.Attempts),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Generation timed out while waiting for completion",
			Details: "prediction " + te.PredictionID + " may still be running; keep polling the status endpoint",
			Code:    "GENERATION_TIMEOUT",
		})
		return

	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Media not found", "MEDIA_NOT_FOUND")
		return
	}

	var apiErr *replicate.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case replicate.KindAuthenticationFailed:
			// The credential value itself must never appear in the body.
			writeError(w, http.StatusUnauthorized, "Provider authentication failed", "AUTH_FAILED")
		case replicate.KindQuotaExceeded:
			status := http.StatusTooManyRequests
			if apiErr.StatusCode == http.StatusPaymentRequired {
				status = http.StatusPaymentRequired
			}
			writeJSON(w, status, ErrorResponse{
				Error:   "Generation quota exceeded",
				Details: "check your provider billing and rate limits",
				Code:    "QUOTA_EXCEEDED",
			})
		case replicate.KindModelUnavailable:
			status := http.StatusNotFound
			if apiErr.StatusCode == 0 || apiErr.StatusCode >= 500 {
				status = http.StatusServiceUnavailable
			}
			writeError(w, status, apiErr.Message, "MODEL_UNAVAILABLE")
		case replicate.KindNotFound:
			writeError(w, http.StatusNotFound, "Prediction not found", "PREDICTION_NOT_FOUND")
		case replicate.KindProviderTransient:
			writeError(w, http.StatusServiceUnavailable, "Generation provider is temporarily unavailable", "PROVIDER_UNAVAILABLE")
		case replicate.KindInvalidRequest:
			writeError(w, http.StatusBadRequest, apiErr.Message, "INVALID_REQUEST")
		default:
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "Generation failed",
				Details: apiErr.Message,
				Code:    "PROVIDER_ERROR",
			})
		}
		return
	}

	// Stack traces stay in the logs; the raw message is preserved for
	// diagnosis but never replaced with silence.
	logger.Error("unclassified error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal server error",
		Details: err.Error(),
		Code:    "INTERNAL_ERROR",
	})
}
