package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nmoreras/media-studio-api/internal/extract"
	"github.com/nmoreras/media-studio-api/internal/generation"
	"github.com/nmoreras/media-studio-api/internal/id"
	"github.com/nmoreras/media-studio-api/internal/replicate"
	"github.com/nmoreras/media-studio-api/internal/storage"
	"github.com/nmoreras/media-studio-api/internal/stream"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	client    replicate.Client
	submitter *generation.Submitter
	store     storage.Store
	uploader  storage.Uploader
	extractor *extract.Downloader
	validator *validator.Validate
	logger    *slog.Logger
	pollOpts  generation.PollOptions
}

// HandlerOption configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithPollOptions overrides the polling interval and attempt budget.
func WithPollOptions(opts generation.PollOptions) HandlerOption {
	return func(h *Handlers) {
		h.pollOpts = opts
	}
}

// WithUploader enables remote uploads of stored media.
func WithUploader(u storage.Uploader) HandlerOption {
	return func(h *Handlers) {
		h.uploader = u
	}
}

// WithExtractor enables the social video extraction endpoint.
func WithExtractor(d *extract.Downloader) HandlerOption {
	return func(h *Handlers) {
		h.extractor = d
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client replicate.Client, submitter *generation.Submitter, store storage.Store, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		client:    client,
		submitter: submitter,
		store:     store,
		validator: validator.New(),
		logger:    logger,
		pollOpts:  generation.DefaultPollOptions(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Models: generation.ModelIDs(),
	})
}

// decodeGenerateRequest decodes and validates a generation request body.
func (h *Handlers) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (GenerateVideoRequest, bool) {
	var req GenerateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return req, false
	}

	return req, true
}

// GenerateVideo handles POST /api/video/generate requests. It blocks
// until the prediction reaches a terminal state and returns the complete
// result in one document.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.submitter.Submit(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	pred, err := generation.WaitForTerminal(r.Context(), h.client, sub.Prediction.ID, h.pollOpts, h.logger)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	switch pred.Status {
	case replicate.StatusSucceeded:
		domain := req.toDomain()
		domain.Normalize()
		writeJSON(w, http.StatusOK, VideoResponse{
			ID:            id.Generate("gen"),
			VideoURL:      pred.OutputURL(),
			PredictionID:  pred.ID,
			Model:         sub.Model.ID,
			OriginalModel: originalModelFor(sub),
			Prompt:        domain.Prompt,
			Duration:      domain.Duration,
			Quality:       string(domain.Quality),
			AspectRatio:   domain.AspectRatio,
			Status:        "completed",
			CreatedAt:     pred.CreatedAt,
		})

	case replicate.StatusCanceled:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Generation was canceled",
			Details: "prediction " + pred.ID,
			Code:    "JOB_CANCELED",
		})

	default: // failed
		h.logger.Error("generation failed",
			slog.String("prediction_id", pred.ID),
			slog.String("error", pred.Error),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Generation failed",
			Details: "prediction " + pred.ID + ": " + pred.Error,
			Code:    "JOB_FAILED",
		})
	}
}

// GenerateVideoAsync handles POST /api/video/generate/async requests.
// It submits the prediction and returns immediately; the client follows
// up through the status endpoint.
func (h *Handlers) GenerateVideoAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.submitter.Submit(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	domain := req.toDomain()
	domain.Normalize()

	writeJSON(w, http.StatusAccepted, AsyncVideoResponse{
		ID:            id.Generate("gen"),
		PredictionID:  sub.Prediction.ID,
		Status:        string(sub.Prediction.Status),
		Model:         sub.Model.ID,
		OriginalModel: originalModelFor(sub),
		Prompt:        domain.Prompt,
		Duration:      domain.Duration,
		Quality:       string(domain.Quality),
		AspectRatio:   domain.AspectRatio,
		CreatedAt:     sub.Prediction.CreatedAt,
		Message:       "Generation started; poll /api/video/status/{id} for updates",
	})
}

// VideoStatus handles GET /api/video/status/{id} requests. It re-reads the
// prediction from the provider; repeated calls are side-effect-free.
func (h *Handlers) VideoStatus(w http.ResponseWriter, r *http.Request) {
	predictionID := r.PathValue("id")
	if predictionID == "" {
		writeError(w, http.StatusBadRequest, "prediction ID is required", "MISSING_PREDICTION_ID")
		return
	}

	pred, err := h.client.GetPrediction(r.Context(), predictionID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, statusDocument(pred))
}

// statusDocument maps a prediction to the status response shape for its
// current state.
func statusDocument(pred *replicate.Prediction) StatusResponse {
	switch pred.Status {
	case replicate.StatusSucceeded:
		return StatusResponse{
			Status:       "completed",
			PredictionID: pred.ID,
			VideoURL:     pred.OutputURL(),
			CompletedAt:  pred.CompletedAt,
			Metrics:      pred.Metrics,
		}
	case replicate.StatusFailed:
		return StatusResponse{
			Status:       "failed",
			PredictionID: pred.ID,
			Error:        pred.Error,
			Logs:         pred.Logs,
		}
	case replicate.StatusCanceled:
		return StatusResponse{
			Status:       "canceled",
			PredictionID: pred.ID,
			Message:      "Generation was canceled",
		}
	default:
		// Progress here is a coarse estimate from elapsed time; the
		// provider does not report true progress.
		progress := generation.EstimateProgress(time.Since(pred.CreatedAt), generation.DefaultExpectedDuration)
		return StatusResponse{
			Status:       string(pred.Status),
			PredictionID: pred.ID,
			Progress:     &progress,
			Message:      "Generation in progress",
		}
	}
}

// StreamVideo handles POST /api/video/stream requests. Validation and
// submission failures are returned as plain JSON errors; once the event
// stream starts, failures are delivered in-band.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.submitter.Submit(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	relay, err := stream.NewRelay(w, h.logger)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	relay.Run(r.Context(), h.client, sub, h.pollOpts)
}

// Extract handles POST /api/extract requests: download a social platform
// video and place it in the media store.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "video extraction is not configured", "EXTRACTOR_DISABLED")
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if err := extract.ValidateURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_URL")
		return
	}

	tempDir, err := os.MkdirTemp("", "extract-*")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	key := uuid.NewString() + ".mp4"

	result, err := h.extractor.Download(r.Context(), req.URL, req.Format, tempDir, uuid.NewString())
	if err != nil {
		h.logger.Error("video extraction failed",
			slog.String("url", req.URL),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Video extraction failed",
			Details: err.Error(),
			Code:    "EXTRACTION_FAILED",
		})
		return
	}

	name := result.Title
	if name == "" {
		name = req.URL
	}

	entry := storage.Entry{
		Key:         key,
		Type:        storage.TypeVideo,
		Name:        name,
		ContentType: "video/mp4",
		SourceID:    req.URL,
	}

	if h.uploader != nil {
		f, err := os.Open(result.Path) // #nosec G304 - path comes from the extractor
		if err == nil {
			url, upErr := h.uploader.Upload(r.Context(), key, f)
			_ = f.Close()
			if upErr != nil {
				h.logger.Warn("media upload failed, keeping local copy only",
					slog.String("key", key),
					slog.String("error", upErr.Error()),
				)
			} else {
				entry.URL = url
			}
		}
	}

	f, err := os.Open(result.Path) // #nosec G304 - path comes from the extractor
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	saved, err := h.store.Put(r.Context(), entry, f)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("video extracted",
		slog.String("key", saved.Key),
		slog.String("source", req.URL),
		slog.Int64("size", saved.Size),
	)

	writeJSON(w, http.StatusOK, ExtractResponse{Media: saved})
}

// MediaList handles GET /api/media requests with an optional ?type filter.
func (h *Handlers) MediaList(w http.ResponseWriter, r *http.Request) {
	mediaType := storage.MediaType(r.URL.Query().Get("type"))
	switch mediaType {
	case "", storage.TypeVideo, storage.TypeImage, storage.TypeAudio:
	default:
		writeError(w, http.StatusBadRequest, "unknown media type", "INVALID_MEDIA_TYPE")
		return
	}

	entries, err := h.store.ListByType(r.Context(), mediaType)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MediaListResponse{Media: entries})
}

// MediaGet handles GET /api/media/{key} requests, streaming the stored
// object back to the client.
func (h *Handlers) MediaGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "media key is required", "MISSING_MEDIA_KEY")
		return
	}

	entry, reader, err := h.store.Get(r.Context(), key)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer func() { _ = reader.Close() }()

	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream media",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// MediaDelete handles DELETE /api/media/{key} requests.
func (h *Handlers) MediaDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "media key is required", "MISSING_MEDIA_KEY")
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Media not found", "MEDIA_NOT_FOUND")
			return
		}
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// originalModelFor reports the requested model only when a fallback
// substitution occurred, so clients can detect the switch.
func originalModelFor(sub *generation.Submission) string {
	if sub.Substituted() {
		return sub.OriginalModel
	}
	return ""
}
