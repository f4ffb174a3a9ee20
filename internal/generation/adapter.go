package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nmoreras/media-studio-api/internal/replicate"
)

// Submission is the result of submitting a generation request.
type Submission struct {
	// Prediction is the provider's view of the freshly created job.
	Prediction *replicate.Prediction
	// Model is the model the prediction actually runs against.
	Model Model
	// OriginalModel is the model the caller asked for. Differs from
	// Model.ID only when a fallback substitution occurred.
	OriginalModel string
}

// Substituted reports whether a fallback model was used in place of the
// requested one.
func (s *Submission) Substituted() bool {
	return s.OriginalModel != s.Model.ID
}

// Submitter translates generation requests into exactly one provider
// prediction. It holds no state besides its injected dependencies.
type Submitter struct {
	client replicate.Client
	logger *slog.Logger
}

// NewSubmitter creates a Submitter backed by the given provider client.
func NewSubmitter(client replicate.Client, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{client: client, logger: logger}
}

// Submit validates the request, resolves the effective model, builds the
// provider input, and creates the prediction. Exactly one remote create
// call is made.
//
// When the requested model requires a start image and none is supplied,
// the registered fallback model is substituted and the substitution is
// reported through Submission.OriginalModel. A model with no registered
// fallback rejects the request instead.
func (s *Submitter) Submit(ctx context.Context, req Request) (*Submission, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requested, _ := ModelByID(req.Model)
	model := requested

	if requested.RequiresStartImage && req.StartImage == "" {
		if requested.FallbackID == "" {
			return nil, fmt.Errorf("%w by model %q", ErrStartImageRequired, requested.ID)
		}
		fallback, ok := ModelByID(requested.FallbackID)
		if !ok {
			return nil, fmt.Errorf("%w: fallback %q", ErrUnsupportedModel, requested.FallbackID)
		}
		model = fallback
		s.logger.Warn("substituting fallback model",
			slog.String("requested_model", requested.ID),
			slog.String("effective_model", fallback.ID),
			slog.String("reason", "start image required but not provided"),
		)
	}

	if req.StartImage != "" && !model.AcceptsStartImage {
		s.logger.Info("start image ignored by model",
			slog.String("model", model.ID),
		)
	}

	input, err := BuildInput(req, model)
	if err != nil {
		return nil, err
	}

	version, err := s.client.ResolveVersion(ctx, model.Owner, model.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve version for %s: %w", model.ID, err)
	}

	pred, err := s.client.CreatePrediction(ctx, version, input)
	if err != nil {
		return nil, fmt.Errorf("create prediction for %s: %w", model.ID, err)
	}

	s.logger.Info("prediction created",
		slog.String("prediction_id", pred.ID),
		slog.String("model", model.ID),
		slog.String("status", string(pred.Status)),
	)

	return &Submission{
		Prediction:    pred,
		Model:         model,
		OriginalModel: requested.ID,
	}, nil
}
