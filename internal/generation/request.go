// Package generation translates model-agnostic video generation requests
// into provider-specific prediction inputs, submits them, and waits for
// terminal results.
package generation

import (
	"errors"
	"fmt"
	"strings"
)

// MaxPromptLength is the hard cap on prompt length after trimming.
const MaxPromptLength = 2000

// Static validation errors. All of them render as InvalidRequest at the
// HTTP boundary.
var (
	// ErrPromptRequired is returned when the prompt is empty after trimming.
	ErrPromptRequired = errors.New("generation: prompt is required")
	// ErrPromptTooLong is returned when the prompt exceeds MaxPromptLength.
	ErrPromptTooLong = fmt.Errorf("generation: prompt exceeds %d characters", MaxPromptLength)
	// ErrUnsupportedModel is returned when the requested model is not in
	// the supported set.
	ErrUnsupportedModel = errors.New("generation: unsupported model")
	// ErrInvalidDuration is returned when the duration is not supported.
	ErrInvalidDuration = errors.New("generation: duration must be 5 or 10 seconds")
	// ErrInvalidAspectRatio is returned for unknown aspect ratios.
	ErrInvalidAspectRatio = errors.New("generation: unsupported aspect ratio")
	// ErrStartImageRequired is returned when a model needs a start image,
	// none was supplied, and no fallback model is registered.
	ErrStartImageRequired = errors.New("generation: start image is required")
)

// Quality selects the generation quality tier.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "high"
)

// Request is a model-agnostic video generation request. Exactly one
// provider input shape is derivable from it via BuildInput.
type Request struct {
	// Prompt is the generation prompt.
	Prompt string
	// Model is the requested model identifier (see registry in models.go).
	Model string
	// Duration is the clip length in seconds (5 or 10).
	Duration int
	// Quality selects standard or high quality output.
	Quality Quality
	// AspectRatio is one of "16:9", "9:16", "1:1".
	AspectRatio string
	// StartImage is an optional URL of a reference image. Required by
	// image-to-video models, ignored by text-only models.
	StartImage string
	// NegativePrompt optionally describes what to avoid.
	NegativePrompt string
	// Seed optionally fixes the random seed.
	Seed *int
	// EnhancePrompt asks the provider to rewrite the prompt, where supported.
	EnhancePrompt bool
}

// Normalize trims the prompt and fills in defaults for optional fields.
func (r *Request) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.NegativePrompt = strings.TrimSpace(r.NegativePrompt)
	if r.Duration == 0 {
		r.Duration = 5
	}
	if r.Quality == "" {
		r.Quality = QualityStandard
	}
	if r.AspectRatio == "" {
		r.AspectRatio = "16:9"
	}
}

// Validate checks the request after normalization.
func (r *Request) Validate() error {
	if r.Prompt == "" {
		return ErrPromptRequired
	}
	if len(r.Prompt) > MaxPromptLength {
		return ErrPromptTooLong
	}
	if r.Duration != 5 && r.Duration != 10 {
		return ErrInvalidDuration
	}
	switch r.AspectRatio {
	case "16:9", "9:16", "1:1":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAspectRatio, r.AspectRatio)
	}
	if _, ok := ModelByID(r.Model); !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedModel, r.Model)
	}
	return nil
}

// IsValidationError reports whether err is one of the request validation
// errors, i.e. should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPromptRequired) ||
		errors.Is(err, ErrPromptTooLong) ||
		errors.Is(err, ErrUnsupportedModel) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidAspectRatio) ||
		errors.Is(err, ErrStartImageRequired)
}
