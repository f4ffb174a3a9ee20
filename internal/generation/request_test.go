package generation

import (
	"errors"
	"strings"
	"testing"
)

func validRequest() Request {
	return Request{
		Prompt:      "a cat surfing a wave",
		Model:       "kling-v2.1",
		Duration:    5,
		Quality:     QualityStandard,
		AspectRatio: "16:9",
	}
}

func TestRequest_Normalize(t *testing.T) {
	req := Request{
		Prompt:         "  a cat  ",
		Model:          "veo-3",
		NegativePrompt: " blurry ",
	}
	req.Normalize()

	if req.Prompt != "a cat" {
		t.Errorf("expected trimmed prompt, got %q", req.Prompt)
	}
	if req.NegativePrompt != "blurry" {
		t.Errorf("expected trimmed negative prompt, got %q", req.NegativePrompt)
	}
	if req.Duration != 5 {
		t.Errorf("expected default duration 5, got %d", req.Duration)
	}
	if req.Quality != QualityStandard {
		t.Errorf("expected default quality, got %q", req.Quality)
	}
	if req.AspectRatio != "16:9" {
		t.Errorf("expected default aspect ratio, got %q", req.AspectRatio)
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{"valid", func(_ *Request) {}, nil},
		{"empty prompt", func(r *Request) { r.Prompt = "" }, ErrPromptRequired},
		{"whitespace prompt already trimmed", func(r *Request) { r.Prompt = "" }, ErrPromptRequired},
		{"prompt too long", func(r *Request) { r.Prompt = strings.Repeat("x", MaxPromptLength+1) }, ErrPromptTooLong},
		{"unknown model", func(r *Request) { r.Model = "sora-99" }, ErrUnsupportedModel},
		{"bad duration", func(r *Request) { r.Duration = 7 }, ErrInvalidDuration},
		{"bad aspect ratio", func(r *Request) { r.AspectRatio = "4:3" }, ErrInvalidAspectRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsValidationError(err) {
				t.Errorf("expected %v to be a validation error", err)
			}
		})
	}
}

func TestIsValidationError_Other(t *testing.T) {
	if IsValidationError(errors.New("boom")) {
		t.Error("expected plain error to not be a validation error")
	}
}

func TestModelByID(t *testing.T) {
	m, ok := ModelByID("wan-i2v")
	if !ok {
		t.Fatal("expected wan-i2v to be registered")
	}
	if !m.RequiresStartImage {
		t.Error("expected wan-i2v to require a start image")
	}
	if m.FallbackID != "wan-t2v" {
		t.Errorf("expected wan-t2v fallback, got %q", m.FallbackID)
	}

	if _, ok := ModelByID("nope"); ok {
		t.Error("expected unknown model to not resolve")
	}
}

func TestModelIDs(t *testing.T) {
	ids := ModelIDs()
	if len(ids) == 0 {
		t.Fatal("expected non-empty model list")
	}
	for _, id := range ids {
		if _, ok := ModelByID(id); !ok {
			t.Errorf("listed model %q does not resolve", id)
		}
	}
}
