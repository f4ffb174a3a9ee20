package generation

import "fmt"

// ProviderInput is the closed set of provider-specific input shapes.
// Field names and semantics are fixed by the provider models; BuildInput
// is the only place a Request is mapped onto them.
type ProviderInput interface {
	isProviderInput()
}

// KlingInput is the input payload for the Kling model family.
type KlingInput struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Duration       int    `json:"duration"`
	AspectRatio    string `json:"aspect_ratio"`
	Mode           string `json:"mode"`
	StartImage     string `json:"start_image,omitempty"`
}

func (KlingInput) isProviderInput() {}

// VeoInput is the input payload for the Veo model family.
// Veo has no image input; a supplied StartImage is ignored.
type VeoInput struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	DurationSecs   int    `json:"duration_seconds"`
	Resolution     string `json:"resolution"`
	Seed           *int   `json:"seed,omitempty"`
	EnhancePrompt  bool   `json:"enhance_prompt"`
}

func (VeoInput) isProviderInput() {}

// WanInput is the input payload for the Wan model family. The same shape
// serves both the image-to-video and text-to-video variants; Image is only
// set for the former.
type WanInput struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Image          string `json:"image,omitempty"`
	NumFrames      int    `json:"num_frames"`
	SampleSteps    int    `json:"sample_steps"`
	AspectRatio    string `json:"aspect_ratio"`
	Seed           *int   `json:"seed,omitempty"`
}

func (WanInput) isProviderInput() {}

// HailuoInput is the input payload for the Hailuo model family.
type HailuoInput struct {
	Prompt          string `json:"prompt"`
	Duration        int    `json:"duration"`
	Resolution      string `json:"resolution"`
	FirstFrameImage string `json:"first_frame_image,omitempty"`
	PromptOptimizer bool   `json:"prompt_optimizer"`
}

func (HailuoInput) isProviderInput() {}

// BuildInput maps a normalized request onto the input shape of the given
// model. It is a pure function of its arguments.
func BuildInput(req Request, m Model) (ProviderInput, error) {
	startImage := req.StartImage
	if !m.AcceptsStartImage {
		startImage = ""
	}

	switch m.Family {
	case FamilyKling:
		mode := "standard"
		if req.Quality == QualityHigh {
			mode = "pro"
		}
		return KlingInput{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Duration:       req.Duration,
			AspectRatio:    req.AspectRatio,
			Mode:           mode,
			StartImage:     startImage,
		}, nil

	case FamilyVeo:
		return VeoInput{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			DurationSecs:   req.Duration,
			Resolution:     resolutionFor(req.Quality),
			Seed:           req.Seed,
			EnhancePrompt:  req.EnhancePrompt,
		}, nil

	case FamilyWan:
		// 16 fps clips; frame count follows the requested duration.
		return WanInput{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Image:          startImage,
			NumFrames:      req.Duration * 16,
			SampleSteps:    sampleStepsFor(req.Quality),
			AspectRatio:    req.AspectRatio,
			Seed:           req.Seed,
		}, nil

	case FamilyHailuo:
		return HailuoInput{
			Prompt:          req.Prompt,
			Duration:        req.Duration,
			Resolution:      resolutionFor(req.Quality),
			FirstFrameImage: startImage,
			PromptOptimizer: req.EnhancePrompt,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown family %q", ErrUnsupportedModel, m.Family)
	}
}

func resolutionFor(q Quality) string {
	if q == QualityHigh {
		return "1080p"
	}
	return "720p"
}

func sampleStepsFor(q Quality) int {
	if q == QualityHigh {
		return 40
	}
	return 30
}
