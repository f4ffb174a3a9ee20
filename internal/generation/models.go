package generation

import "time"

// Family identifies the provider-specific input shape a model takes.
// Adding a provider means adding one Family constant, one input variant,
// and one arm in BuildInput.
type Family string

const (
	FamilyKling  Family = "kling"
	FamilyVeo    Family = "veo"
	FamilyWan    Family = "wan"
	FamilyHailuo Family = "hailuo"
)

// Model describes one supported generation model.
type Model struct {
	// ID is the identifier the frontend sends.
	ID string
	// Family selects the input variant used for this model.
	Family Family
	// Owner and Name form the provider model path used for version resolution.
	Owner string
	Name  string
	// RequiresStartImage marks image-to-video models that cannot run
	// without a reference image.
	RequiresStartImage bool
	// AcceptsStartImage marks models that can optionally use a reference
	// image. Models with neither flag silently ignore StartImage.
	AcceptsStartImage bool
	// FallbackID names the model substituted when RequiresStartImage is
	// set but the request carries no start image. Empty means no fallback:
	// the request is rejected instead.
	FallbackID string
	// ExpectedDuration is how long a typical generation takes. Used only
	// for the heuristic progress estimate; never for timeouts.
	ExpectedDuration time.Duration
}

// models is the closed set of supported models.
var models = []Model{
	{
		ID:                "kling-v2.1",
		Family:            FamilyKling,
		Owner:             "kwaivgi",
		Name:              "kling-v2.1",
		AcceptsStartImage: true,
		ExpectedDuration:  4 * time.Minute,
	},
	{
		ID:               "veo-3",
		Family:           FamilyVeo,
		Owner:            "google",
		Name:             "veo-3",
		ExpectedDuration: 3 * time.Minute,
	},
	{
		ID:                 "wan-i2v",
		Family:             FamilyWan,
		Owner:              "wavespeedai",
		Name:               "wan-2.1-i2v-720p",
		RequiresStartImage: true,
		AcceptsStartImage:  true,
		FallbackID:         "wan-t2v",
		ExpectedDuration:   2 * time.Minute,
	},
	{
		ID:               "wan-t2v",
		Family:           FamilyWan,
		Owner:            "wavespeedai",
		Name:             "wan-2.1-t2v-720p",
		ExpectedDuration: 2 * time.Minute,
	},
	{
		ID:                "hailuo-02",
		Family:            FamilyHailuo,
		Owner:             "minimax",
		Name:              "hailuo-02",
		AcceptsStartImage: true,
		ExpectedDuration:  5 * time.Minute,
	},
}

// modelIndex maps model IDs to registry entries.
var modelIndex = func() map[string]Model {
	idx := make(map[string]Model, len(models))
	for _, m := range models {
		idx[m.ID] = m
	}
	return idx
}()

// ModelByID looks up a model in the supported set.
func ModelByID(id string) (Model, bool) {
	m, ok := modelIndex[id]
	return m, ok
}

// ModelIDs returns the IDs of all supported models.
func ModelIDs() []string {
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}

// DefaultExpectedDuration is the progress-estimate horizon used when the
// model is unknown, e.g. on the standalone status endpoint.
const DefaultExpectedDuration = 3 * time.Minute
