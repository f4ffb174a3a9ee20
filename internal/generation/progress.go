package generation

import "time"

// maxEstimatedProgress caps the heuristic below 100 until a terminal
// event is actually observed.
const maxEstimatedProgress = 95

// EstimateProgress converts elapsed wait time into an approximate progress
// percentage by linear interpolation against the model's expected duration.
// The value is a heuristic, not provider-reported progress.
func EstimateProgress(elapsed, expected time.Duration) int {
	if expected <= 0 {
		expected = DefaultExpectedDuration
	}
	if elapsed <= 0 {
		return 0
	}
	pct := int(elapsed * 100 / expected)
	if pct > maxEstimatedProgress {
		return maxEstimatedProgress
	}
	return pct
}

// ProgressEstimator produces monotonically non-decreasing progress values
// for one wait. Not safe for concurrent use; each wait owns its own.
type ProgressEstimator struct {
	start    time.Time
	expected time.Duration
	last     int
}

// NewProgressEstimator starts an estimator for a job expected to take
// roughly the given duration.
func NewProgressEstimator(expected time.Duration) *ProgressEstimator {
	return &ProgressEstimator{start: time.Now(), expected: expected}
}

// Next returns the current progress estimate. Values never decrease.
func (e *ProgressEstimator) Next() int {
	pct := EstimateProgress(time.Since(e.start), e.expected)
	if pct < e.last {
		return e.last
	}
	e.last = pct
	return pct
}
