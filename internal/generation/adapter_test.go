package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nmoreras/media-studio-api/internal/replicate"
)

// mockClient implements replicate.Client for testing.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) ResolveVersion(ctx context.Context, owner, name string) (string, error) {
	args := m.Called(ctx, owner, name)
	return args.String(0), args.Error(1)
}

func (m *mockClient) CreatePrediction(ctx context.Context, version string, input any) (*replicate.Prediction, error) {
	args := m.Called(ctx, version, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*replicate.Prediction), args.Error(1)
}

func (m *mockClient) GetPrediction(ctx context.Context, id string) (*replicate.Prediction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*replicate.Prediction), args.Error(1)
}

func (m *mockClient) CancelPrediction(ctx context.Context, id string) (*replicate.Prediction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*replicate.Prediction), args.Error(1)
}

func TestSubmitter_Submit_Success(t *testing.T) {
	client := &mockClient{}
	client.On("ResolveVersion", mock.Anything, "kwaivgi", "kling-v2.1").Return("v1", nil)
	client.On("CreatePrediction", mock.Anything, "v1", mock.Anything).
		Return(&replicate.Prediction{ID: "pred-1", Status: replicate.StatusStarting}, nil)

	sub, err := NewSubmitter(client, nil).Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "pred-1", sub.Prediction.ID)
	assert.Equal(t, "kling-v2.1", sub.Model.ID)
	assert.False(t, sub.Substituted())
	client.AssertExpectations(t)
}

func TestSubmitter_Submit_EmptyPrompt(t *testing.T) {
	client := &mockClient{}

	req := validRequest()
	req.Prompt = "   "

	_, err := NewSubmitter(client, nil).Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrPromptRequired)
	client.AssertNotCalled(t, "CreatePrediction", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitter_Submit_UnknownModel(t *testing.T) {
	client := &mockClient{}

	req := validRequest()
	req.Model = "unknown-model"

	_, err := NewSubmitter(client, nil).Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestSubmitter_Submit_FallbackSubstitution(t *testing.T) {
	// wan-i2v requires a start image; without one the registered
	// text-to-video fallback must be used and reported.
	client := &mockClient{}
	client.On("ResolveVersion", mock.Anything, "wavespeedai", "wan-2.1-t2v-720p").Return("v2", nil)
	client.On("CreatePrediction", mock.Anything, "v2", mock.MatchedBy(func(input any) bool {
		wan, ok := input.(WanInput)
		return ok && wan.Image == ""
	})).Return(&replicate.Prediction{ID: "pred-2", Status: replicate.StatusStarting}, nil)

	req := validRequest()
	req.Model = "wan-i2v"

	sub, err := NewSubmitter(client, nil).Submit(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, sub.Substituted())
	assert.Equal(t, "wan-i2v", sub.OriginalModel)
	assert.Equal(t, "wan-t2v", sub.Model.ID)
	client.AssertExpectations(t)
}

func TestSubmitter_Submit_NoFallbackWithStartImage(t *testing.T) {
	// With a start image present, wan-i2v runs as requested.
	client := &mockClient{}
	client.On("ResolveVersion", mock.Anything, "wavespeedai", "wan-2.1-i2v-720p").Return("v3", nil)
	client.On("CreatePrediction", mock.Anything, "v3", mock.Anything).
		Return(&replicate.Prediction{ID: "pred-3", Status: replicate.StatusStarting}, nil)

	req := validRequest()
	req.Model = "wan-i2v"
	req.StartImage = "https://example.com/frame.png"

	sub, err := NewSubmitter(client, nil).Submit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, sub.Substituted())
	assert.Equal(t, "wan-i2v", sub.Model.ID)
}

func TestSubmitter_Submit_VersionResolutionFails(t *testing.T) {
	client := &mockClient{}
	client.On("ResolveVersion", mock.Anything, "google", "veo-3").
		Return("", &replicate.APIError{Kind: replicate.KindModelUnavailable, StatusCode: 404, Message: "model google/veo-3 is not available"})

	req := validRequest()
	req.Model = "veo-3"

	_, err := NewSubmitter(client, nil).Submit(context.Background(), req)
	assert.True(t, replicate.IsKind(err, replicate.KindModelUnavailable))
	client.AssertNotCalled(t, "CreatePrediction", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitter_Submit_CreateFails(t *testing.T) {
	client := &mockClient{}
	client.On("ResolveVersion", mock.Anything, mock.Anything, mock.Anything).Return("v1", nil)
	client.On("CreatePrediction", mock.Anything, "v1", mock.Anything).
		Return(nil, &replicate.APIError{Kind: replicate.KindQuotaExceeded, StatusCode: 402, Message: "billing required"})

	_, err := NewSubmitter(client, nil).Submit(context.Background(), validRequest())
	assert.True(t, replicate.IsKind(err, replicate.KindQuotaExceeded))
}

func TestSubmitter_Submit_ExactlyOneCreateCall(t *testing.T) {
	client := &mockClient{}
	client.On("ResolveVersion", mock.Anything, mock.Anything, mock.Anything).Return("v1", nil)
	client.On("CreatePrediction", mock.Anything, mock.Anything, mock.Anything).
		Return(&replicate.Prediction{ID: "pred-1", Status: replicate.StatusStarting}, nil)

	_, err := NewSubmitter(client, nil).Submit(context.Background(), validRequest())
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "CreatePrediction", 1)
}

func TestSubmission_Substituted(t *testing.T) {
	m, _ := ModelByID("wan-t2v")
	sub := &Submission{Model: m, OriginalModel: "wan-i2v"}
	assert.True(t, sub.Substituted())

	sub.OriginalModel = "wan-t2v"
	assert.False(t, sub.Substituted())
}

func TestSubmitter_Submit_WrappedValidationError(t *testing.T) {
	client := &mockClient{}

	req := validRequest()
	req.Duration = 42

	_, err := NewSubmitter(client, nil).Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDuration))
	assert.True(t, IsValidationError(err))
}
