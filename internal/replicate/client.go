package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Static errors for client construction and use.
var (
	// ErrTokenNotSet is returned when no API token is provided and the
	// REPLICATE_API_TOKEN environment variable is not set.
	ErrTokenNotSet = errors.New("replicate: API token is not set")
	// ErrPredictionIDRequired is returned when a prediction ID is empty.
	ErrPredictionIDRequired = errors.New("replicate: prediction ID is required")
	// ErrModelRequired is returned when the model owner or name is empty.
	ErrModelRequired = errors.New("replicate: model owner and name are required")
	// ErrNoVersion is returned when a model has no runnable version.
	ErrNoVersion = errors.New("replicate: model has no runnable version")
	// ErrNoPredictionID is returned when the create response carries no ID.
	ErrNoPredictionID = errors.New("replicate: create returned no prediction ID")
)

// Client defines the interface for the hosted prediction API.
type Client interface {
	// ResolveVersion returns the ID of the latest runnable version of a model.
	ResolveVersion(ctx context.Context, owner, name string) (string, error)

	// CreatePrediction submits a new prediction against a model version.
	CreatePrediction(ctx context.Context, version string, input any) (*Prediction, error)

	// GetPrediction re-reads the current state of a prediction.
	// It is side-effect-free and safe to call repeatedly.
	GetPrediction(ctx context.Context, id string) (*Prediction, error)

	// CancelPrediction asks the provider to stop a running prediction.
	CancelPrediction(ctx context.Context, id string) (*Prediction, error)
}

// HTTPClient is the HTTP implementation of Client.
//
// Transport-level retries (transient 5xx and network failures, linearly
// increasing delay) are handled here and are independent of the job-status
// polling retries layered on top by the poller.
type HTTPClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithToken sets the API token for authentication.
func WithToken(token string) ClientOption {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL for the provider API.
func WithBaseURL(url string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = url
	}
}

// WithMaxRetries sets the maximum number of transport-level retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the base delay between retries. The actual delay
// grows linearly with the attempt number.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// NewClient creates a new provider HTTP client.
// The API token can be set via WithToken; if not provided it is read from
// the REPLICATE_API_TOKEN environment variable.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:    "https://api.replicate.com/v1",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.token == "" {
		c.token = os.Getenv("REPLICATE_API_TOKEN")
	}
	if c.token == "" {
		return nil, ErrTokenNotSet
	}

	return c, nil
}

// ResolveVersion returns the latest runnable version ID of a model.
// A 404 from the provider is reported as KindModelUnavailable with the
// model path in the message.
func (c *HTTPClient) ResolveVersion(ctx context.Context, owner, name string) (string, error) {
	if owner == "" || name == "" {
		return "", ErrModelRequired
	}

	url := fmt.Sprintf("%s/models/%s/%s", c.baseURL, owner, name)

	var resp modelResponse
	if err := c.doWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Kind == KindNotFound {
			return "", &APIError{
				Kind:       KindModelUnavailable,
				StatusCode: apiErr.StatusCode,
				Message:    fmt.Sprintf("model %s/%s is not available", owner, name),
			}
		}
		return "", err
	}

	if resp.LatestVersion.ID == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrNoVersion, owner, name)
	}

	return resp.LatestVersion.ID, nil
}

// CreatePrediction submits a new prediction and returns its initial state.
func (c *HTTPClient) CreatePrediction(ctx context.Context, version string, input any) (*Prediction, error) {
	body, err := json.Marshal(createRequest{Version: version, Input: input})
	if err != nil {
		return nil, fmt.Errorf("replicate: marshal input: %w", err)
	}

	url := c.baseURL + "/predictions"

	var pred Prediction
	if err := c.doWithRetry(ctx, http.MethodPost, url, body, &pred); err != nil {
		return nil, err
	}

	if pred.ID == "" {
		return nil, ErrNoPredictionID
	}

	return &pred, nil
}

// GetPrediction re-reads the current state of a prediction.
func (c *HTTPClient) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	if id == "" {
		return nil, ErrPredictionIDRequired
	}

	url := fmt.Sprintf("%s/predictions/%s", c.baseURL, id)

	var pred Prediction
	if err := c.doWithRetry(ctx, http.MethodGet, url, nil, &pred); err != nil {
		return nil, err
	}

	return &pred, nil
}

// CancelPrediction asks the provider to stop a running prediction.
// This is an explicit operation; nothing in the service cancels
// provider-side work automatically.
func (c *HTTPClient) CancelPrediction(ctx context.Context, id string) (*Prediction, error) {
	if id == "" {
		return nil, ErrPredictionIDRequired
	}

	url := fmt.Sprintf("%s/predictions/%s/cancel", c.baseURL, id)

	var pred Prediction
	if err := c.doWithRetry(ctx, http.MethodPost, url, nil, &pred); err != nil {
		return nil, err
	}

	return &pred, nil
}

// doWithRetry performs an HTTP request, retrying transient failures with a
// linearly increasing delay.
func (c *HTTPClient) doWithRetry(ctx context.Context, method, url string, body []byte, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("replicate: context cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		err := c.do(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("replicate: retries exhausted: %w", lastErr)
}

// do performs a single HTTP request and classifies any failure.
func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("replicate: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transientError(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transientError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody apiErrorBody
		_ = json.Unmarshal(respBody, &errBody)
		if errBody.message() == "" {
			errBody.Error = string(respBody)
		}
		return classify(resp.StatusCode, errBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("replicate: unmarshal response: %w", err)
		}
	}

	return nil
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
