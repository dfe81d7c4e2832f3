// Package vision provides clients for the part and damage perception
// models. Models are served either over HTTP or over NATS request-reply;
// both forms satisfy detect.Predictor.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/resilience"
)

// predictRequest is the HTTP inference request body. Images travel base64
// encoded inside JSON.
type predictRequest struct {
	Image string `json:"image"`
}

// predictResponse is the HTTP inference response: class label to probability.
type predictResponse struct {
	Probabilities map[string]float64 `json:"probabilities"`
}

// HTTPClient calls one perception model over HTTP. Outbound calls are rate
// limited and guarded by a circuit breaker so a struggling model server is
// backed off instead of hammered.
type HTTPClient struct {
	baseURL string
	path    string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithRateLimit overrides the outbound request rate.
func WithRateLimit(l *rate.Limiter) HTTPOption {
	return func(h *HTTPClient) { h.limiter = l }
}

// WithBreaker overrides the circuit breaker.
func WithBreaker(b *resilience.Breaker) HTTPOption {
	return func(h *HTTPClient) { h.breaker = b }
}

// NewHTTPClient creates a client for the model served at baseURL+path, e.g.
// NewHTTPClient("http://vision:8500", "/predict/parts").
func NewHTTPClient(baseURL, path string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		path:    path,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Predict implements detect.Predictor.
func (c *HTTPClient) Predict(ctx context.Context, image []byte) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var probs map[string]float64
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		probs, err = c.predict(ctx, image)
		return err
	})
	return probs, err
}

func (c *HTTPClient) predict(ctx context.Context, image []byte) (map[string]float64, error) {
	body, _ := json.Marshal(predictRequest{Image: base64.StdEncoding.EncodeToString(image)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision predict: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision predict: status %d", resp.StatusCode)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("vision predict decode: %w", err)
	}
	return result.Probabilities, nil
}
