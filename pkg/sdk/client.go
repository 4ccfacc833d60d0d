package rerankd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client is the rerankd API client.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a rerankd client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o.apply(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Rerank scores the documents against the query and returns them ranked
// by descending relevance.
func (c *Client) Rerank(ctx context.Context, req RerankRequest) (*RerankResponse, error) {
	var resp RerankResponse
	if err := c.do(ctx, http.MethodPost, "/rerank", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the service status payload.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp Status
	if err := c.do(ctx, http.MethodGet, "/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health fetches the aggregated health report.
// A degraded service returns the report together with ErrServiceUnavailable.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("rerankd: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerankd: GET /health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Degraded reports come back with 503 and a valid body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, parseErrorResponse(resp)
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("rerankd: decode response: %w", err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return &health, ErrServiceUnavailable
	}
	return &health, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rerankd: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("rerankd: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerankd: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("rerankd: decode response: %w", err)
		}
	}

	return nil
}

func parseErrorResponse(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("rerankd: read error response: %w", err)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
		return apiErr
	}

	apiErr.Code = "unknown"
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}
