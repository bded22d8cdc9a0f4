package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"annbench/internal/adapter"
	pkgerrors "annbench/pkg/errors"
	"annbench/pkg/logger"
)

// Go client for a remote adapter served by `annbench serve`.
//
// Client implements adapter.ANN, so the benchmark runner drives a remote index
// exactly like a local one. Errors returned by the server keep their kind:
// errors.Is(err, pkgerrors.ErrInvalidState) holds for a 409 reply.
//
// Example usage:
//  c := client.NewClient("http://localhost:8080")
//  err := c.Create(adapter.Definition{Algorithm: "hnsw", ...})
//  err = c.Fit(train)

var _ adapter.ANN = (*Client)(nil)

// Client is an HTTP client for a single remote adapter.
type Client struct {
	BaseURL string
	Client  *http.Client

	// last known display name, returned by String when the server is unreachable
	name string
}

// APIError represents an error returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("annbench server: %d %s", e.StatusCode, e.Message)
}

// Unwrap returns the sentinel named by Code, if any.
func (e *APIError) Unwrap() error {
	return pkgerrors.FromCode(e.Code)
}

// NewClient creates a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// request sends an HTTP request and decodes the JSON reply into out when out is non-nil.
func (c *Client) request(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
		}
		return apiErr
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// HealthCheck reports whether the server answers.
func (c *Client) HealthCheck() (bool, error) {
	var result map[string]any
	if err := c.request(http.MethodGet, "/", nil, &result); err != nil {
		return false, err
	}
	return result["status"] == "ok", nil
}

// Create constructs the remote adapter, replacing any previous one.
func (c *Client) Create(def adapter.Definition) error {
	payload := map[string]any{
		"algorithm":  def.Algorithm,
		"metric":     def.Metric,
		"precision":  def.Precision,
		"parameters": def.Parameters,
	}
	var result struct {
		Name string `json:"name"`
	}
	if err := c.request(http.MethodPost, "/v1/index", payload, &result); err != nil {
		return err
	}
	c.name = result.Name
	return nil
}

func (c *Client) Fit(vectors [][]float32) error {
	return c.request(http.MethodPost, "/v1/index/fit", map[string]any{"vectors": vectors}, nil)
}

func (c *Client) SetQueryArguments(ef int) error {
	return c.request(http.MethodPut, "/v1/index/query-args", map[string]any{"ef": ef}, nil)
}

func (c *Client) Query(vector []float32, n int) ([]int64, error) {
	var result struct {
		Labels []int64 `json:"labels"`
	}
	payload := map[string]any{"vector": vector, "n": n}
	if err := c.request(http.MethodPost, "/v1/index/query", payload, &result); err != nil {
		return nil, err
	}
	return result.Labels, nil
}

func (c *Client) BatchQuery(vectors [][]float32, n int) error {
	payload := map[string]any{"vectors": vectors, "n": n}
	return c.request(http.MethodPost, "/v1/index/batch-query", payload, nil)
}

func (c *Client) GetBatchResults() ([][]int64, error) {
	var result struct {
		Results [][]int64 `json:"results"`
	}
	if err := c.request(http.MethodGet, "/v1/index/batch-results", nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// MemoryUsage returns 0 when the server cannot be reached.
func (c *Client) MemoryUsage() float64 {
	var result struct {
		KiB float64 `json:"kib"`
	}
	if err := c.request(http.MethodGet, "/v1/index/memory", nil, &result); err != nil {
		logger.Warn("Failed to read remote memory usage", "url", c.BaseURL, "error", err)
		return 0
	}
	return result.KiB
}

func (c *Client) Free() {
	if err := c.request(http.MethodDelete, "/v1/index", nil, nil); err != nil {
		logger.Warn("Failed to free remote index", "url", c.BaseURL, "error", err)
	}
}

func (c *Client) String() string {
	var result struct {
		Name string `json:"name"`
	}
	if err := c.request(http.MethodGet, "/v1/index", nil, &result); err == nil {
		c.name = result.Name
	}
	return c.name
}

// Remote returns a bench factory that constructs each definition on the server at baseURL.
func Remote(baseURL string) func(adapter.Definition) (adapter.ANN, error) {
	return func(def adapter.Definition) (adapter.ANN, error) {
		c := NewClient(baseURL)
		if err := c.Create(def); err != nil {
			return nil, err
		}
		return c, nil
	}
}
