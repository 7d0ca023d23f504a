// Package remote is the client for the hosted skin-analysis API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// ErrInvalidResponse is returned when the API answers with a body that is not the expected JSON
var ErrInvalidResponse = errors.New("remote: invalid response")

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote returned status %d: %s: %s", e.StatusCode, e.Message, e.Details)
}

// Config holds the configuration for the remote client
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout of zero leaves the deadline to the caller's context
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8090",
	}
}

// Client is the HTTP client for the skin-analysis API
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new remote analysis client
func NewClient(config Config) *Client {
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// Analyze calls POST /analyze with a base64 image. Single attempt, no retry.
func (c *Client) Analyze(ctx context.Context, imageBase64 string) (*types.RemoteAnalysis, error) {
	body, err := json.Marshal(analyzeRequest{Image: imageBase64})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Details:    strings.TrimSpace(string(respBody)),
		}
	}

	var result types.RemoteAnalysis
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result.Failed() {
		return nil, fmt.Errorf("%w: success=false", ErrInvalidResponse)
	}
	return &result, nil
}
