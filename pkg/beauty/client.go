// Package beauty is the client for the remote beautification API.
package beauty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/skin-analyzer/pkg/processing"
)

// ErrMalformedResponse is returned for 2xx answers without success and an image URL
var ErrMalformedResponse = errors.New("beauty: malformed response")

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
	Details    any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("beauty api returned status %d: %s", e.StatusCode, e.Message)
}

// Config holds the configuration for the beautification client
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout of zero leaves the deadline to the caller's context
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{BaseURL: "http://localhost:8091"}
}

// Response is the beautification answer
type Response struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// Client talks to the beautification API
type Client struct {
	httpClient *http.Client
	config     Config
	processor  *processing.Processor
}

// NewClient creates a new beautification client
func NewClient(config Config) *Client {
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		processor:  processing.NewProcessor(),
	}
}

// Beautify uploads image bytes as the multipart "image" field. Single attempt.
func (c *Client) Beautify(ctx context.Context, data []byte, filename string) (*Response, error) {
	if filename == "" {
		filename = "image.png"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/beautify", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp Response
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.ImageURL == "" {
		return nil, ErrMalformedResponse
	}
	return &resp, nil
}

// Credits fetches the account credit balance as raw JSON
func (c *Client) Credits(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/credits", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out map[string]any
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrMalformedResponse
	}
	return out, nil
}

// Enhance beautifies img and returns the decoded result
func (c *Client) Enhance(ctx context.Context, img image.Image) (image.Image, error) {
	data, err := c.processor.Encode(img, "png", 0)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	resp, err := c.Beautify(ctx, data, "image.png")
	if err != nil {
		return nil, err
	}

	enhanced, err := c.processor.FetchURL(ctx, resp.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch enhanced image: %w", err)
	}
	out, err := c.processor.DecodeImage(enhanced)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

func (c *Client) do(req *http.Request, result any) error {
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Details:    details(body),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// details keeps a JSON error body structured and falls back to the raw text
func details(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(body))
}
