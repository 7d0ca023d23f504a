package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "aGVsbG8=", req["image"])

		_, _ = w.Write([]byte(`{
			"success": true,
			"skin_type": "combination",
			"acne": [{"severity": 70, "confidence": 0.9, "rectangle": {"left": 320, "top": 240, "w": 64, "h": 48}}],
			"redness": [{}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
	res, err := c.Analyze(context.Background(), "aGVsbG8=")
	require.NoError(t, err)

	problems := res.Problems(640, 480)
	require.Len(t, problems, 2)

	acne := problems[0]
	assert.Equal(t, "acne", string(acne.Type))
	assert.Equal(t, 70.0, acne.Severity)
	assert.InDelta(t, 90.0, acne.Confidence, 1e-9)
	assert.InDelta(t, 50.0, acne.Location.X, 1e-9)
	assert.InDelta(t, 50.0, acne.Location.Y, 1e-9)
	assert.InDelta(t, 10.0, acne.Location.Width, 1e-9)
	assert.InDelta(t, 10.0, acne.Location.Height, 1e-9)

	redness := problems[1]
	assert.Equal(t, 50.0, redness.Severity)
	assert.Equal(t, 80.0, redness.Confidence)
	assert.True(t, redness.Location.Valid())
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantAPI bool
	}{
		{"server error", http.StatusInternalServerError, "boom", true},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, true},
		{"malformed", http.StatusOK, "<html>", false},
		{"explicit failure", http.StatusOK, `{"success": false}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Analyze(context.Background(), "x")
			require.Error(t, err)

			var apiErr *APIError
			if tt.wantAPI {
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Equal(t, tt.body, apiErr.Details)
			} else {
				assert.ErrorIs(t, err, ErrInvalidResponse)
			}
		})
	}
}

func TestAnalyzeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).Analyze(context.Background(), "x")
	assert.Error(t, err)
}
