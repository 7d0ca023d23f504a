package beauty

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBeautifySendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/beautify", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		f, header, err := r.FormFile("image")
		if assert.NoError(t, err) {
			data, _ := io.ReadAll(f)
			assert.Equal(t, []byte("payload"), data)
			assert.Equal(t, "face.jpg", header.Filename)
		}
		_, _ = w.Write([]byte(`{"success": true, "imageUrl": "https://cdn.example/out.png"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}).Beautify(context.Background(), []byte("payload"), "face.jpg")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://cdn.example/out.png", resp.ImageURL)
}

func TestBeautifyErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantAPI   bool
		wantField any
	}{
		{"server error", http.StatusInternalServerError, "upstream down", true, "upstream down"},
		{"json error body", http.StatusPaymentRequired, `{"error":"no credits"}`, true, map[string]any{"error": "no credits"}},
		{"missing url", http.StatusOK, `{"success": true}`, false, nil},
		{"not success", http.StatusOK, `{"success": false, "imageUrl": "x"}`, false, nil},
		{"not json", http.StatusOK, `oops`, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Beautify(context.Background(), []byte("x"), "")
			require.Error(t, err)

			if tt.wantAPI {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Equal(t, tt.wantField, apiErr.Details)
			} else {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			}
		})
	}
}

func TestEnhance(t *testing.T) {
	result := pngBytes(t, 8, 6, color.NRGBA{200, 180, 170, 255})

	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/beautify", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "imageUrl": "` + base + `/result.png"}`))
	})
	mux.HandleFunc("/result.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(result)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	out, err := NewClient(Config{BaseURL: srv.URL}).Enhance(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), out.Bounds())

	r, g, b, _ := out.At(3, 3).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(180), g>>8)
	assert.Equal(t, uint32(170), b>>8)
}

func TestCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/credits", r.URL.Path)
		_, _ = w.Write([]byte(`{"credits": 42}`))
	}))
	defer srv.Close()

	credits, err := NewClient(Config{BaseURL: srv.URL}).Credits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.0, credits["credits"])
}
