package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/analyzer"
	"github.com/menta2k/skin-analyzer/pkg/beauty"
	"github.com/menta2k/skin-analyzer/pkg/compositor"
	"github.com/menta2k/skin-analyzer/pkg/persona"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

type analyzeResponse struct {
	ID     string                    `json:"id"`
	Result *types.SkinAnalysisResult `json:"result"`
}

type composeResponse struct {
	ID      string                    `json:"id"`
	Source  compositor.Source         `json:"source"`
	Result  *types.SkinAnalysisResult `json:"result"`
	Before  string                    `json:"before"`
	Overlay string                    `json:"overlay,omitempty"`
	After   string                    `json:"after"`
	Treated string                    `json:"treated,omitempty"`
	Product string                    `json:"product,omitempty"`
}

type encodeJob struct {
	dst *string
	img image.Image
}

// readUpload returns the bytes and filename of the multipart "image" field
func readUpload(c *gin.Context) ([]byte, string, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		writeError(c, http.StatusBadRequest, "missing image upload", err.Error())
		return nil, "", false
	}
	f, err := header.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "unreadable image upload", err.Error())
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "unreadable image upload", err.Error())
		return nil, "", false
	}
	return data, header.Filename, true
}

// analyze never fails on undecodable photos: the analyzer substitutes the canned result
func (s *Server) analyze(c *gin.Context) {
	data, _, ok := readUpload(c)
	if !ok {
		return
	}
	res := s.deps.Analyzer.AnalyzeSkin(c.Request.Context(), bytes.NewReader(data))
	c.JSON(http.StatusOK, analyzeResponse{ID: uuid.NewString(), Result: res})
}

func (s *Server) compose(c *gin.Context) {
	data, _, ok := readUpload(c)
	if !ok {
		return
	}

	markers := false
	if v := c.PostForm("markers"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "markers must be a boolean", v)
			return
		}
		markers = parsed
	}

	product := c.PostForm("product")
	var profile compositor.Profile
	if product != "" {
		p, ok := compositor.ProfileForProduct(product)
		if !ok {
			writeError(c, http.StatusBadRequest, "unknown product", product)
			return
		}
		profile = p
	}

	img, err := s.processor.DecodeImage(data)
	if err != nil {
		writeError(c, http.StatusBadRequest, "image could not be decoded", err.Error())
		return
	}

	ctx := c.Request.Context()
	res := s.deps.Analyzer.AnalyzeImage(ctx, img)
	landmarks := s.deps.Analyzer.Local().Landmarks(analyzer.Input{Image: img})

	comp, err := s.deps.Compositor.Compose(ctx, img, res, compositor.Options{ShowMarkers: markers, Landmarks: landmarks})
	if err != nil {
		writeError(c, http.StatusBadRequest, "composition failed", err.Error())
		return
	}

	resp := composeResponse{ID: comp.ID, Source: comp.Source, Result: res, Product: product}
	images := []encodeJob{
		{&resp.Before, comp.Before},
		{&resp.After, comp.After},
	}
	if comp.Overlay != nil {
		images = append(images, encodeJob{&resp.Overlay, comp.Overlay})
	}
	if profile != "" {
		treated := compositor.Treat(img, res.Problems, profile)
		compositor.Watermark(treated, compositor.DefaultWatermark)
		images = append(images, encodeJob{&resp.Treated, treated})
	}

	for _, it := range images {
		url, err := s.processor.DataURL(it.img, "png", 0)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "failed to encode image", err.Error())
			return
		}
		*it.dst = url
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) quiz(c *gin.Context) {
	var answers persona.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		writeError(c, http.StatusBadRequest, "invalid quiz payload", err.Error())
		return
	}

	res, err := persona.Score(answers)
	if err != nil {
		var verr *persona.ValidationError
		if errors.As(err, &verr) {
			writeError(c, http.StatusBadRequest, "invalid quiz answers", verr.Fields)
			return
		}
		writeError(c, http.StatusInternalServerError, "scoring failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) beautyFilter(c *gin.Context) {
	if s.deps.Beauty == nil {
		writeError(c, http.StatusServiceUnavailable, "beautification API is not configured", nil)
		return
	}
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	resp, err := s.deps.Beauty.Beautify(c.Request.Context(), data, filename)
	if err != nil {
		writeUpstreamError(c, "beautification failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) credits(c *gin.Context) {
	if s.deps.Beauty == nil {
		writeError(c, http.StatusServiceUnavailable, "beautification API is not configured", nil)
		return
	}
	credits, err := s.deps.Beauty.Credits(c.Request.Context())
	if err != nil {
		writeUpstreamError(c, "credit check failed", err)
		return
	}
	c.JSON(http.StatusOK, credits)
}

// writeUpstreamError passes an upstream status through; anything else is a 502
func writeUpstreamError(c *gin.Context, message string, err error) {
	logging.Component("server").WithError(err).Warn(message)

	var apiErr *beauty.APIError
	if errors.As(err, &apiErr) {
		writeError(c, apiErr.StatusCode, fmt.Sprintf("%s: %s", message, apiErr.Message), apiErr.Details)
		return
	}
	writeError(c, http.StatusBadGateway, message, err.Error())
}
