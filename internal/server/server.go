// Package server exposes analysis, composition, quiz scoring and the
// beautification proxy routes over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/skin-analyzer/internal/config"
	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/analyzer"
	"github.com/menta2k/skin-analyzer/pkg/beauty"
	"github.com/menta2k/skin-analyzer/pkg/compositor"
	"github.com/menta2k/skin-analyzer/pkg/processing"
)

// BeautyAPI is the subset of the beautification client the proxy routes need
type BeautyAPI interface {
	Beautify(ctx context.Context, data []byte, filename string) (*beauty.Response, error)
	Credits(ctx context.Context) (map[string]any, error)
}

// Deps are the services behind the routes
type Deps struct {
	Analyzer   *analyzer.SkinAnalyzer
	Compositor *compositor.Compositor
	// Beauty may be nil; the proxy routes then answer 503
	Beauty BeautyAPI
}

// Server is the gin HTTP server
type Server struct {
	config    config.ServerConfig
	deps      Deps
	engine    *gin.Engine
	processor *processing.Processor
}

// New builds the router
func New(cfg config.ServerConfig, deps Deps) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analyzer.New()
	}
	if deps.Compositor == nil {
		deps.Compositor = compositor.New(nil)
	}

	s := &Server{
		config:    cfg,
		deps:      deps,
		processor: processing.NewProcessor(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	origins := s.config.AllowedOrigins
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	engine.Use(cors.New(corsConfig))
	engine.MaxMultipartMemory = int64(s.config.MaxUploadMB) << 20

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := engine.Group("/api")
	api.Use(bodyLimit(int64(s.config.MaxUploadMB) << 20))
	{
		api.POST("/analyze", s.analyze)
		api.POST("/compose", s.compose)
		api.POST("/quiz", s.quiz)
		api.POST("/beauty-filter", s.beautyFilter)
		api.GET("/credits", s.credits)
	}

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, fmt.Sprintf("%s %s does not exist", c.Request.Method, c.Request.URL.Path), nil)
	})
	return engine
}

// Run serves on the configured port until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Component("server").Infof("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	log := logging.Component("server")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}

// writeError renders the {error, details} envelope
func writeError(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": details})
}
