// Package httpapi exposes the knowledge base and the chat assistant over
// HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb"
)

// Chatter answers chat requests.
type Chatter interface {
	Ask(ctx context.Context, req blogkb.ChatRequest) (*blogkb.Answer, error)
	AskStream(ctx context.Context, req blogkb.ChatRequest, onDelta func(string) error) (*blogkb.Answer, error)
}

// Server serves the HTTP API.
type Server struct {
	chat     Chatter
	artifact *artifactCache
	logger   *zap.Logger
	router   *gin.Engine
}

// New builds the router. artifactPath is the knowledge-base file served by
// GET /api/kb.
func New(chat Chatter, artifactPath string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{chat: chat, artifact: &artifactCache{path: artifactPath}, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger, corsMiddleware)

	api := router.Group("/api")
	api.GET("/kb", s.handleKnowledgeBase)
	api.POST("/chat", s.handleChat)
	api.POST("/chat/stream", s.handleChatStream)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
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
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)))
}

func corsMiddleware(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
