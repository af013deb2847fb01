package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb"
	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
)

const (
	cacheKnowledgeBase = "public, max-age=300, stale-while-revalidate=600"
	kbMissingHint      = "Knowledge base not found. Please run: blogkb update-kb"
)

func (s *Server) handleKnowledgeBase(c *gin.Context) {
	data, err := s.artifact.load()
	if errors.Is(err, internalerr.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": kbMissingHint})
		return
	}
	if err != nil {
		s.logger.Error("read knowledge base", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch knowledge base"})
		return
	}

	if c.Query("refresh") == "true" {
		c.Header("Cache-Control", "no-cache")
	} else {
		c.Header("Cache-Control", cacheKnowledgeBase)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleChat(c *gin.Context) {
	req, ok := bindChat(c)
	if !ok {
		return
	}

	answer, err := s.chat.Ask(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// handleChatStream sends the reply as server-sent events: one
// `data:{"text": ...}` frame per delta and a closing `data:[DONE]`.
func (s *Server) handleChatStream(c *gin.Context) {
	req, ok := bindChat(c)
	if !ok {
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		h := c.Writer.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		c.Status(http.StatusOK)
	}

	_, err := s.chat.AskStream(c.Request.Context(), req, func(delta string) error {
		start()
		return writeEvent(c, gin.H{"text": delta})
	})
	if err != nil {
		if !started {
			s.writeError(c, err)
			return
		}
		s.logger.Warn("chat stream aborted", zap.Error(err))
		_ = writeEvent(c, gin.H{"error": errorMessage(err)})
		return
	}

	start()
	_ = writeEvent(c, "[DONE]")
}

// writeEvent emits an unnamed event, so the frame carries only a data line.
// A closed client connection surfaces through the request context.
func writeEvent(c *gin.Context, payload any) error {
	c.SSEvent("", payload)
	c.Writer.Flush()
	return c.Request.Context().Err()
}

func bindChat(c *gin.Context) (blogkb.ChatRequest, bool) {
	var req blogkb.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return req, false
	}
	return req, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("chat failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": errorMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrQueryFailed), errors.Is(err, internalerr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, internalerr.ErrLLMUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		return "Message is required"
	case errors.Is(err, internalerr.ErrQueryFailed):
		return internalerr.ErrQueryFailed.Error()
	default:
		return "Failed to process your question. Please try again."
	}
}
