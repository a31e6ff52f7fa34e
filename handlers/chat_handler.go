package handlers

import (
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"trafficsafe-backend/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the chat proxy endpoint. Its wire format is the plain
// {"text"} / {"error"} pair the chat widget expects.
type ChatHandler struct {
	proxy *service.ChatProxyService
}

// NewChatHandler creates a new chat proxy handler
func NewChatHandler(proxy *service.ChatProxyService) *ChatHandler {
	return &ChatHandler{proxy: proxy}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	// Rate limiting happens before the body is read
	if err := h.proxy.Admit(ClientAddress(c.Request)); err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": service.ErrRateLimited.Error()})
		return
	}

	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrEmptyPrompt.Error()})
		return
	}

	text, err := h.proxy.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		if !errors.Is(err, service.ErrMissingCredentials) {
			log.Printf("Error: chat proxy failed: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// ClientAddress returns the address used as the rate-limit key: the first
// X-Forwarded-For entry, else the connection's remote host
func ClientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return service.UnknownClientAddress
}
