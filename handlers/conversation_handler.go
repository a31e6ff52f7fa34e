package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"trafficsafe-backend/catalog"
	"trafficsafe-backend/models"
	"trafficsafe-backend/repository"
	"trafficsafe-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConversationHandler handles the chat widget conversation API
type ConversationHandler struct {
	store    *repository.ConversationRepository
	resolver *service.IntentResolver
	catalog  *catalog.Catalog
	now      func() time.Time
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(store *repository.ConversationRepository, resolver *service.IntentResolver, cat *catalog.Catalog) *ConversationHandler {
	return &ConversationHandler{
		store:    store,
		resolver: resolver,
		catalog:  cat,
		now:      time.Now,
	}
}

// CreateConversationRequest represents the request body for opening a conversation
type CreateConversationRequest struct {
	Lang string `json:"lang"`
}

// SendMessageRequest represents the request body for one user turn
type SendMessageRequest struct {
	Text string `json:"text"`
}

// CreateConversation handles POST /api/conversations
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	lang := strings.ToLower(strings.TrimSpace(req.Lang))
	if _, ok := h.catalog.Welcome[lang]; !ok {
		lang = catalog.DefaultLang
	}

	conv := models.NewConversation(lang, h.now())
	h.resolver.Welcome(conv, h.catalog.WelcomeText(lang))
	h.store.Create(conv)

	respondOK(c, http.StatusCreated, conv)
}

// GetConversation handles GET /api/conversations/:id
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, ok := parseConversationID(c)
	if !ok {
		return
	}

	conv, err := h.store.Get(id)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		return
	}

	respondOK(c, http.StatusOK, conv)
}

// SendMessage handles POST /api/conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id, ok := parseConversationID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(c, http.StatusBadRequest, "EMPTY_MESSAGE", "Message text is required")
		return
	}

	conv, err := h.store.BeginTurn(id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTurnInProgress):
			respondError(c, http.StatusConflict, "TURN_IN_PROGRESS", err.Error())
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		}
		return
	}
	// Release the reservation if the turn never reaches Commit
	committed := false
	defer func() {
		if !committed {
			h.store.Abort(id)
		}
	}()

	// The in-process proxy call is rate limited under the caller's address
	ctx := service.WithClientAddress(c.Request.Context(), ClientAddress(c.Request))
	reply := h.resolver.Handle(ctx, conv, req.Text)

	err = h.store.Commit(conv)
	committed = true
	if err != nil {
		log.Printf("Warning: conversation %s removed during turn: %v", id, err)
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message":           reply,
		"pending_lesson_id": conv.PendingLessonID,
	})
}

// DeleteConversation handles DELETE /api/conversations/:id
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	id, ok := parseConversationID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(id); err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id})
}

func parseConversationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID format")
		return uuid.Nil, false
	}
	return id, true
}
