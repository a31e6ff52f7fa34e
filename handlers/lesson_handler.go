package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strconv"

	"trafficsafe-backend/models"
	"trafficsafe-backend/storage"

	"github.com/gin-gonic/gin"
)

// LessonHandler serves the lesson catalog and the lesson documents
type LessonHandler struct {
	lessons []models.Lesson
	storage storage.Storage
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessons []models.Lesson, store storage.Storage) *LessonHandler {
	return &LessonHandler{
		lessons: lessons,
		storage: store,
	}
}

// ListLessons handles GET /api/lessons
func (h *LessonHandler) ListLessons(c *gin.Context) {
	respondOK(c, http.StatusOK, h.lessons)
}

// GetDocument handles GET /api/lessons/:id/document
func (h *LessonHandler) GetDocument(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid lesson ID format")
		return
	}

	if !h.hasLesson(id) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Lesson not found")
		return
	}

	doc := storage.LessonDocumentFor(id)
	reader, err := h.storage.Download(c.Request.Context(), doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Lesson document not found")
			return
		}
		log.Printf("Error: failed to download %s: %v", doc.StoragePath, err)
		respondError(c, http.StatusBadGateway, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to download file: %v", err))
		return
	}
	defer reader.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename})
	c.DataFromReader(http.StatusOK, -1, doc.MimeType, reader, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *LessonHandler) hasLesson(id int) bool {
	for _, l := range h.lessons {
		if l.ID == id {
			return true
		}
	}
	return false
}
