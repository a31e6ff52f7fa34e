package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows the chat widget to call the API from another origin
func CORS(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Router bundles the handlers mounted by NewRouter
type Router struct {
	AllowOrigin   string
	Chat          *ChatHandler
	Conversations *ConversationHandler
	Lessons       *LessonHandler
}

// NewRouter builds the gin engine with every route registered
func NewRouter(rt Router) *gin.Engine {
	r := gin.Default()
	r.Use(CORS(rt.AllowOrigin))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		// Chat proxy; every method is routed so the handler can answer 405
		api.Any("/chat", rt.Chat.Chat)

		if rt.Conversations != nil {
			api.POST("/conversations", rt.Conversations.CreateConversation)
			api.GET("/conversations/:id", rt.Conversations.GetConversation)
			api.POST("/conversations/:id/messages", rt.Conversations.SendMessage)
			api.DELETE("/conversations/:id", rt.Conversations.DeleteConversation)
		}

		if rt.Lessons != nil {
			api.GET("/lessons", rt.Lessons.ListLessons)
			api.GET("/lessons/:id/document", rt.Lessons.GetDocument)
		}
	}

	return r
}
