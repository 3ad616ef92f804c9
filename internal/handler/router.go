package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/middleware"
)

type RouterDeps struct {
	Sessions     *SessionHandler
	Documents    *DocumentHandler
	Chat         *ChatHandler
	Model        *ModelHandler
	JWTSecret    []byte
	AskPerMinute int
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/sessions", deps.Sessions.Create)
	api.GET("/model/status", deps.Model.Status)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.DELETE("/sessions", deps.Sessions.Delete)

	authGroup.POST("/documents", deps.Documents.Upload)
	authGroup.GET("/documents/stats", deps.Documents.Stats)

	authGroup.POST("/chat/ask", middleware.RateLimit(deps.AskPerMinute, time.Minute), deps.Chat.Ask)
	authGroup.GET("/chat/history", deps.Chat.History)
	authGroup.DELETE("/chat/history", deps.Chat.ResetHistory)
}
