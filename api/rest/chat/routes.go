package chat

import (
	"github.com/gin-gonic/gin"

	chatcore "codeberg.org/tutoria/server/internal/chat"
)

func RegisterRoutes(router *gin.RouterGroup, chatService *chatcore.Service) {
	chatGroup := router.Group("/chat")
	{
		chatGroup.POST("/messages", CreateMessageHandler(chatService))
		chatGroup.GET("/history", HistoryHandler(chatService))
		chatGroup.DELETE("/sessions/:id", DeleteSessionHandler(chatService))
	}
}
