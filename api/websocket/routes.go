package websocket

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/stream"
)

func RegisterRoutes(router *gin.RouterGroup, chatService *chat.Service, opener stream.Opener, checkOrigin OriginCheck) {
	router.GET("/chat/sessions/:id/ws", RelayHandler(chatService, opener, checkOrigin))
}
