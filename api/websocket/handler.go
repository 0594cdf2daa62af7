package websocket

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/tutoria/server/internal/auth"
	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/errors"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/stream"
	ws "codeberg.org/tutoria/server/internal/websocket"
)

type OriginCheck func(r *http.Request) bool

// RelayHandler godoc
// @Summary Relay a reply stream over websocket
// @Description Opens the backend push stream for a session and forwards each event as a JSON frame {event, data, reason}. The connection closes after the reply completes.
// @Tags chat
// @Param id path string true "Session ID"
// @Param course_id query int true "Course ID"
// @Param token query string false "JWT, for clients that cannot set headers"
// @Success 101 {object} ws.Frame
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id}/ws [get]
func RelayHandler(chatService *chat.Service, opener stream.Opener, checkOrigin OriginCheck) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(c *gin.Context) {
		var params RelayParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		sessionID := c.Param("id")
		ctx := c.Request.Context()

		streamURL, err := chatService.StreamURL(ctx, params.CourseID, sessionID)
		if err != nil {
			switch {
			case stderrors.Is(err, chat.ErrUnknownSession):
				errors.NotFound(c, "session")
			case stderrors.Is(err, chat.ErrNotCourseContext):
				errors.BadRequest(c, err.Error(), nil)
			default:
				errors.ChatError(c, err)
			}
			return
		}

		// open upstream first so failures still get an HTTP answer
		upstream, err := opener.Open(ctx, streamURL)
		if err != nil {
			errors.ChatError(c, chaterr.Wrap(chaterr.StreamConnectFailure, err))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			upstream.Close() //nolint:errcheck,gosec // G104: upgrade failed
			logger.ErrorErr(err, "failed to upgrade connection",
				"session_id", sessionID,
				"ip", c.ClientIP(),
			)
			return
		}

		relay := ws.NewRelay(conn, upstream, sessionID)
		userID, _ := auth.GetUserID(c)

		logger.Debug("stream relay opened",
			"relay_id", relay.ID,
			"session_id", sessionID,
			"user_id", userID,
		)

		if err := relay.Run(ctx); err != nil && !stderrors.Is(err, ws.ErrPeerGone) {
			logger.Warn("stream relay ended with error",
				"relay_id", relay.ID,
				"session_id", sessionID,
				"error", err,
			)
		}
	}
}
