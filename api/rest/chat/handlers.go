package chat

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/tutoria/server/api/rest/pagination"
	chatcore "codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/errors"
	"codeberg.org/tutoria/server/internal/history"
)

// CreateMessageHandler godoc
// @Summary Send a chat message
// @Description Validates the message, opens or reuses the course session and forwards the message to the tutor backend. The reply is read from stream_url.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body chatcore.MessageRequest true "Message"
// @Success 200 {object} chatcore.MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 402 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/messages [post]
func CreateMessageHandler(chatService *chatcore.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatcore.MessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		resp, err := chatService.CreateMessage(c.Request.Context(), req)
		if err != nil {
			serviceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// HistoryHandler godoc
// @Summary Get chat history
// @Description Returns one page of the course session history, newest first
// @Tags chat
// @Produce json
// @Param course_id query int true "Course ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Messages to skip"
// @Success 200 {object} chatcore.HistoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/history [get]
func HistoryHandler(chatService *chatcore.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query CourseQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			errors.ValidationError(c, err)
			return
		}

		params, err := pagination.FromQuery(c, history.DefaultLimit, history.MaxLimit)
		if err != nil {
			errors.BadRequest(c, "invalid pagination parameters", err)
			return
		}

		resp, err := chatService.History(c.Request.Context(), chatcore.HistoryRequest{
			CourseID: query.CourseID,
			Limit:    params.Limit,
			Offset:   params.Offset,
		})
		if err != nil {
			serviceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// DeleteSessionHandler godoc
// @Summary Delete a chat session
// @Description Deletes the caller's course session and forgets the cached one. Backend failures are reported as deleted=false.
// @Tags chat
// @Produce json
// @Param id path string true "Session ID"
// @Param course_id query int true "Course ID"
// @Success 200 {object} chatcore.DeleteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id} [delete]
func DeleteSessionHandler(chatService *chatcore.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query CourseQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			errors.ValidationError(c, err)
			return
		}

		resp, err := chatService.DeleteSession(c.Request.Context(), chatcore.DeleteRequest{
			CourseID:  query.CourseID,
			SessionID: c.Param("id"),
		})
		if err != nil {
			serviceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func serviceError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, chatcore.ErrUnknownSession):
		errors.NotFound(c, "session")
	case stderrors.Is(err, chatcore.ErrNotCourseContext):
		errors.BadRequest(c, err.Error(), nil)
	default:
		errors.ChatError(c, err)
	}
}
