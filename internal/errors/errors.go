package errors

import (
	"net/http"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.ChatError() for anything coming out of the chat service
//   - Use errors.InternalError(), errors.BadRequest(), etc. for the rest
//     These functions handle both logging and HTTP response automatically
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For the websocket relay:
//   - Log, send an error frame, then close the connection
//
// For services/stores/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//     or a *chaterr.Error when the caller has to branch on the kind
//   - Do not log errors in non-handler code (avoid double logging)

// standard error codes
const (
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeValidationError = "validation_error"
	CodeServerError     = "server_error"
	CodeBadRequest      = "bad_request"
	CodeTooManyRequests = "too_many_requests"
)

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// returns a 403 forbidden error
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "permission denied"
	}

	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:   CodeForbidden,
		Message: message,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	if err != nil {
		response.Details = sanitizeError(err)
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 400 bad request error for binding failures
func ValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidationError,
		Message: "request validation failed",
		Details: sanitizeError(err),
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	logger.ErrorErr(err, message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"user_id", c.GetString("user_id"),
	)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: sanitizeError(err),
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

var chatStatus = map[chaterr.Kind]int{
	chaterr.SessionNotReady:       http.StatusServiceUnavailable,
	chaterr.BackendUnconfigured:   http.StatusServiceUnavailable,
	chaterr.EmptyOrInvalidMessage: http.StatusBadRequest,
	chaterr.MessageTooLong:        http.StatusBadRequest,
	chaterr.InsufficientCredits:   http.StatusPaymentRequired,
	chaterr.LicenseNotAllowed:     http.StatusForbidden,
	chaterr.StreamConnectFailure:  http.StatusBadGateway,
	chaterr.StreamInterrupted:     http.StatusBadGateway,
	chaterr.HistoryFetchFailure:   http.StatusBadGateway,
	chaterr.UnknownError:          http.StatusBadGateway,
}

// HTTP status for a chat error kind
func ChatStatus(kind chaterr.Kind) int {
	if status, ok := chatStatus[kind]; ok {
		return status
	}

	return http.StatusBadGateway
}

// responds with the code and status of a chat error; the config link is
// only set by the service for admins
func ChatError(c *gin.Context, err error) {
	chatErr := chaterr.From(err)
	status := ChatStatus(chatErr.Kind)

	if status >= http.StatusInternalServerError {
		logger.Warn("chat request failed",
			"path", c.Request.URL.Path,
			"kind", chatErr.Kind,
			"user_id", c.GetString("user_id"),
			"error", err,
		)
	}

	response := ErrorResponse{
		Error:     chatErr.Kind.Code(),
		Message:   chatErr.Message(),
		ConfigURL: chatErr.ConfigURL,
	}

	// validation kinds carry no useful detail
	if status >= http.StatusInternalServerError || status == http.StatusPaymentRequired || status == http.StatusForbidden {
		if chatErr.Err != nil {
			response.Details = sanitizeError(chatErr.Err)
		} else if chatErr.Detail != "" {
			response.Details = sanitizeDetail(chatErr.Detail)
		}
	}

	c.JSON(status, response)
}

// sanitizes error messages for production
func sanitizeError(err error) string {
	return classifyError(err).sanitized
}
