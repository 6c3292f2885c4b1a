package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/response"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
	"github.com/jrjohn/arcana-commerce-go/pkg/logger"
)

// GenericErrorMessage replaces server error details in production.
const GenericErrorMessage = "something went wrong, please try again later"

// ErrorHandler renders the last error recorded on the context. Client errors
// become fail envelopes with the error details, everything else an error
// envelope. Handlers that already wrote a response are left alone. Server
// errors are logged through the request scoped logger when there is one.
func ErrorHandler(base *zap.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if errors.Is(err, dao.ErrUnavailable) {
			err = apperrors.Wrap(err, apperrors.ErrServiceUnavailable)
		}
		if appErr, ok := apperrors.As(err); ok && appErr.IsClientError() {
			details := appErr.Details
			if details == nil {
				details = response.Message{Message: appErr.Message}
			}
			response.Write(c, appErr.Status, response.Fail(details))
			return
		}

		status := apperrors.GetStatus(err)
		logger.FromContext(c.Request.Context(), base).Error("Request failed",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)

		message := err.Error()
		if production {
			message = GenericErrorMessage
		}
		response.Write(c, status, response.Error(message))
	}
}

// NoRoute answers unknown paths with a 404 fail envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Write(c, 404, response.Fail(gin.H{
			"message": "404 Not Found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		}))
	}
}

// NoMethod answers known paths hit with an unsupported method.
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Write(c, 405, response.Fail(gin.H{
			"message": "method not allowed",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		}))
	}
}
