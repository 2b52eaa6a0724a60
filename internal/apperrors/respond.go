package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Type    string                 `json:"type"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Respond writes err to the client. Unknown errors are logged and masked as 500.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	if appErr := GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Int("status", status),
				zap.Error(err),
			)
		} else {
			logger.Debug("request rejected",
				zap.String("path", c.FullPath()),
				zap.Int("status", status),
				zap.String("message", appErr.Message),
			)
		}
		c.AbortWithStatusJSON(status, ErrorResponse{
			Error:   appErr.Message,
			Type:    string(appErr.Type),
			Details: appErr.Details,
		})
		return
	}

	logger.Error("unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
		Type:  string(ErrorTypeInternal),
	})
}
