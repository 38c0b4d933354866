// Package reply writes the JSON error responses shared by every handler
package reply

import (
	"net/http"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error answers with the status matching the error kind. Internal errors
// are logged and their cause is never sent to the client
func Error(c *gin.Context, err error) {
	requestID := middleware.RequestID(c)
	e := apperr.As(err)

	if e.Kind == apperr.KindInternal {
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	} else {
		zap.L().Debug("Request rejected", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(e.Status(), gin.H{
		"error":     e.Message,
		"requestID": requestID,
	})
}

// Bind decodes the JSON body into v. On failure the response is already
// written and false is returned
func Bind(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}

	requestID := middleware.RequestID(c)

	if middleware.IsBodyTooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":     "Request body size exceeds limit",
			"requestID": requestID,
		})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
	return false
}
