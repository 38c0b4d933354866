package middleware

import (
	"context"
	"net/http"
	"strings"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const AuthCookie = "auth_token"

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, error)
}

// NewJWTMiddleware accepts the session token either as a Bearer
// Authorization header or as the auth_token cookie. The account is loaded
// on every request so deleted accounts are rejected right away
func NewJWTMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := RequestID(c)

		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(AuthCookie)
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No authorization token provided",
				"requestID": requestID,
			})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			e := apperr.As(err)
			if e.Kind == apperr.KindInternal {
				zap.L().Error("Failed to authenticate request", zap.Error(err), zap.String("requestID", requestID))
			}

			c.AbortWithStatusJSON(e.Status(), gin.H{
				"error":     e.Message,
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// CurrentUser returns the account loaded by the JWT middleware
func CurrentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
