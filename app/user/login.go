package user

import (
	"net/http"
	"time"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/internal/service"
	"bitwise74/contacts-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	// Email or username
	Username string `json:"username"`
	Password string `json:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if !reply.Bind(c, &data) {
		return
	}

	sess, err := d.Accounts.Login(c.Request.Context(), data.Username, data.Password)
	if err != nil {
		reply.Error(c, err)
		return
	}

	setSessionCookie(c, sess)
	c.JSON(http.StatusOK, sess)
}

// setSessionCookie mirrors the token into an http-only cookie for
// browser clients. Mobile clients use the token from the body
func setSessionCookie(c *gin.Context, sess *service.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	secure := c.Request.TLS != nil

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, sess.Token, maxAge, "/", "", secure, true)
}
