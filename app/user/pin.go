package user

import (
	"net/http"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type validatePinBody struct {
	Pin         string `json:"pin"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// PinValidate consumes a code sent to an email or phone number. When an
// account owns that reference a session is started for it
func PinValidate(c *gin.Context, d *internal.Deps) {
	var data validatePinBody
	if !reply.Bind(c, &data) {
		return
	}

	ref := data.Email
	if data.PhoneNumber != "" {
		ref = data.PhoneNumber
	}

	u, err := d.Pins.Validate(c.Request.Context(), data.Pin, ref, nil)
	if err != nil {
		reply.Error(c, err)
		return
	}

	if u == nil {
		c.JSON(http.StatusAccepted, gin.H{
			"data": true,
		})
		return
	}

	sess, err := d.Accounts.StartSession(u)
	if err != nil {
		reply.Error(c, err)
		return
	}

	setSessionCookie(c, sess)
	c.JSON(http.StatusAccepted, gin.H{
		"data": sess,
	})
}

type changeEmailBody struct {
	Email string `json:"email"`
}

func UserChangeEmail(c *gin.Context, d *internal.Deps) {
	var data changeEmailBody
	if !reply.Bind(c, &data) {
		return
	}

	if err := d.Accounts.RequestEmailChange(c.Request.Context(), middleware.CurrentUser(c), data.Email); err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Pin sent to the new email",
		"requestID": middleware.RequestID(c),
	})
}

type validateEmailPinBody struct {
	Pin   string `json:"pin"`
	Email string `json:"email"`
}

func PinValidateEmail(c *gin.Context, d *internal.Deps) {
	var data validateEmailPinBody
	if !reply.Bind(c, &data) {
		return
	}

	u, err := d.Pins.Validate(c.Request.Context(), data.Pin, data.Email, middleware.CurrentUser(c))
	if err != nil {
		reply.Error(c, err)
		return
	}

	if u == nil {
		c.JSON(http.StatusAccepted, gin.H{
			"data": true,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"data": u,
	})
}
