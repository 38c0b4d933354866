package user

import (
	"net/http"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func UserForgotPassword(c *gin.Context, d *internal.Deps) {
	if err := d.Accounts.ForgotPassword(c.Request.Context(), c.Query("criteria")); err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Recovery pin sent",
		"requestID": middleware.RequestID(c),
	})
}

type restorePasswordBody struct {
	Ref         string `json:"ref"`
	Pin         string `json:"pin"`
	NewPassword string `json:"newPassword"`
}

func UserRestorePassword(c *gin.Context, d *internal.Deps) {
	var data restorePasswordBody
	if !reply.Bind(c, &data) {
		return
	}

	err := d.Pins.RestoreForgotPassword(c.Request.Context(), data.Ref, data.NewPassword, data.Pin)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password restored",
		"requestID": middleware.RequestID(c),
	})
}
