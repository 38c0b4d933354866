package user

import (
	"net/http"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/internal/service"
	"bitwise74/contacts-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func UserFetch(c *gin.Context, _ *internal.Deps) {
	c.JSON(http.StatusOK, gin.H{
		"user": middleware.CurrentUser(c),
	})
}

func UserUpdate(c *gin.Context, d *internal.Deps) {
	var data service.ProfileUpdate
	if !reply.Bind(c, &data) {
		return
	}

	u, err := d.Accounts.UpdateProfile(c.Request.Context(), c.GetString("userID"), data)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": u,
	})
}

func UserKYC(c *gin.Context, d *internal.Deps) {
	var data service.KYC
	if !reply.Bind(c, &data) {
		return
	}

	u, err := d.Accounts.SubmitKYC(c.Request.Context(), c.GetString("userID"), data)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": u,
	})
}

func UserStatus(c *gin.Context, d *internal.Deps) {
	status := model.UserStatus(c.Query("status"))

	u, err := d.Accounts.ChangeStatus(c.Request.Context(), c.GetString("userID"), status)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": u,
	})
}

type changePasswordBody struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func UserChangePassword(c *gin.Context, d *internal.Deps) {
	var data changePasswordBody
	if !reply.Bind(c, &data) {
		return
	}

	err := d.Accounts.ChangePassword(c.Request.Context(), c.GetString("userID"), data.NewPassword, data.ConfirmPassword)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password changed",
		"requestID": middleware.RequestID(c),
	})
}

func UserDelete(c *gin.Context, d *internal.Deps) {
	if err := d.Accounts.Delete(c.Request.Context(), c.GetString("userID")); err != nil {
		reply.Error(c, err)
		return
	}

	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}
