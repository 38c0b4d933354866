package user

import (
	"net/http"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/internal/service"

	"github.com/gin-gonic/gin"
)

func UserRegister(c *gin.Context, d *internal.Deps) {
	var data service.RegisterInput
	if !reply.Bind(c, &data) {
		return
	}

	u, err := d.Accounts.Register(c.Request.Context(), data)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": u,
	})
}
