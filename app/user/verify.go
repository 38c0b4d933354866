package user

import (
	"net/http"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

var availabilityFields = []string{"phoneNumber", "username", "email"}

// UserVerifyValue checks whether a phone number, username or email is
// still free. The first query parameter present wins
func UserVerifyValue(c *gin.Context, d *internal.Deps) {
	for _, field := range availabilityFields {
		value := c.Query(field)
		if value == "" {
			continue
		}

		ok, err := d.Accounts.Available(c.Request.Context(), field, value)
		if err != nil {
			reply.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": gin.H{field: ok},
		})
		return
	}

	reply.Error(c, apperr.InvalidInput("One of phoneNumber, username or email is required"))
}

func UserVerifyPhone(c *gin.Context, d *internal.Deps) {
	if err := d.Accounts.SendPhoneCode(c.Request.Context(), c.Query("phoneNumber")); err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Pin sent",
		"requestID": middleware.RequestID(c),
	})
}
