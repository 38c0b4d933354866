// Package contact holds the handlers of the address book routes
package contact

import (
	"net/http"

	"bitwise74/contacts-api/app/reply"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/service"

	"github.com/gin-gonic/gin"
)

func ContactImport(c *gin.Context, d *internal.Deps) {
	var data []service.NewContact
	if !reply.Bind(c, &data) {
		return
	}

	contacts, err := d.Contacts.Import(c.Request.Context(), c.GetString("userID"), data)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": contacts,
	})
}

type addAccountBody struct {
	UserID   string  `json:"userId"`
	Alias    *string `json:"alias"`
	Favorite *bool   `json:"favorite"`
}

func ContactAddAccount(c *gin.Context, d *internal.Deps) {
	var data addAccountBody
	if !reply.Bind(c, &data) {
		return
	}

	contacts, err := d.Contacts.AddAccount(c.Request.Context(), c.GetString("userID"), data.UserID, data.Alias, data.Favorite)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": contacts,
	})
}

func ContactList(c *gin.Context, d *internal.Deps) {
	contacts, err := d.Contacts.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": contacts,
	})
}

type updateBody struct {
	ContactID string  `json:"contactId"`
	Alias     *string `json:"alias"`
	Favorite  *bool   `json:"favorite"`
}

func ContactUpdate(c *gin.Context, d *internal.Deps) {
	var data updateBody
	if !reply.Bind(c, &data) {
		return
	}

	if data.Favorite == nil {
		reply.Error(c, apperr.InvalidInput("Favorite field is required"))
		return
	}

	contact, err := d.Contacts.Update(c.Request.Context(), c.GetString("userID"), data.ContactID, data.Alias, *data.Favorite)
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": contact,
	})
}

func ContactCategories(c *gin.Context, d *internal.Deps) {
	res, err := d.Contacts.Categorize(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": res,
	})
}

func ContactSearch(c *gin.Context, d *internal.Deps) {
	res, err := d.Contacts.Search(c.Request.Context(), c.GetString("userID"), c.Query("contactName"))
	if err != nil {
		reply.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": res,
	})
}

func ContactDelete(c *gin.Context, d *internal.Deps) {
	if err := d.Contacts.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		reply.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
