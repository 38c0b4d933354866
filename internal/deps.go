package internal

import (
	"bitwise74/contacts-api/config"
	"bitwise74/contacts-api/internal/service"
)

type Deps struct {
	Config   *config.Config
	Accounts *service.AccountService
	Contacts *service.ContactService
	Pins     *service.PinService
}
