package model

import "time"

// Contact is one entry of a user's address book. The phone number is
// what ties it to a registered account
type Contact struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	UserID      string  `gorm:"not null;index;uniqueIndex:idx_contacts_owner_phone" json:"-"`
	PhoneNumber *string `gorm:"uniqueIndex:idx_contacts_owner_phone" json:"phoneNumber"`
	Fullname    *string `json:"fullname"`
	Username    *string `json:"username"`
	Alias       *string `json:"alias"`
	Favorite    bool    `gorm:"not null;default:false" json:"favorite"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Phone returns the phone number or an empty string
func (c *Contact) Phone() string {
	if c.PhoneNumber == nil {
		return ""
	}
	return *c.PhoneNumber
}
