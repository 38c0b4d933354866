// Package model defines database models
package model

import "time"

type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusActive   UserStatus = "active"
	StatusChecking UserStatus = "checking"
	StatusRejected UserStatus = "rejected"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusChecking, StatusRejected:
		return true
	}
	return false
}

type ExtraSecurity string

const (
	ExtraSecurityDisabled ExtraSecurity = "disabled"
	ExtraSecurityFaceID   ExtraSecurity = "faceId"
	ExtraSecurityTouchID  ExtraSecurity = "touchId"
	ExtraSecurityPin      ExtraSecurity = "pin"
)

func (e ExtraSecurity) Valid() bool {
	switch e {
	case ExtraSecurityDisabled, ExtraSecurityFaceID, ExtraSecurityTouchID, ExtraSecurityPin:
		return true
	}
	return false
}

type User struct {
	ID            string  `gorm:"primaryKey" json:"id"`
	Email         string  `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified bool    `gorm:"not null;default:false" json:"emailVerified"`
	PhoneNumber   *string `gorm:"uniqueIndex" json:"phoneNumber"`
	PhoneVerified bool    `gorm:"not null;default:false" json:"phoneNumberVerified"`
	// Stored with a leading @
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Fullname     string `gorm:"not null" json:"fullname"`
	PasswordHash string `gorm:"not null" json:"-"`

	Status           UserStatus    `gorm:"not null;default:pending" json:"status"`
	ExtraSecurity    ExtraSecurity `gorm:"not null;default:disabled" json:"extraSecurity"`
	ExtraSecurityPin *string       `json:"-"`
	FirebaseToken    *string       `json:"firebaseToken"`

	// KYC
	Birthday *string `json:"birthday"`
	Country  *string `json:"country"`
	State    *string `json:"state"`
	City     *string `json:"city"`
	ZipCode  *string `json:"zipCode"`
	Address  *string `json:"address"`

	ReferralLink string    `json:"referralLink"`
	CreatedAt    time.Time `json:"createdAt"`

	Contacts []Contact `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
