package model

import "time"

type PinPurpose string

const (
	PurposeForgotPassword PinPurpose = "forgot-password"
	PurposeVerifyEmail    PinPurpose = "verify-email"
	PurposeVerifyPhone    PinPurpose = "verify-phone"
	PurposeChangeEmail    PinPurpose = "change-email"
)

func (p PinPurpose) Valid() bool {
	switch p {
	case PurposeForgotPassword, PurposeVerifyEmail, PurposeVerifyPhone, PurposeChangeEmail:
		return true
	}
	return false
}

// Pin is a single use code bound to an email or phone number. Records
// are never deleted, consuming one only flips Valid
type Pin struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	Code      string     `gorm:"not null;index:idx_pins_lookup"`
	Ref       string     `gorm:"not null;index:idx_pins_lookup"`
	Purpose   PinPurpose `gorm:"not null"`
	Valid     bool       `gorm:"not null"`
	CreatedAt time.Time
}
