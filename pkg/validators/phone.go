package validators

import (
	"errors"
	"regexp"
)

var (
	ErrPhoneEmpty   = errors.New("no phone number provided")
	ErrPhoneInvalid = errors.New("invalid phone number provided")

	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits, dots and underscores")
)

// Digits with optional leading + and dash or space separators, e.g. +1-555-0100
var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 \-]{2,19}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{2,32}$`)
)

func PhoneValidator(p string) error {
	if p == "" {
		return ErrPhoneEmpty
	}

	if !phonePattern.MatchString(p) {
		return ErrPhoneInvalid
	}

	return nil
}

// UsernameValidator checks a username as typed by the user, without the @
func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if !usernamePattern.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
