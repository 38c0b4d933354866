package validators

import (
	"errors"
	"regexp"
)

var (
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordForbidden = errors.New("password contains a forbidden word")
	ErrPasswordTooLong   = errors.New("password is too long")
	ErrPasswordEmpty     = errors.New("no password provided")
)

var forbiddenWords = regexp.MustCompile(`(?i)querty|password|admin|test|administrator|123456`)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	if forbiddenWords.MatchString(p) {
		return ErrPasswordForbidden
	}

	return nil
}
