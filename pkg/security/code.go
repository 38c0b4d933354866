package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// DigitCode generates fixed length numeric codes with crypto/rand
type DigitCode struct {
	Length int
}

func NewDigitCode(length int) *DigitCode {
	return &DigitCode{Length: length}
}

func (d *DigitCode) Generate() (string, error) {
	if d.Length <= 0 {
		return "", errors.New("code length must be bigger than 0")
	}

	var sb strings.Builder
	sb.Grow(d.Length)

	ten := big.NewInt(10)
	for range d.Length {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}

// StaticCode always returns the same code. Only meant for local
// development and tests where nobody can receive the real code
type StaticCode string

func (s StaticCode) Generate() (string, error) {
	return string(s), nil
}
