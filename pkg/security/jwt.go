package security

import (
	"errors"
	"fmt"
	"time"

	"bitwise74/contacts-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAuth     = "auth"
	TokenTypeReferral = "referral"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// Tokens signs and parses HS256 session tokens
type Tokens struct {
	secret      []byte
	ttl         time.Duration
	referralTTL time.Duration
	now         func() time.Time
}

func NewTokens(secret string, ttl, referralTTL time.Duration) *Tokens {
	return &Tokens{
		secret:      []byte(secret),
		ttl:         ttl,
		referralTTL: referralTTL,
		now:         time.Now,
	}
}

// Issue returns a signed session token for u and when it expires
func (t *Tokens) Issue(u *model.User) (string, time.Time, error) {
	return t.sign(u.ID, u.Username, TokenTypeAuth, t.ttl)
}

// Referral returns a long lived token identifying the inviting user
func (t *Tokens) Referral(userID string) (string, error) {
	token, _, err := t.sign(userID, "", TokenTypeReferral, t.referralTTL)
	return token, err
}

func (t *Tokens) sign(userID, username, typ string, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   userID,
		Username: username,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// Parse validates a session token and returns its claims
func (t *Tokens) Parse(raw string) (*Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", tok.Method.Alg())
		}
		return t.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token invalid")
	}

	if claims.Type != TokenTypeAuth {
		return nil, errors.New("not a session token")
	}

	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}

	return &claims, nil
}
