// Package service holds the business logic of the app. Handlers call into
// it and map the returned apperr kinds onto HTTP responses
package service

import (
	"context"
	"time"

	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type AccountDirectory interface {
	Get(ctx context.Context, id string) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByRef(ctx context.Context, ref string, withUsername bool) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	ListByPhones(ctx context.Context, phones []string) ([]model.User, error)
	Search(ctx context.Context, term, excludeID string) ([]model.User, error)
	Taken(ctx context.Context, column, value string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type ContactStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Contact, error)
	Get(ctx context.Context, id string) (*model.Contact, error)
	FindByPhone(ctx context.Context, ownerID, phone string) (*model.Contact, error)
	CreateIgnoringDuplicates(ctx context.Context, contacts []model.Contact) (int64, error)
	Create(ctx context.Context, contact *model.Contact) error
	Save(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, id string) error
	SearchFavorites(ctx context.Context, ownerID, term string) ([]model.Contact, error)
}

type PinStore interface {
	Create(ctx context.Context, pin *model.Pin) error
	Consume(ctx context.Context, code, ref string, notBefore time.Time) (*model.Pin, error)
	FindConsumed(ctx context.Context, code, ref string, purpose model.PinPurpose) (*model.Pin, error)
	HasConsumed(ctx context.Context, ref string, purpose model.PinPurpose) (bool, error)
	Invalidate(ctx context.Context, code, ref string) error
}

// Transactor runs fn in a transaction shared by every store called with
// the ctx it receives
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type CodeGenerator interface {
	Generate() (string, error)
}

type SessionIssuer interface {
	Issue(u *model.User) (string, time.Time, error)
	Referral(userID string) (string, error)
	Parse(raw string) (*security.Claims, error)
}

type PasswordHasher interface {
	Hash(p string) (string, error)
	Verify(p, encoded string) (bool, error)
}

// Throttle limits how often a code can be sent to the same reference
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

func newID() (string, error) {
	return gonanoid.Generate(idCharset, 16)
}

func ptr[T any](v T) *T {
	return &v
}
