package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/internal/store"
	"bitwise74/contacts-api/internal/testutil"
	"bitwise74/contacts-api/pkg/security"

	"github.com/stretchr/testify/require"
)

type sent struct {
	to   string
	body string
}

type recorder struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (r *recorder) record(to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, sent{to: to, body: body})
	return nil
}

func (r *recorder) messages() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.msgs...)
}

type fakeMailer struct{ recorder }

func (f *fakeMailer) Send(_ context.Context, to, _, body string) error {
	return f.record(to, body)
}

type fakeSMS struct{ recorder }

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	return f.record(to, body)
}

type env struct {
	store    *store.Store
	contacts *ContactService
	pins     *PinService
	accounts *AccountService
	mail     *fakeMailer
	sms      *fakeSMS
}

// Cheap parameters, the defaults make every test take seconds
func testHasher() *security.PasswordHasher {
	return &security.PasswordHasher{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newEnv(t *testing.T, opts ...func(*PinServiceOpts)) *env {
	t.Helper()

	s := store.New(testutil.NewDB(t))
	e := &env{
		store: s,
		mail:  &fakeMailer{},
		sms:   &fakeSMS{},
	}

	o := PinServiceOpts{
		Pins:     s.Pins(),
		Accounts: s.Accounts(),
		Tx:       s,
		Codes:    security.StaticCode("000000"),
		Mail:     e.mail,
		SMS:      e.sms,
		Hasher:   testHasher(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	e.pins = NewPinService(o)
	e.contacts = NewContactService(s.Accounts(), s.Contacts(), s)
	e.accounts = NewAccountService(s.Accounts(), e.pins, o.Hasher, security.NewTokens("secret", time.Hour, 24*time.Hour))

	return e
}

func (e *env) seedAccount(t *testing.T, id, email, username, phone string) *model.User {
	t.Helper()

	hash, err := testHasher().Hash("correct horse battery")
	require.NoError(t, err)

	u := &model.User{
		ID:           id,
		Email:        email,
		Username:     username,
		Fullname:     "Full " + username,
		PasswordHash: hash,
		Status:       model.StatusPending,
	}
	if phone != "" {
		u.PhoneNumber = ptr(phone)
	}

	require.NoError(t, e.store.Accounts().Create(context.Background(), u))
	return u
}

func (e *env) seedContact(t *testing.T, id, owner, phone string, favorite bool, alias *string) *model.Contact {
	t.Helper()

	c := &model.Contact{
		ID:          id,
		UserID:      owner,
		PhoneNumber: ptr(phone),
		Favorite:    favorite,
		Alias:       alias,
	}
	require.NoError(t, e.store.Contacts().Create(context.Background(), c))
	return c
}

var errDelivery = errors.New("smtp: connection refused")
