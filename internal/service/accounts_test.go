package service

import (
	"context"
	"testing"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput() RegisterInput {
	return RegisterInput{
		Email:    "alice@b.com",
		Password: "correct horse battery",
		Username: "alice",
		Fullname: "Alice Liddell",
	}
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.accounts.Register(ctx, registerInput())
	require.NoError(t, err)
	assert.Equal(t, "@alice", u.Username)
	assert.Equal(t, model.StatusPending, u.Status)
	assert.NotEmpty(t, u.ReferralLink)
	assert.NotEqual(t, "correct horse battery", u.PasswordHash)

	_, err = e.accounts.Register(ctx, registerInput())
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegisterRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }},
		{"forbidden password", func(in *RegisterInput) { in.Password = "superadmin99" }},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }},
		{"bad username", func(in *RegisterInput) { in.Username = "a b" }},
		{"no fullname", func(in *RegisterInput) { in.Fullname = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput()
			tt.mutate(&in)

			_, err := e.accounts.Register(ctx, in)
			assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
		})
	}
}

func TestRegisterWithPhoneNeedsVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := registerInput()
	in.PhoneNumber = ptr("+1-111")
	in.ExtraSecurityPin = ptr("1234")

	_, err := e.accounts.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, e.accounts.SendPhoneCode(ctx, "+1-111"))
	require.Len(t, e.sms.messages(), 1)

	u, err := e.pins.Validate(ctx, "000000", "+1-111", nil)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = e.accounts.Register(ctx, in)
	require.NoError(t, err)
	assert.True(t, u.PhoneVerified)
	assert.Equal(t, model.ExtraSecurityPin, u.ExtraSecurity)
	require.NotNil(t, u.ExtraSecurityPin)
	assert.NotEqual(t, "1234", *u.ExtraSecurityPin)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "")

	sess, err := e.accounts.Login(ctx, "a@b.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	sess, err = e.accounts.Login(ctx, "@alice", "correct horse battery")
	require.NoError(t, err)

	u, err := e.accounts.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.ID)

	_, err = e.accounts.Login(ctx, "alice", "wrong horse battery")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = e.accounts.Login(ctx, "nobody", "correct horse battery")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = e.accounts.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestAvailable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "+1-111")

	tests := []struct {
		field string
		value string
		want  bool
	}{
		{"email", "a@b.com", false},
		{"email", "free@b.com", true},
		{"username", "alice", false},
		{"username", "@alice", false},
		{"username", "bob", true},
		{"phoneNumber", "+1-111", false},
		{"phoneNumber", "+1-222", true},
	}

	for _, tt := range tests {
		ok, err := e.accounts.Available(ctx, tt.field, tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s=%s", tt.field, tt.value)
	}

	_, err := e.accounts.Available(ctx, "password", "x")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestProfileUpdates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "")

	u, err := e.accounts.UpdateProfile(ctx, "alice", ProfileUpdate{
		Fullname:      ptr("Alice L."),
		FirebaseToken: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", u.Fullname)
	assert.Nil(t, u.FirebaseToken)

	bad := model.ExtraSecurity("retina")
	_, err = e.accounts.UpdateProfile(ctx, "alice", ProfileUpdate{ExtraSecurity: &bad})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = e.accounts.SubmitKYC(ctx, "alice", KYC{Birthday: "01/01/1990"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	u, err = e.accounts.SubmitKYC(ctx, "alice", KYC{
		Birthday: "01/01/1990",
		Country:  "UY",
		State:    "Montevideo",
		City:     "Montevideo",
		ZipCode:  "11000",
		Address:  "Calle 1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, u.Status)
	require.NotNil(t, u.City)
	assert.Equal(t, "Montevideo", *u.City)

	u, err = e.accounts.ChangeStatus(ctx, "alice", model.StatusChecking)
	require.NoError(t, err)
	assert.Equal(t, model.StatusChecking, u.Status)

	_, err = e.accounts.ChangeStatus(ctx, "alice", "sleeping")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "")

	err := e.accounts.ChangePassword(ctx, "alice", "another long one", "another long two")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	require.NoError(t, e.accounts.ChangePassword(ctx, "alice", "another long one", "another long one"))

	_, err = e.accounts.Login(ctx, "alice", "another long one")
	assert.NoError(t, err)
}

func TestRequestEmailChangeRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.seedAccount(t, "alice", "a@b.com", "@alice", "")
	e.seedAccount(t, "bob", "bob@b.com", "@bob", "")

	err := e.accounts.RequestEmailChange(ctx, alice, "a@b.com")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	err = e.accounts.RequestEmailChange(ctx, alice, "bob@b.com")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	assert.Empty(t, e.mail.messages())
}

func TestForgotPasswordChannel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "+1-111")
	e.seedAccount(t, "bob", "bob@b.com", "@bob", "")

	require.NoError(t, e.accounts.ForgotPassword(ctx, "+1-111"))
	assert.Len(t, e.sms.messages(), 1)

	require.NoError(t, e.accounts.ForgotPassword(ctx, "a@b.com"))
	assert.Len(t, e.mail.messages(), 1)

	// No phone on file, falls back to mail
	require.NoError(t, e.accounts.ForgotPassword(ctx, "@bob"))
	assert.Len(t, e.mail.messages(), 2)

	err := e.accounts.ForgotPassword(ctx, "ghost@b.com")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "")
	e.seedContact(t, "c1", "alice", "+1-111", false, nil)

	require.NoError(t, e.accounts.Delete(ctx, "alice"))

	contacts, err := e.store.Contacts().ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, contacts)

	err = e.accounts.Delete(ctx, "alice")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15550100", normalizePhone("+1-555-0100"))
	assert.Equal(t, "+584125550100", normalizePhone("+58 412 555 0100"))
}
