package service

import (
	"context"
	"testing"
	"time"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/internal/store"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIsSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.pins.Issue(ctx, ToRef("a@b.com"), model.PurposeVerifyEmail, false))
	assert.Empty(t, e.mail.messages())

	u, err := e.pins.Validate(ctx, "000000", "a@b.com", nil)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = e.pins.Validate(ctx, "000000", "a@b.com", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestIssueToAccountMarksVerified(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.seedAccount(t, "alice", "a@b.com", "@alice", "+1-111")

	require.NoError(t, e.pins.Issue(ctx, ToAccount(alice), model.PurposeVerifyEmail, false))

	msgs := e.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a@b.com", msgs[0].to)
	assert.Contains(t, msgs[0].body, "000000")

	u, err := e.pins.Validate(ctx, "000000", "a@b.com", nil)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.ID)
	assert.True(t, u.EmailVerified)

	stored, err := e.store.Accounts().Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.False(t, stored.PhoneVerified)
}

func TestIssueViaPhone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.seedAccount(t, "alice", "a@b.com", "@alice", "+1-111")

	require.NoError(t, e.pins.Issue(ctx, ToAccount(alice), model.PurposeVerifyPhone, true))

	msgs := e.sms.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "+1-111", msgs[0].to)
	assert.Empty(t, e.mail.messages())

	u, err := e.pins.Validate(ctx, "000000", "+1-111", nil)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.PhoneVerified)

	noPhone := e.seedAccount(t, "bob", "bob@b.com", "@bob", "")
	err = e.pins.Issue(ctx, ToAccount(noPhone), model.PurposeVerifyPhone, true)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestIssueSurvivesDeliveryFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.seedAccount(t, "alice", "a@b.com", "@alice", "")
	e.mail.err = errDelivery

	require.NoError(t, e.pins.Issue(ctx, ToAccount(alice), model.PurposeForgotPassword, false))

	_, err := e.pins.Validate(ctx, "000000", "a@b.com", nil)
	assert.NoError(t, err)
}

func TestValidateChangeEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.seedAccount(t, "alice", "a@b.com", "@alice", "")

	require.NoError(t, e.accounts.RequestEmailChange(ctx, alice, "new@b.com"))

	msgs := e.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "new@b.com", msgs[0].to)

	// Nothing changes until the code is validated
	stored, err := e.store.Accounts().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", stored.Email)

	// Without an acting account the whole validation is rolled back
	_, err = e.pins.Validate(ctx, "000000", "new@b.com", nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	u, err := e.pins.Validate(ctx, "000000", "new@b.com", alice)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.ID)
	assert.Equal(t, "new@b.com", u.Email)
	assert.True(t, u.EmailVerified)
}

func TestRestoreForgotPasswordNeedsConsumedCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedAccount(t, "alice", "a@b.com", "@alice", "")

	err := e.pins.RestoreForgotPassword(ctx, "a@b.com", "brand new secret", "000000")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, e.accounts.ForgotPassword(ctx, "a@b.com"))

	// Issued but not validated yet
	err = e.pins.RestoreForgotPassword(ctx, "a@b.com", "brand new secret", "000000")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = e.pins.Validate(ctx, "000000", "a@b.com", nil)
	require.NoError(t, err)

	for _, bad := range []string{"", "short", "password"} {
		err = e.pins.RestoreForgotPassword(ctx, "a@b.com", bad, "000000")
		assert.True(t, apperr.Is(err, apperr.KindInvalidInput), bad)

		_, err = e.accounts.Login(ctx, "alice", bad)
		assert.Error(t, err, bad)
	}

	require.NoError(t, e.pins.RestoreForgotPassword(ctx, "a@b.com", "brand new secret", "000000"))

	sess, err := e.accounts.Login(ctx, "alice", "brand new secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.ID)
}

func TestValidateRespectsTTL(t *testing.T) {
	e := newEnv(t, func(o *PinServiceOpts) {
		o.Config.TTL = time.Minute
	})
	ctx := context.Background()

	require.NoError(t, e.pins.Issue(ctx, ToRef("+1-111"), model.PurposeVerifyPhone, true))

	e.pins.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := e.pins.Validate(ctx, "000000", "+1-111", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	e.pins.now = time.Now
	_, err = e.pins.Validate(ctx, "000000", "+1-111", nil)
	assert.NoError(t, err)
}

func TestIssueThrottled(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnv(t, func(o *PinServiceOpts) {
		o.Throttle = store.NewCooldown(client, 30*time.Second)
	})
	ctx := context.Background()

	require.NoError(t, e.pins.Issue(ctx, ToRef("+1-111"), model.PurposeVerifyPhone, true))

	err := e.pins.Issue(ctx, ToRef("+1-111"), model.PurposeVerifyPhone, true)
	assert.True(t, apperr.Is(err, apperr.KindRateLimited))
	assert.Len(t, e.sms.messages(), 1)

	mr.FastForward(31 * time.Second)
	assert.NoError(t, e.pins.Issue(ctx, ToRef("+1-111"), model.PurposeVerifyPhone, true))
}
