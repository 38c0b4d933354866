package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/internal/store"
	"bitwise74/contacts-api/pkg/validators"

	"go.uber.org/zap"
)

// PinTarget is who a code is sent to. Either an account, in which case the
// reference is its email or phone number, or a bare reference that no
// account owns yet
type PinTarget struct {
	Account *model.User
	Ref     string
}

func ToAccount(u *model.User) PinTarget { return PinTarget{Account: u} }
func ToRef(ref string) PinTarget        { return PinTarget{Ref: ref} }

type PinConfig struct {
	// Codes older than TTL can't be consumed. Zero disables expiry
	TTL time.Duration
}

type PinService struct {
	pins     PinStore
	accounts AccountDirectory
	tx       Transactor
	codes    CodeGenerator
	mail     Mailer
	sms      SMSSender
	throttle Throttle
	hasher   PasswordHasher
	cfg      PinConfig
	now      func() time.Time
}

type PinServiceOpts struct {
	Pins     PinStore
	Accounts AccountDirectory
	Tx       Transactor
	Codes    CodeGenerator
	Mail     Mailer
	SMS      SMSSender
	Hasher   PasswordHasher
	// Optional
	Throttle Throttle
	Config   PinConfig
}

func NewPinService(o PinServiceOpts) *PinService {
	return &PinService{
		pins:     o.Pins,
		accounts: o.Accounts,
		tx:       o.Tx,
		codes:    o.Codes,
		mail:     o.Mail,
		sms:      o.SMS,
		throttle: o.Throttle,
		hasher:   o.Hasher,
		cfg:      o.Config,
		now:      time.Now,
	}
}

// Issue stores a fresh code for the target and sends it by SMS when
// viaPhone is set, by mail otherwise. Delivery problems are only logged,
// the code counts as issued once it's stored
func (s *PinService) Issue(ctx context.Context, target PinTarget, purpose model.PinPurpose, viaPhone bool) error {
	if !purpose.Valid() {
		return apperr.InvalidInput("Unknown pin purpose")
	}

	ref, err := target.ref(viaPhone)
	if err != nil {
		return err
	}

	if s.throttle != nil {
		ok, retry, err := s.throttle.Allow(ctx, ref)
		if err != nil {
			zap.L().Warn("Pin throttle unavailable", zap.Error(err))
		} else if !ok {
			return apperr.New(apperr.KindRateLimited,
				fmt.Sprintf("Please wait %s before requesting another code", retry.Round(time.Second)))
		}
	}

	code, err := s.codes.Generate()
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.pins.Create(ctx, &model.Pin{
		Code:    code,
		Ref:     ref,
		Purpose: purpose,
		Valid:   true,
	}); err != nil {
		return apperr.Internal(err)
	}

	s.deliver(ctx, target, ref, code, viaPhone)

	return nil
}

func (s *PinService) deliver(ctx context.Context, target PinTarget, ref, code string, viaPhone bool) {
	body := "Your verification code is " + code

	if viaPhone {
		if err := s.sms.Send(ctx, ref, body); err != nil {
			zap.L().Error("Failed to send pin by SMS", zap.Error(err), zap.String("ref", ref))
		}
		return
	}

	// A bare reference has no mailbox we know of
	if target.Account == nil {
		return
	}

	if err := s.mail.Send(ctx, ref, "Confirmation PIN", body); err != nil {
		zap.L().Error("Failed to send pin by mail", zap.Error(err), zap.String("ref", ref))
	}
}

func (t PinTarget) ref(viaPhone bool) (string, error) {
	var ref string

	switch {
	case t.Account == nil:
		ref = t.Ref
	case viaPhone:
		if t.Account.PhoneNumber != nil {
			ref = *t.Account.PhoneNumber
		}
	default:
		ref = t.Account.Email
	}

	if ref == "" {
		return "", apperr.InvalidInput("No email or phone number to send the code to")
	}

	return ref, nil
}

// Validate consumes the code issued for ref. A change-email code moves
// actor's email to ref. Returns the account that owns ref afterwards, or
// nil when there's none yet
func (s *PinService) Validate(ctx context.Context, code, ref string, actor *model.User) (*model.User, error) {
	if code == "" {
		return nil, apperr.InvalidInput("No pin provided")
	}
	if ref == "" {
		return nil, apperr.InvalidInput("The email or phone number is required")
	}

	var out *model.User

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pin, err := s.pins.Consume(ctx, code, ref, s.notBefore())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("Invalid pin")
			}
			return apperr.Internal(err)
		}

		if pin.Purpose == model.PurposeChangeEmail {
			if actor == nil {
				return apperr.Unauthorized("Log in to change your email")
			}

			err := s.accounts.Update(ctx, actor.ID, map[string]any{
				"email":          ref,
				"email_verified": true,
			})
			if err != nil {
				if errors.Is(err, store.ErrConflict) {
					return apperr.Conflict("This email is already in use by another user")
				}
				return apperr.Internal(err)
			}
		}

		u, err := s.accounts.FindByRef(ctx, ref, false)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return apperr.Internal(err)
		}

		if err := s.markVerified(ctx, u, pin.Purpose, ref); err != nil {
			return apperr.Internal(err)
		}

		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *PinService) markVerified(ctx context.Context, u *model.User, purpose model.PinPurpose, ref string) error {
	switch {
	case purpose == model.PurposeVerifyPhone && !u.PhoneVerified && u.PhoneNumber != nil && *u.PhoneNumber == ref:
		u.PhoneVerified = true
		return s.accounts.Update(ctx, u.ID, map[string]any{"phone_verified": true})
	case purpose == model.PurposeVerifyEmail && !u.EmailVerified && u.Email == ref:
		u.EmailVerified = true
		return s.accounts.Update(ctx, u.ID, map[string]any{"email_verified": true})
	}
	return nil
}

// RestoreForgotPassword sets a new password for the account owning ref. The
// forgot-password code must have been consumed by Validate beforehand
func (s *PinService) RestoreForgotPassword(ctx context.Context, ref, newPassword, code string) error {
	if ref == "" || code == "" {
		return apperr.InvalidInput("Reference and pin are required")
	}
	if err := validators.PasswordValidator(newPassword); err != nil {
		return apperr.InvalidInput(err.Error())
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.pins.FindConsumed(ctx, code, ref, model.PurposeForgotPassword); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("Invalid request")
			}
			return apperr.Internal(err)
		}

		u, err := s.accounts.FindByRef(ctx, ref, true)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Internal(err)
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return apperr.Internal(err)
		}

		if err := s.accounts.Update(ctx, u.ID, map[string]any{"password_hash": hash}); err != nil {
			return apperr.Internal(err)
		}

		if err := s.pins.Invalidate(ctx, code, ref); err != nil {
			return apperr.Internal(err)
		}

		return nil
	})
}

// PhoneVerified reports whether a verify-phone code was consumed for phone
func (s *PinService) PhoneVerified(ctx context.Context, phone string) (bool, error) {
	return s.pins.HasConsumed(ctx, phone, model.PurposeVerifyPhone)
}

func (s *PinService) notBefore() time.Time {
	if s.cfg.TTL <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.cfg.TTL)
}
