package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/internal/store"
	"bitwise74/contacts-api/pkg/validators"

	"go.uber.org/zap"
)

type RegisterInput struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	Username         string  `json:"username"`
	Fullname         string  `json:"fullname"`
	PhoneNumber      *string `json:"phoneNumber"`
	ExtraSecurityPin *string `json:"extraSecurityPin"`
}

type ProfileUpdate struct {
	Fullname         *string              `json:"fullname"`
	FirebaseToken    *string              `json:"firebaseToken"`
	ExtraSecurity    *model.ExtraSecurity `json:"extraSecurity"`
	ExtraSecurityPin *string              `json:"extraSecurityPin"`
}

type KYC struct {
	Birthday string `json:"birthday"`
	Country  string `json:"country"`
	State    string `json:"state"`
	City     string `json:"city"`
	ZipCode  string `json:"zipCode"`
	Address  string `json:"address"`
}

type Session struct {
	Token     string      `json:"accessToken"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

type AccountService struct {
	accounts AccountDirectory
	pins     *PinService
	hasher   PasswordHasher
	sessions SessionIssuer
}

func NewAccountService(accounts AccountDirectory, pins *PinService, hasher PasswordHasher, sessions SessionIssuer) *AccountService {
	return &AccountService{
		accounts: accounts,
		pins:     pins,
		hasher:   hasher,
		sessions: sessions,
	}
}

// Register creates a pending account. A phone number can only be used
// after a verify-phone code for it was consumed
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validators.EmailValidator(in.Email); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err := validators.PasswordValidator(in.Password); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}

	username := strings.TrimPrefix(in.Username, "@")
	if err := validators.UsernameValidator(username); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}

	fullname := strings.TrimSpace(in.Fullname)
	if fullname == "" {
		return nil, apperr.InvalidInput("Full name can't be empty")
	}

	phone := in.PhoneNumber
	if phone != nil && *phone == "" {
		phone = nil
	}

	if phone != nil {
		if err := validators.PhoneValidator(*phone); err != nil {
			return nil, apperr.InvalidInput(err.Error())
		}

		verified, err := s.pins.PhoneVerified(ctx, *phone)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !verified {
			return nil, apperr.NotFound("You must verify your phone number first")
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	id, err := newID()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	referral, err := s.sessions.Referral(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &model.User{
		ID:            id,
		Email:         in.Email,
		PhoneNumber:   phone,
		PhoneVerified: phone != nil,
		Username:      "@" + username,
		Fullname:      fullname,
		PasswordHash:  hash,
		Status:        model.StatusPending,
		ExtraSecurity: model.ExtraSecurityDisabled,
		ReferralLink:  referral,
	}

	if in.ExtraSecurityPin != nil && *in.ExtraSecurityPin != "" {
		pinHash, err := s.hasher.Hash(*in.ExtraSecurityPin)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		u.ExtraSecurity = model.ExtraSecurityPin
		u.ExtraSecurityPin = &pinHash
	}

	if err := s.accounts.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("A user with that email, phone number or username already exists")
		}
		return nil, apperr.Internal(err)
	}

	zap.L().Info("Registered new user", zap.String("userID", u.ID))

	return u, nil
}

// Login accepts either the email or the username without its @
func (s *AccountService) Login(ctx context.Context, login, password string) (*Session, error) {
	if login == "" {
		return nil, apperr.InvalidInput("Username field can't be empty")
	}
	if password == "" {
		return nil, apperr.InvalidInput("Password field can't be empty")
	}

	u, err := s.accounts.FindByLogin(ctx, strings.TrimPrefix(login, "@"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return s.StartSession(u)
}

func (s *AccountService) StartSession(u *model.User) (*Session, error) {
	token, exp, err := s.sessions.Issue(u)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Authenticate resolves a session token to the account it was issued for
func (s *AccountService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.sessions.Parse(raw)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindUnauthorized, "Authorization token invalid")
	}

	return s.Profile(ctx, claims.UserID)
}

func (s *AccountService) Profile(ctx context.Context, id string) (*model.User, error) {
	u, err := s.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// UpdateProfile only touches the fields that were sent with a value
func (s *AccountService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*model.User, error) {
	fields := map[string]any{}

	if in.Fullname != nil && strings.TrimSpace(*in.Fullname) != "" {
		fields["fullname"] = strings.TrimSpace(*in.Fullname)
	}
	if in.FirebaseToken != nil && *in.FirebaseToken != "" {
		fields["firebase_token"] = *in.FirebaseToken
	}
	if in.ExtraSecurityPin != nil && *in.ExtraSecurityPin != "" {
		hash, err := s.hasher.Hash(*in.ExtraSecurityPin)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		fields["extra_security_pin"] = hash
	}
	if in.ExtraSecurity != nil {
		if !in.ExtraSecurity.Valid() {
			return nil, apperr.InvalidInput("Unknown extra security mode")
		}
		fields["extra_security"] = *in.ExtraSecurity
	}

	if len(fields) == 0 {
		return s.Profile(ctx, id)
	}

	if err := s.update(ctx, id, fields); err != nil {
		return nil, err
	}

	return s.Profile(ctx, id)
}

// SubmitKYC stores the identity details and activates the account
func (s *AccountService) SubmitKYC(ctx context.Context, id string, in KYC) (*model.User, error) {
	values := map[string]string{
		"birthday": in.Birthday,
		"country":  in.Country,
		"state":    in.State,
		"city":     in.City,
		"zip_code": in.ZipCode,
		"address":  in.Address,
	}

	fields := make(map[string]any, len(values)+1)
	for k, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, apperr.InvalidInput(k + " can't be empty")
		}
		fields[k] = v
	}
	fields["status"] = model.StatusActive

	if err := s.update(ctx, id, fields); err != nil {
		return nil, err
	}

	return s.Profile(ctx, id)
}

func (s *AccountService) ChangeStatus(ctx context.Context, id string, status model.UserStatus) (*model.User, error) {
	if !status.Valid() {
		return nil, apperr.InvalidInput("Unknown user status")
	}

	if err := s.update(ctx, id, map[string]any{"status": status}); err != nil {
		return nil, err
	}

	return s.Profile(ctx, id)
}

func (s *AccountService) ChangePassword(ctx context.Context, id, newPassword, confirm string) error {
	if newPassword != confirm {
		return apperr.InvalidInput("Passwords don't match")
	}
	if err := validators.PasswordValidator(newPassword); err != nil {
		return apperr.InvalidInput(err.Error())
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	return s.update(ctx, id, map[string]any{"password_hash": hash})
}

// RequestEmailChange sends a change-email code to the new address. The
// stored email only changes once that code is validated
func (s *AccountService) RequestEmailChange(ctx context.Context, u *model.User, email string) error {
	if err := validators.EmailValidator(email); err != nil {
		return apperr.InvalidInput(err.Error())
	}

	if u.Email == email {
		return apperr.InvalidInput("You can't use the email you already have")
	}

	taken, err := s.accounts.Taken(ctx, "email", email)
	if err != nil {
		return apperr.Internal(err)
	}
	if taken {
		return apperr.Conflict("That email can't be used, try another one")
	}

	next := *u
	next.Email = email

	return s.pins.Issue(ctx, ToAccount(&next), model.PurposeChangeEmail, false)
}

// Available reports whether value is still free for field, which is one
// of phoneNumber, username or email
func (s *AccountService) Available(ctx context.Context, field, value string) (bool, error) {
	if value == "" {
		return false, apperr.InvalidInput("No value provided")
	}

	var column string
	switch field {
	case "phoneNumber":
		column = "phone_number"
	case "username":
		column = "username"
		value = "@" + strings.TrimPrefix(value, "@")
	case "email":
		column = "email"
	default:
		return false, apperr.InvalidInput("Unknown field " + field)
	}

	taken, err := s.accounts.Taken(ctx, column, value)
	if err != nil {
		return false, apperr.Internal(err)
	}

	return !taken, nil
}

// SendPhoneCode sends a verify-phone code to phone, whether or not an
// account uses it already
func (s *AccountService) SendPhoneCode(ctx context.Context, phone string) error {
	if err := validators.PhoneValidator(phone); err != nil {
		return apperr.InvalidInput(err.Error())
	}

	target := ToRef(phone)

	u, err := s.accounts.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		target = ToAccount(u)
	case !errors.Is(err, store.ErrNotFound):
		return apperr.Internal(err)
	}

	return s.pins.Issue(ctx, target, model.PurposeVerifyPhone, true)
}

// ForgotPassword sends a forgot-password code to the account matching
// criteria. Codes go by SMS unless the criteria is an email or the account
// has no phone number
func (s *AccountService) ForgotPassword(ctx context.Context, criteria string) error {
	if criteria == "" {
		return apperr.InvalidInput("No email, phone number or username provided")
	}

	u, err := s.accounts.FindByRef(ctx, criteria, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("No user with that email or phone number")
		}
		return apperr.Internal(err)
	}

	viaPhone := !validators.IsEmail(criteria) && u.PhoneNumber != nil

	return s.pins.Issue(ctx, ToAccount(u), model.PurposeForgotPassword, viaPhone)
}

// Delete removes the account together with its contacts
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err)
	}

	zap.L().Info("Deleted user", zap.String("userID", id))
	return nil
}

func (s *AccountService) update(ctx context.Context, id string, fields map[string]any) error {
	if err := s.accounts.Update(ctx, id, fields); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return apperr.NotFound("User not found")
		case errors.Is(err, store.ErrConflict):
			return apperr.Conflict("Value already in use by another user")
		}
		return apperr.Internal(err)
	}
	return nil
}
