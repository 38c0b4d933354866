package service

import (
	"context"
	"errors"
	"strings"

	"bitwise74/contacts-api/internal/apperr"
	"bitwise74/contacts-api/internal/model"
	"bitwise74/contacts-api/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgSaveContact   = "Save a contact fails"
	msgDeleteContact = "Delete a contact fails"
	msgUpdateContact = "Update a contact fails"
)

// NewContact is one address book entry sent by the client during import
type NewContact struct {
	Fullname    *string `json:"fullname"`
	PhoneNumber string  `json:"phoneNumber"`
}

// ContactAccount pairs a registered account with the contact that
// matched it
type ContactAccount struct {
	User    model.User    `json:"user"`
	Contact model.Contact `json:"contact"`
}

type Categories struct {
	ForUsers []ContactAccount `json:"forUsers"`
	ForShops []ContactAccount `json:"forShops"`
}

type SearchResult struct {
	Contacts []model.Contact `json:"contacts"`
	Accounts []model.User    `json:"users"`
}

type ContactService struct {
	accounts AccountDirectory
	contacts ContactStore
	tx       Transactor
}

func NewContactService(accounts AccountDirectory, contacts ContactStore, tx Transactor) *ContactService {
	return &ContactService{
		accounts: accounts,
		contacts: contacts,
		tx:       tx,
	}
}

// Import stores the candidates the owner doesn't have yet, keyed by phone
// number. Candidates matching a registered account take that account's
// name and username. Returns the owner's full contact list
func (s *ContactService) Import(ctx context.Context, ownerID string, candidates []NewContact) ([]model.Contact, error) {
	if len(candidates) == 0 {
		return nil, apperr.InvalidInput("Contact list is empty")
	}

	for _, c := range candidates {
		if strings.TrimSpace(c.PhoneNumber) == "" {
			return nil, apperr.InvalidInput("Every contact needs a phone number")
		}
	}

	if err := s.ownerExists(ctx, ownerID); err != nil {
		return nil, err
	}

	existing, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	seen := make(map[string]bool, len(existing)+len(candidates))
	for _, c := range existing {
		if p := c.Phone(); p != "" {
			seen[p] = true
		}
	}

	fresh := make([]NewContact, 0, len(candidates))
	phones := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.PhoneNumber] {
			continue
		}
		seen[c.PhoneNumber] = true
		fresh = append(fresh, c)
		phones = append(phones, c.PhoneNumber)
	}

	if len(fresh) == 0 {
		return existing, nil
	}

	registered, err := s.accountsByPhone(ctx, phones)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	rows := make([]model.Contact, 0, len(fresh))
	for _, c := range fresh {
		id, err := newID()
		if err != nil {
			return nil, apperr.Internal(err)
		}

		row := model.Contact{
			ID:          id,
			UserID:      ownerID,
			PhoneNumber: ptr(c.PhoneNumber),
			Fullname:    c.Fullname,
		}

		if u, ok := registered[c.PhoneNumber]; ok {
			row.Fullname = ptr(u.Fullname)
			row.Username = ptr(u.Username)
		}

		rows = append(rows, row)
	}

	n, err := s.contacts.CreateIgnoringDuplicates(ctx, rows)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	zap.L().Debug("Imported contacts",
		zap.String("userID", ownerID),
		zap.Int("candidates", len(candidates)),
		zap.Int64("created", n))

	all, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	return all, nil
}

// AddAccount adds a registered account to the owner's contacts, or
// updates favorite and alias when it's already there
func (s *ContactService) AddAccount(ctx context.Context, ownerID, targetID string, alias *string, favorite *bool) ([]model.Contact, error) {
	if targetID == "" {
		return nil, apperr.InvalidInput("No user ID provided")
	}

	if err := s.ownerExists(ctx, ownerID); err != nil {
		return nil, err
	}

	target, err := s.accounts.Get(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	if target.PhoneNumber == nil || *target.PhoneNumber == "" {
		return nil, apperr.InvalidInput("Can't add a user without a phone number")
	}

	fav := favorite != nil && *favorite
	if !fav {
		alias = nil
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.contacts.FindByPhone(ctx, ownerID, *target.PhoneNumber)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if current != nil {
			current.Favorite = fav
			current.Alias = alias
			return s.contacts.Save(ctx, current)
		}

		id, err := newID()
		if err != nil {
			return err
		}

		return s.contacts.Create(ctx, &model.Contact{
			ID:          id,
			UserID:      ownerID,
			PhoneNumber: ptr(*target.PhoneNumber),
			Fullname:    ptr(target.Fullname),
			Username:    ptr(target.Username),
			Alias:       alias,
			Favorite:    fav,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Wrap(err, apperr.KindConflict, "User is already in your contacts")
		}
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	all, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgSaveContact)
	}

	return all, nil
}

// Update changes alias and favorite of a contact. Only contacts of
// registered accounts can be favorites and only favorites keep an alias
func (s *ContactService) Update(ctx context.Context, ownerID, contactID string, alias *string, favorite bool) (*model.Contact, error) {
	contact, err := s.owned(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	if favorite {
		registered, err := s.isRegistered(ctx, contact.Phone())
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgUpdateContact)
		}
		favorite = registered
	}

	if !favorite {
		alias = nil
	}

	contact.Favorite = favorite
	contact.Alias = alias

	if err := s.contacts.Save(ctx, contact); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, msgUpdateContact)
	}

	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, ownerID, contactID string) error {
	if _, err := s.owned(ctx, ownerID, contactID); err != nil {
		return err
	}

	if err := s.contacts.Delete(ctx, contactID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Contact not found")
		}
		return apperr.Wrap(err, apperr.KindInvalidInput, msgDeleteContact)
	}

	return nil
}

func (s *ContactService) List(ctx context.Context, ownerID string) ([]model.Contact, error) {
	contacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return contacts, nil
}

// Categorize splits the owner's contacts that belong to registered
// accounts into regular ones and favorites. Contacts without an account
// are left out of the result
func (s *ContactService) Categorize(ctx context.Context, ownerID string) (*Categories, error) {
	contacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	phones := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if p := c.Phone(); p != "" {
			phones = append(phones, p)
		}
	}

	registered, err := s.accountsByPhone(ctx, phones)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	res := &Categories{
		ForUsers: []ContactAccount{},
		ForShops: []ContactAccount{},
	}

	var notInApp int
	for _, c := range contacts {
		u, ok := registered[c.Phone()]
		if !ok {
			notInApp++
			continue
		}

		pair := ContactAccount{User: *u, Contact: c}
		if c.Favorite {
			res.ForShops = append(res.ForShops, pair)
		} else {
			res.ForUsers = append(res.ForUsers, pair)
		}
	}

	zap.L().Debug("Categorized contacts",
		zap.String("userID", ownerID),
		zap.Int("forUsers", len(res.ForUsers)),
		zap.Int("forShops", len(res.ForShops)),
		zap.Int("notInApp", notInApp))

	return res, nil
}

// Search looks through the owner's favorites and the account directory at
// the same time. Accounts already returned as a contact are dropped
func (s *ContactService) Search(ctx context.Context, ownerID, term string) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.InvalidInput("Search term can't be empty")
	}

	var (
		contacts []model.Contact
		accounts []model.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = s.contacts.SearchFavorites(gctx, ownerID, term)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.Search(gctx, term, ownerID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	known := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		if p := c.Phone(); p != "" {
			known[p] = true
		}
	}

	filtered := make([]model.User, 0, len(accounts))
	for _, u := range accounts {
		if u.PhoneNumber != nil && known[*u.PhoneNumber] {
			continue
		}
		filtered = append(filtered, u)
	}

	return &SearchResult{Contacts: contacts, Accounts: filtered}, nil
}

func (s *ContactService) ownerExists(ctx context.Context, ownerID string) error {
	if _, err := s.accounts.Get(ctx, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

// owned returns the contact if it belongs to ownerID
func (s *ContactService) owned(ctx context.Context, ownerID, contactID string) (*model.Contact, error) {
	if contactID == "" {
		return nil, apperr.InvalidInput("No contact ID provided")
	}

	contact, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Contact not found")
		}
		return nil, apperr.Internal(err)
	}

	if contact.UserID != ownerID {
		return nil, apperr.Unauthorized("You don't own this contact")
	}

	return contact, nil
}

func (s *ContactService) isRegistered(ctx context.Context, phone string) (bool, error) {
	if phone == "" {
		return false, nil
	}

	_, err := s.accounts.FindByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// accountsByPhone keys accounts by phone number. Accounts come back
// oldest first so the first one wins on a collision
func (s *ContactService) accountsByPhone(ctx context.Context, phones []string) (map[string]*model.User, error) {
	users, err := s.accounts.ListByPhones(ctx, phones)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*model.User, len(users))
	for i := range users {
		p := users[i].PhoneNumber
		if p == nil {
			continue
		}
		if _, ok := out[*p]; !ok {
			out[*p] = &users[i]
		}
	}

	return out, nil
}
