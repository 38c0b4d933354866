package store

import (
	"context"
	"fmt"

	"bitwise74/contacts-api/internal/model"
)

// Columns that can be checked for availability
var uniqueAccountColumns = map[string]bool{
	"email":        true,
	"phone_number": true,
	"username":     true,
}

type Accounts struct {
	*Store
}

func (a *Accounts) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := a.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (a *Accounts) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	if err := a.conn(ctx).Where("phone_number = ?", phone).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByRef returns the account whose email or phone number equals ref.
// With withUsername the username is matched as well
func (a *Accounts) FindByRef(ctx context.Context, ref string, withUsername bool) (*model.User, error) {
	q := a.conn(ctx).Where("email = ? OR phone_number = ?", ref, ref)
	if withUsername {
		q = q.Or("username = ?", ref)
	}

	var u model.User
	if err := q.Order("created_at asc").First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByLogin matches either the email or the @-prefixed username
func (a *Accounts) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	err := a.conn(ctx).
		Where("email = ? OR username = ?", login, "@"+login).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (a *Accounts) ListByPhones(ctx context.Context, phones []string) ([]model.User, error) {
	users := []model.User{}
	if len(phones) == 0 {
		return users, nil
	}

	err := a.conn(ctx).
		Where("phone_number IN ?", phones).
		Order("created_at asc, id asc").
		Find(&users).
		Error
	return users, translate(err)
}

// Search matches username or full name case-insensitively, skipping excludeID
func (a *Accounts) Search(ctx context.Context, term, excludeID string) ([]model.User, error) {
	pattern := likePattern(term)

	users := []model.User{}
	err := a.conn(ctx).
		Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(fullname) LIKE ? ESCAPE '\') AND id <> ?`,
			pattern, pattern, excludeID).
		Order("username asc").
		Find(&users).
		Error
	return users, translate(err)
}

// Taken reports whether any account already uses value in column
func (a *Accounts) Taken(ctx context.Context, column, value string) (bool, error) {
	if !uniqueAccountColumns[column] {
		return false, fmt.Errorf("column %q can't be checked", column)
	}

	var count int64
	err := a.conn(ctx).
		Model(&model.User{}).
		Where(column+" = ?", value).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *Accounts) Create(ctx context.Context, u *model.User) error {
	return translate(a.conn(ctx).Create(u).Error)
}

func (a *Accounts) Update(ctx context.Context, id string, fields map[string]any) error {
	res := a.conn(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account and every contact it owns
func (a *Accounts) Delete(ctx context.Context, id string) error {
	return a.WithinTx(ctx, func(ctx context.Context) error {
		if err := a.conn(ctx).Where("user_id = ?", id).Delete(&model.Contact{}).Error; err != nil {
			return err
		}

		res := a.conn(ctx).Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
