package store

import (
	"context"

	"bitwise74/contacts-api/internal/model"

	"gorm.io/gorm/clause"
)

type Contacts struct {
	*Store
}

// ListByOwner returns contacts oldest first
func (c *Contacts) ListByOwner(ctx context.Context, ownerID string) ([]model.Contact, error) {
	contacts := []model.Contact{}
	err := c.conn(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at asc, id asc").
		Find(&contacts).
		Error
	return contacts, translate(err)
}

func (c *Contacts) Get(ctx context.Context, id string) (*model.Contact, error) {
	var contact model.Contact
	if err := c.conn(ctx).Where("id = ?", id).First(&contact).Error; err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

func (c *Contacts) FindByPhone(ctx context.Context, ownerID, phone string) (*model.Contact, error) {
	var contact model.Contact
	err := c.conn(ctx).
		Where("user_id = ? AND phone_number = ?", ownerID, phone).
		First(&contact).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

// CreateIgnoringDuplicates inserts contacts, silently skipping rows that
// would break the (owner, phone number) unique index
func (c *Contacts) CreateIgnoringDuplicates(ctx context.Context, contacts []model.Contact) (int64, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	res := c.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&contacts)
	return res.RowsAffected, translate(res.Error)
}

func (c *Contacts) Create(ctx context.Context, contact *model.Contact) error {
	return translate(c.conn(ctx).Create(contact).Error)
}

// Save writes every column of contact, zero values included
func (c *Contacts) Save(ctx context.Context, contact *model.Contact) error {
	return translate(c.conn(ctx).Save(contact).Error)
}

func (c *Contacts) Delete(ctx context.Context, id string) error {
	res := c.conn(ctx).Where("id = ?", id).Delete(&model.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchFavorites matches alias, full name or username of the owner's
// favorite contacts case-insensitively
func (c *Contacts) SearchFavorites(ctx context.Context, ownerID, term string) ([]model.Contact, error) {
	pattern := likePattern(term)

	contacts := []model.Contact{}
	err := c.conn(ctx).
		Where("user_id = ? AND favorite = ?", ownerID, true).
		Where(`(LOWER(alias) LIKE ? ESCAPE '\' OR LOWER(fullname) LIKE ? ESCAPE '\' OR LOWER(username) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern).
		Order("created_at asc, id asc").
		Find(&contacts).
		Error
	return contacts, translate(err)
}
