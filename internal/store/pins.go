package store

import (
	"context"
	"time"

	"bitwise74/contacts-api/internal/model"
)

type Pins struct {
	*Store
}

func (p *Pins) Create(ctx context.Context, pin *model.Pin) error {
	return translate(p.conn(ctx).Create(pin).Error)
}

// Consume looks up a usable pin for (code, ref) and flips it to invalid
// with a conditional update. Only one caller can win the update, the
// others get ErrNotFound. Pins created before notBefore are ignored
// unless notBefore is zero
func (p *Pins) Consume(ctx context.Context, code, ref string, notBefore time.Time) (*model.Pin, error) {
	var pin model.Pin

	err := p.WithinTx(ctx, func(ctx context.Context) error {
		q := p.conn(ctx).Where("code = ? AND ref = ? AND valid = ?", code, ref, true)
		if !notBefore.IsZero() {
			q = q.Where("created_at >= ?", notBefore)
		}

		if err := q.Order("created_at desc, id desc").First(&pin).Error; err != nil {
			return translate(err)
		}

		res := p.conn(ctx).
			Model(&model.Pin{}).
			Where("code = ? AND ref = ? AND valid = ?", code, ref, true).
			Update("valid", false)
		if res.Error != nil {
			return res.Error
		}

		// Someone else consumed it between the lookup and the update
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		pin.Valid = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &pin, nil
}

// FindConsumed returns a pin of the given purpose that was already used
func (p *Pins) FindConsumed(ctx context.Context, code, ref string, purpose model.PinPurpose) (*model.Pin, error) {
	var pin model.Pin
	err := p.conn(ctx).
		Where("code = ? AND ref = ? AND purpose = ? AND valid = ?", code, ref, purpose, false).
		Order("created_at desc").
		First(&pin).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &pin, nil
}

// HasConsumed reports whether any pin of the given purpose was used for ref
func (p *Pins) HasConsumed(ctx context.Context, ref string, purpose model.PinPurpose) (bool, error) {
	var count int64
	err := p.conn(ctx).
		Model(&model.Pin{}).
		Where("ref = ? AND purpose = ? AND valid = ?", ref, purpose, false).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Pins) Invalidate(ctx context.Context, code, ref string) error {
	return p.conn(ctx).
		Model(&model.Pin{}).
		Where("code = ? AND ref = ?", code, ref).
		Update("valid", false).
		Error
}
