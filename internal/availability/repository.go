// Package availability tracks date-keyed pickup and delivery slot
// counters. Each successful order consumes one slot for its date.
package availability

import (
	"context"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/pkg/common"
	"gorm.io/gorm"
)

var (
	ErrDateNotFound = errors.New("date not found")
	ErrDateExists   = errors.New("date already exists for this type")
	ErrDateInPast   = errors.New("cannot add dates in the past")
	ErrInvalidDate  = errors.New("invalid date format")
	ErrInvalidSlots = errors.New("total slots must be between 1 and 50")
	ErrInvalidType  = errors.New("invalid date type")
)

const maxSlotsPerDate = 50

// DateUpdate carries a partial mutation of an existing date row.
type DateUpdate struct {
	TotalSlots *int    `json:"totalSlots"`
	Notes      *string `json:"notes"`
}

// Repository is the availability data access contract.
type Repository interface {
	List(ctx context.Context, futureOnly bool) ([]domain.AvailableDate, error)
	Create(ctx context.Context, dtype, date string, totalSlots int, notes string) (*domain.AvailableDate, error)
	Update(ctx context.Context, id int64, in DateUpdate) (*domain.AvailableDate, error)
	Delete(ctx context.Context, id int64) error
	// DecrementSlot consumes one remaining slot for (type, date). It is a
	// no-op when the date is unknown or already at zero: the conditional
	// update guarantees remaining_slots never goes negative.
	DecrementSlot(ctx context.Context, dtype, date string) error
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// NormalizeDate parses flexible date input into the canonical YYYY-MM-DD
// form used as the slot key.
func NormalizeDate(s string) (string, error) {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format("2006-01-02"), nil
}

func (r *GormRepository) List(ctx context.Context, futureOnly bool) ([]domain.AvailableDate, error) {
	db := r.db.WithContext(ctx).Model(&domain.AvailableDate{})
	if futureOnly {
		today := time.Now().Format("2006-01-02")
		db = db.Where("date >= ?", today)
	}
	var dates []domain.AvailableDate
	if err := db.Order("date").Find(&dates).Error; err != nil {
		return nil, errors.Wrap(err, "list available dates")
	}
	return dates, nil
}

func (r *GormRepository) Create(ctx context.Context, dtype, date string, totalSlots int, notes string) (*domain.AvailableDate, error) {
	if dtype != domain.DateTypePickup && dtype != domain.DateTypeDelivery {
		return nil, ErrInvalidType
	}
	if totalSlots < 1 || totalSlots > maxSlotsPerDate {
		return nil, ErrInvalidSlots
	}

	normalized, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	if normalized < time.Now().Format("2006-01-02") {
		return nil, ErrDateInPast
	}

	row := domain.AvailableDate{
		ID:             common.UUIDint64(),
		Type:           dtype,
		Date:           normalized,
		TotalSlots:     totalSlots,
		RemainingSlots: totalSlots,
		Notes:          notes,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDateExists
		}
		return nil, errors.Wrap(err, "create available date")
	}
	return &row, nil
}

// Update changes slot totals and notes. A total change preserves the
// already-consumed slots: remaining = max(0, newTotal - used).
func (r *GormRepository) Update(ctx context.Context, id int64, in DateUpdate) (*domain.AvailableDate, error) {
	var row domain.AvailableDate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDateNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "load available date")
	}

	if in.TotalSlots != nil {
		total := *in.TotalSlots
		if total < 1 || total > maxSlotsPerDate {
			return nil, ErrInvalidSlots
		}
		used := row.TotalSlots - row.RemainingSlots
		remaining := total - used
		if remaining < 0 {
			remaining = 0
		}
		row.TotalSlots = total
		row.RemainingSlots = remaining
	}
	if in.Notes != nil {
		row.Notes = *in.Notes
	}

	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, errors.Wrap(err, "update available date")
	}
	return &row, nil
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.AvailableDate{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete available date")
	}
	if res.RowsAffected == 0 {
		return ErrDateNotFound
	}
	return nil
}

func (r *GormRepository) DecrementSlot(ctx context.Context, dtype, date string) error {
	res := r.db.WithContext(ctx).Model(&domain.AvailableDate{}).
		Where("type = ? AND date = ? AND remaining_slots > 0", dtype, date).
		UpdateColumn("remaining_slots", gorm.Expr("remaining_slots - 1"))
	if res.Error != nil {
		return errors.Wrap(res.Error, "decrement slot")
	}
	return nil
}
