package ordering

import (
	"context"
	"errors"
	"strings"

	"github.com/talkincode/bakeshop/internal/domain"
	"gorm.io/gorm"
)

// Ledger persists orders. CreateWithDecrements is the only write path for
// new orders: the stock decrements and the order row commit or roll back
// together.
type Ledger interface {
	CreateWithDecrements(ctx context.Context, order *domain.Order, plan []StockDecrement) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status string, pos, count int) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// CreateWithDecrements applies every planned decrement with a conditional
// update and inserts the order row in one transaction. A conditional update
// that matches no row means stock moved under us since validation; the
// transaction rolls back and the caller gets a StockInsufficientError with
// the stock as it stands now.
func (l *GormLedger) CreateWithDecrements(ctx context.Context, order *domain.Order, plan []StockDecrement) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range plan {
			var r *gorm.DB
			switch d.Kind {
			case RefVariant:
				r = tx.Model(&domain.ProductVariant{}).
					Where("id = ? AND stock >= ?", d.ID, d.Qty).
					UpdateColumn("stock", gorm.Expr("stock - ?", d.Qty))
			default:
				r = tx.Model(&domain.Product{}).
					Where("id = ? AND stock >= ?", d.ID, d.Qty).
					UpdateColumn("stock", gorm.Expr("stock - ?", d.Qty))
			}
			if r.Error != nil {
				return r.Error
			}
			if r.RowsAffected == 0 {
				avail, rerr := l.readStock(tx, d)
				if rerr != nil {
					return rerr
				}
				return &StockInsufficientError{Title: d.Title, Available: avail}
			}
		}
		return tx.Create(order).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateOrderID
	}
	return err
}

func (l *GormLedger) readStock(tx *gorm.DB, d StockDecrement) (int, error) {
	var stock int
	var r *gorm.DB
	if d.Kind == RefVariant {
		r = tx.Model(&domain.ProductVariant{}).Where("id = ?", d.ID).Select("stock").Scan(&stock)
	} else {
		r = tx.Model(&domain.Product{}).Where("id = ?", d.ID).Select("stock").Scan(&stock)
	}
	if r.Error != nil {
		return 0, r.Error
	}
	return stock, nil
}

func (l *GormLedger) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (l *GormLedger) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := l.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (l *GormLedger) List(ctx context.Context, status string, pos, count int) ([]domain.Order, int64, error) {
	query := l.db.WithContext(ctx).Model(&domain.Order{})
	if status = strings.TrimSpace(status); status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []domain.Order
	err := query.Order("created_at DESC").Offset(pos).Limit(count).Find(&orders).Error
	return orders, total, err
}

func (l *GormLedger) UpdateStatus(ctx context.Context, id string, status string) error {
	if !domain.ValidOrderStatus(status) {
		return validationErrorf("invalid status: %s", status)
	}
	r := l.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", id).Update("status", status)
	if r.Error != nil {
		return r.Error
	}
	if r.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
