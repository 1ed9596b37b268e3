// Package catalog is the persistence layer for products, their variants
// and auxiliary images.
package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/pkg/common"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")
var ErrProductExists = errors.New("product id already exists")

// VariantInput is one variant row as submitted by the admin surface. The
// id is derived from the product id and name when not supplied.
type VariantInput struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Size  string  `json:"size"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// ProductUpsert carries a partial product mutation. Nil fields keep their
// previous values; a non-nil AdditionalImages or Variants slice fully
// replaces the prior set.
type ProductUpsert struct {
	ID               string          `json:"id"`
	Title            *string         `json:"title"`
	Description      *string         `json:"description"`
	Image            *string         `json:"img"`
	Category         *string         `json:"category"`
	Price            *float64        `json:"price"`
	Stock            *int            `json:"stock"`
	HasVariants      *bool           `json:"hasVariants"`
	AdditionalImages *[]string       `json:"additionalImages"`
	Variants         *[]VariantInput `json:"variants"`
}

// Repository is the catalog data access contract.
type Repository interface {
	GetAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, current *domain.Product, in ProductUpsert) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	StockIndex(ctx context.Context) (*StockIndex, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Preload("Images").Preload("Variants").
		Order("id").Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	return products, nil
}

func (r *GormRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).
		Preload("Images").Preload("Variants").
		Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "load product %s", id)
	}
	return &p, nil
}

func (r *GormRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Upsert applies a partial mutation on top of current (nil for creation).
// Provided image/variant sets replace the previous rows; omitted sets are
// left untouched. The variant invariant is enforced here: a product with
// variants carries NULL price and stock.
func (r *GormRepository) Upsert(ctx context.Context, current *domain.Product, in ProductUpsert) (*domain.Product, error) {
	next := domain.Product{ID: in.ID}
	if current != nil {
		next = *current
		next.Images = nil
		next.Variants = nil
	}

	if in.Title != nil {
		next.Title = *in.Title
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.Image != nil {
		next.Image = *in.Image
	}
	if in.Category != nil {
		next.Category = *in.Category
	}
	if in.HasVariants != nil {
		next.HasVariants = *in.HasVariants
	}
	if next.Category == "" {
		next.Category = "cookies"
	}

	if next.HasVariants {
		next.Price = nil
		next.Stock = nil
	} else {
		if in.Price != nil {
			next.Price = in.Price
		}
		if in.Stock != nil {
			stock := *in.Stock
			if stock < 0 {
				stock = 0
			}
			next.Stock = &stock
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if current == nil {
			if err := tx.Create(&next).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrProductExists
				}
				return errors.Wrapf(err, "create product %s", next.ID)
			}
		} else if err := tx.Save(&next).Error; err != nil {
			return errors.Wrapf(err, "save product %s", next.ID)
		}

		if in.AdditionalImages != nil {
			if err := tx.Where("product_id = ?", next.ID).Delete(&domain.ProductImage{}).Error; err != nil {
				return errors.Wrap(err, "replace product images")
			}
			for _, url := range *in.AdditionalImages {
				img := domain.ProductImage{ID: common.UUIDint64(), ProductID: next.ID, URL: url}
				if err := tx.Create(&img).Error; err != nil {
					return errors.Wrap(err, "insert product image")
				}
			}
		}

		if in.Variants != nil {
			if err := tx.Where("product_id = ?", next.ID).Delete(&domain.ProductVariant{}).Error; err != nil {
				return errors.Wrap(err, "replace product variants")
			}
			for _, v := range *in.Variants {
				vid := v.ID
				if vid == "" {
					vid = next.ID + "-" + common.Slugify(v.Name)
				}
				stock := v.Stock
				if stock < 0 {
					stock = 0
				}
				row := domain.ProductVariant{
					ID:        vid,
					ProductID: next.ID,
					Name:      v.Name,
					Size:      common.IfEmptyStr(v.Size, v.Name),
					Price:     v.Price,
					Stock:     stock,
				}
				if err := tx.Create(&row).Error; err != nil {
					return errors.Wrapf(err, "insert variant %s", vid)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, next.ID)
}

// Delete removes a product and cascades its images and variants.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductImage{}).Error; err != nil {
			return errors.Wrap(err, "delete product images")
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductVariant{}).Error; err != nil {
			return errors.Wrap(err, "delete product variants")
		}
		if err := tx.Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
			return errors.Wrapf(err, "delete product %s", id)
		}
		return nil
	})
}
