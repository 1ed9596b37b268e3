package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/bakeshop/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Product{}, &domain.ProductImage{}, &domain.ProductVariant{}))
	return db
}

func strPtr(s string) *string   { return &s }
func numPtr(v float64) *float64 { return &v }
func countPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool      { return &v }

func TestUpsertCreateDuplicate(t *testing.T) {
	repo := NewGormRepository(testDB(t))
	ctx := context.Background()

	in := ProductUpsert{ID: "choco-chip", Title: strPtr("Chocolate Chip Cookies"),
		Price: numPtr(25), Stock: countPtr(10)}
	_, err := repo.Upsert(ctx, nil, in)
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, nil, in)
	assert.ErrorIs(t, err, ErrProductExists)
}

func TestUpsertPartialUpdate(t *testing.T) {
	repo := NewGormRepository(testDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, nil, ProductUpsert{
		ID:               "choco-chip",
		Title:            strPtr("Chocolate Chip Cookies"),
		Price:            numPtr(25),
		Stock:            countPtr(10),
		AdditionalImages: &[]string{"/uploads/products/a.jpg"},
	})
	require.NoError(t, err)

	current, err := repo.GetByID(ctx, "choco-chip")
	require.NoError(t, err)

	// Only the price is provided; title, stock and images stay.
	updated, err := repo.Upsert(ctx, current, ProductUpsert{
		ID:    "choco-chip",
		Price: numPtr(28),
	})
	require.NoError(t, err)
	assert.Equal(t, "Chocolate Chip Cookies", updated.Title)
	assert.Equal(t, 28.0, *updated.Price)
	assert.Equal(t, 10, *updated.Stock)
	assert.Equal(t, []string{"/uploads/products/a.jpg"}, updated.AdditionalImages())
}

func TestUpsertVariantsReplaceAndNullParentStock(t *testing.T) {
	repo := NewGormRepository(testDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, nil, ProductUpsert{
		ID:    "cake",
		Title: strPtr("Celebration Cake"),
		Price: numPtr(500),
		Stock: countPtr(5),
	})
	require.NoError(t, err)

	current, err := repo.GetByID(ctx, "cake")
	require.NoError(t, err)

	updated, err := repo.Upsert(ctx, current, ProductUpsert{
		ID:          "cake",
		HasVariants: boolPtr(true),
		Variants: &[]VariantInput{
			{Name: "6 inch", Price: 500, Stock: 3},
			{Name: "8 inch", Price: 750, Stock: 2},
		},
	})
	require.NoError(t, err)
	// Variant-tracked products carry no top-level price or stock.
	assert.Nil(t, updated.Price)
	assert.Nil(t, updated.Stock)
	require.Len(t, updated.Variants, 2)
	ids := []string{updated.Variants[0].ID, updated.Variants[1].ID}
	assert.ElementsMatch(t, []string{"cake-6-inch", "cake-8-inch"}, ids)

	// A later upsert omitting Variants keeps the existing set.
	updated, err = repo.Upsert(ctx, updated, ProductUpsert{ID: "cake", Title: strPtr("Party Cake")})
	require.NoError(t, err)
	assert.Len(t, updated.Variants, 2)
	assert.Equal(t, "Party Cake", updated.Title)
}

func TestDeleteCascades(t *testing.T) {
	db := testDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, nil, ProductUpsert{
		ID:               "cake",
		Title:            strPtr("Celebration Cake"),
		HasVariants:      boolPtr(true),
		AdditionalImages: &[]string{"/uploads/products/cake.jpg"},
		Variants:         &[]VariantInput{{Name: "6 inch", Price: 500, Stock: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "cake"))

	var images, variants int64
	db.Model(&domain.ProductImage{}).Count(&images)
	db.Model(&domain.ProductVariant{}).Count(&variants)
	assert.Zero(t, images)
	assert.Zero(t, variants)

	_, err = repo.GetByID(ctx, "cake")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
