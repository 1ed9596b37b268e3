package availability

import (
	"context"
	"testing"
	"time"

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
	require.NoError(t, db.AutoMigrate(&domain.AvailableDate{}))
	return db
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func loadDate(t *testing.T, db *gorm.DB, dtype, date string) domain.AvailableDate {
	t.Helper()
	var row domain.AvailableDate
	require.NoError(t, db.Where("type = ? AND date = ?", dtype, date).First(&row).Error)
	return row
}

func TestDecrementSlotStopsAtZero(t *testing.T) {
	db := testDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	date := futureDate(7)
	_, err := repo.Create(ctx, domain.DateTypePickup, date, 2, "")
	require.NoError(t, err)

	// Two decrements drain the slots; further calls are no-ops, never an
	// error, never negative.
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.DecrementSlot(ctx, domain.DateTypePickup, date))
	}
	row := loadDate(t, db, domain.DateTypePickup, date)
	assert.Equal(t, 0, row.RemainingSlots)
	assert.Equal(t, 2, row.TotalSlots)
}

func TestDecrementSlotUnknownDateIsNoop(t *testing.T) {
	repo := NewGormRepository(testDB(t))
	assert.NoError(t, repo.DecrementSlot(context.Background(), domain.DateTypePickup, "2099-01-01"))
}

func TestCreateDateValidation(t *testing.T) {
	repo := NewGormRepository(testDB(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		dtype   string
		date    string
		slots   int
		wantErr error
	}{
		{"bad type", "shipping", futureDate(7), 5, ErrInvalidType},
		{"zero slots", domain.DateTypePickup, futureDate(7), 0, ErrInvalidSlots},
		{"too many slots", domain.DateTypePickup, futureDate(7), 51, ErrInvalidSlots},
		{"unparseable date", domain.DateTypePickup, "someday", 5, ErrInvalidDate},
		{"past date", domain.DateTypePickup, "2020-01-01", 5, ErrDateInPast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.dtype, tt.date, tt.slots, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateDuplicateDate(t *testing.T) {
	repo := NewGormRepository(testDB(t))
	ctx := context.Background()
	date := futureDate(7)

	_, err := repo.Create(ctx, domain.DateTypePickup, date, 5, "")
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.DateTypePickup, date, 3, "")
	assert.ErrorIs(t, err, ErrDateExists)

	// Same date under the other type is a distinct slot pool.
	_, err = repo.Create(ctx, domain.DateTypeDelivery, date, 3, "")
	assert.NoError(t, err)
}

func TestUpdatePreservesUsedSlots(t *testing.T) {
	db := testDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	date := futureDate(7)
	created, err := repo.Create(ctx, domain.DateTypePickup, date, 5, "")
	require.NoError(t, err)
	require.NoError(t, repo.DecrementSlot(ctx, domain.DateTypePickup, date))
	require.NoError(t, repo.DecrementSlot(ctx, domain.DateTypePickup, date))

	// 2 of 5 consumed; shrinking the total keeps the consumption.
	four := 4
	row, err := repo.Update(ctx, created.ID, DateUpdate{TotalSlots: &four})
	require.NoError(t, err)
	assert.Equal(t, 2, row.RemainingSlots)

	// A total below what was already consumed floors remaining at zero.
	one := 1
	row, err = repo.Update(ctx, created.ID, DateUpdate{TotalSlots: &one})
	require.NoError(t, err)
	assert.Equal(t, 0, row.RemainingSlots)
}
