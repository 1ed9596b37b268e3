package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/bakeshop/internal/catalog"
	"github.com/talkincode/bakeshop/internal/domain"
)

func intPtr(v int) *int { return &v }

func testIndex() *catalog.StockIndex {
	return &catalog.StockIndex{
		Products: map[string]catalog.ProductStock{
			"choco-chip": {Title: "Chocolate Chip Cookies", Stock: intPtr(10)},
			"banana":     {Title: "Banana Bread", Stock: nil},
			"brownie":    {Title: "Fudge Brownies", Stock: intPtr(0)},
		},
		Variants: map[string]catalog.VariantStock{
			"cake-6in": {ProductID: "cake", DisplayTitle: "Celebration Cake - 6 inch", Stock: 3},
			"cake-8in": {ProductID: "cake", DisplayTitle: "Celebration Cake - 8 inch", Stock: 0},
		},
	}
}

func TestResolvePlan(t *testing.T) {
	tests := []struct {
		name      string
		requested map[string]int
		wantPlan  int
		wantErr   string
		wantAvail int
	}{
		{
			name:      "product within stock",
			requested: map[string]int{"choco-chip": 4},
			wantPlan:  1,
		},
		{
			name:      "variant within stock",
			requested: map[string]int{"cake-6in": 3},
			wantPlan:  1,
		},
		{
			name:      "unlimited product never blocks",
			requested: map[string]int{"banana": 999},
			wantPlan:  0,
		},
		{
			name:      "unknown id passes through",
			requested: map[string]int{"gift-card": 2},
			wantPlan:  0,
		},
		{
			name:      "product over stock",
			requested: map[string]int{"choco-chip": 11},
			wantErr:   "Insufficient stock for Chocolate Chip Cookies. Available: 10.",
			wantAvail: 10,
		},
		{
			name:      "variant over stock",
			requested: map[string]int{"cake-8in": 1},
			wantErr:   "Insufficient stock for Celebration Cake - 8 inch. Available: 0.",
			wantAvail: 0,
		},
		{
			name:      "zero stock exact zero request skipped by aggregation upstream",
			requested: map[string]int{"brownie": 1},
			wantErr:   "Insufficient stock for Fudge Brownies. Available: 0.",
			wantAvail: 0,
		},
		{
			name:      "one insufficiency rejects whole plan",
			requested: map[string]int{"choco-chip": 2, "cake-8in": 1},
			wantErr:   "Insufficient stock for Celebration Cake - 8 inch. Available: 0.",
			wantAvail: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ResolvePlan(testIndex(), tt.requested)
			if tt.wantErr != "" {
				require.Error(t, err)
				se, isStock := AsStockError(err)
				require.True(t, isStock)
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Equal(t, tt.wantAvail, se.Available)
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			assert.Len(t, plan, tt.wantPlan)
		})
	}
}

func TestResolvePlanVariantPrecedence(t *testing.T) {
	idx := testIndex()
	// A variant id shadowing a product id resolves to the variant.
	idx.Products["cake-6in"] = catalog.ProductStock{Title: "Shadowed", Stock: intPtr(0)}

	plan, err := ResolvePlan(idx, map[string]int{"cake-6in": 2})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, RefVariant, plan[0].Kind)
	assert.Equal(t, "Celebration Cake - 6 inch", plan[0].Title)
}

func TestResolvePlanDeterministicError(t *testing.T) {
	idx := testIndex()
	requested := map[string]int{"cake-8in": 1, "choco-chip": 99}
	// Ids are resolved in sorted order, so the same request always
	// reports the same entity.
	for i := 0; i < 10; i++ {
		_, err := ResolvePlan(idx, requested)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Celebration Cake - 8 inch")
	}
}

func TestBuildStockIndexFromProducts(t *testing.T) {
	price := 25.0
	products := []domain.Product{
		{ID: "choco-chip", Title: "Chocolate Chip Cookies", Price: &price, Stock: intPtr(10)},
		{
			ID: "cake", Title: "Celebration Cake", HasVariants: true,
			Variants: []domain.ProductVariant{
				{ID: "cake-6in", ProductID: "cake", Name: "6 inch", Stock: 3},
			},
		},
	}
	idx := catalog.BuildStockIndex(products)
	require.Contains(t, idx.Products, "choco-chip")
	require.Contains(t, idx.Variants, "cake-6in")
	assert.Equal(t, "Celebration Cake - 6 inch", idx.Variants["cake-6in"].DisplayTitle)
	assert.Equal(t, 3, idx.Variants["cake-6in"].Stock)
}
