package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCart(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantItems int
		wantErr   bool
	}{
		{
			name:      "item array",
			raw:       `[{"id":"choco-chip","title":"Cookies","price":25,"qty":2}]`,
			wantItems: 1,
		},
		{
			name:      "id keyed object",
			raw:       `{"choco-chip":{"id":"choco-chip","qty":2},"cake-6in":{"id":"cake-6in","qty":1}}`,
			wantItems: 2,
		},
		{
			name:      "alternate field spellings",
			raw:       `[{"productId":"choco-chip","quantity":3}]`,
			wantItems: 1,
		},
		{
			name:    "malformed json",
			raw:     `{"id":`,
			wantErr: true,
		},
		{
			name:    "scalar payload",
			raw:     `42`,
			wantErr: true,
		},
		{
			name:      "empty array",
			raw:       `[]`,
			wantItems: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, snapshot, err := ParseCart(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantItems)
			assert.NotEmpty(t, snapshot)
		})
	}
}

func TestParseCartPreservesUnknownFields(t *testing.T) {
	raw := `[{"id":"choco-chip","qty":2,"giftWrap":true,"note":"no nuts"}]`
	items, snapshot, err := ParseCart(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	// The stored snapshot keeps fields the server does not model.
	assert.Contains(t, snapshot, "giftWrap")
	assert.Contains(t, snapshot, "no nuts")
}

func TestParseCartSnapshotVerbatim(t *testing.T) {
	// The snapshot keeps the submitted payload byte for byte, whatever
	// its shape.
	for _, raw := range []string{
		`[{"id":"choco-chip","qty":2}]`,
		`{"cake-6in":{"id":"cake-6in","qty":1},"choco-chip":{"id":"choco-chip","qty":2}}`,
	} {
		_, snapshot, err := ParseCart(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, snapshot)
	}
}

func TestCartItemAccessors(t *testing.T) {
	assert.Equal(t, "a", CartItem{ID: "a", ProductID: "b"}.EntityID())
	assert.Equal(t, "b", CartItem{ProductID: "b"}.EntityID())
	assert.Equal(t, 2, CartItem{Qty: 2, Quantity: 5}.Count())
	assert.Equal(t, 5, CartItem{Quantity: 5}.Count())
}

func TestAggregateQuantities(t *testing.T) {
	items := []CartItem{
		{ID: "choco-chip", Qty: 2},
		{ID: "choco-chip", Qty: 3},
		{ProductID: "cake-6in", Quantity: 1},
		{ID: "", Qty: 5},
		{ID: "freebie", Qty: 0},
		{ID: "negative", Qty: -2},
	}
	got := AggregateQuantities(items)
	assert.Equal(t, map[string]int{
		"choco-chip": 5,
		"cake-6in":   1,
	}, got)
}
