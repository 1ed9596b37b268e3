package ordering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/bakeshop/internal/catalog"
	"github.com/talkincode/bakeshop/internal/domain"
)

// fakeLedger mimics the transactional create: conditional decrements
// against an in-memory stock table, all-or-nothing.
type fakeLedger struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	variants map[string]int
	products map[string]int
	// createErrs is consumed once per CreateWithDecrements call, for
	// injecting duplicate-id failures.
	createErrs []error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		orders:   make(map[string]*domain.Order),
		variants: make(map[string]int),
		products: make(map[string]int),
	}
}

func (f *fakeLedger) CreateWithDecrements(ctx context.Context, order *domain.Order, plan []StockDecrement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := f.orders[order.ID]; exists {
		return ErrDuplicateOrderID
	}
	// Validate the whole plan before mutating anything.
	for _, d := range plan {
		stock := f.stockFor(d)
		if stock < d.Qty {
			return &StockInsufficientError{Title: d.Title, Available: stock}
		}
	}
	for _, d := range plan {
		if d.Kind == RefVariant {
			f.variants[d.ID] -= d.Qty
		} else {
			f.products[d.ID] -= d.Qty
		}
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeLedger) stockFor(d StockDecrement) int {
	if d.Kind == RefVariant {
		return f.variants[d.ID]
	}
	return f.products[d.ID]
}

func (f *fakeLedger) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id := range f.orders {
		if strings.HasPrefix(id, prefix) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, exists := f.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeLedger) List(ctx context.Context, status string, pos, count int) ([]domain.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeLedger) UpdateStatus(ctx context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !domain.ValidOrderStatus(status) {
		return validationErrorf("invalid status: %s", status)
	}
	order, exists := f.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	order.Status = status
	return nil
}

type fakeCatalog struct {
	idx *catalog.StockIndex
}

func (f *fakeCatalog) StockIndex(ctx context.Context) (*catalog.StockIndex, error) {
	return f.idx, nil
}

type fakeSlots struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSlots) DecrementSlot(ctx context.Context, dtype, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dtype+"/"+date)
	return f.err
}

func newTestService(ledger *fakeLedger, idx *catalog.StockIndex, slots *fakeSlots) *Service {
	return NewService(ledger, &fakeCatalog{idx: idx}, slots, EventBus.New())
}

func validSubmission() Submission {
	return Submission{
		CustomerName:  "Maria Santos",
		CustomerEmail: "maria@example.com",
		CustomerPhone: "09171234567",
		DeliveryDate:  "2026-09-15",
		DeliveryType:  "pickup",
		Subtotal:      50,
		Total:         50,
		CartJSON:      `[{"id":"choco-chip","title":"Cookies","price":25,"qty":2}]`,
		SliderValue:   "1",
		ProofName:     "payment-123.jpg",
	}
}

func serviceFixture(t *testing.T) (*Service, *fakeLedger, *fakeSlots) {
	t.Helper()
	ledger := newFakeLedger()
	ledger.products["choco-chip"] = 10
	ledger.variants["cake-6in"] = 3
	slots := &fakeSlots{}
	return newTestService(ledger, testIndex(), slots), ledger, slots
}

func TestSubmitOrderSuccess(t *testing.T) {
	svc, ledger, slots := serviceFixture(t)

	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "MAR001", order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 8, ledger.products["choco-chip"])
	assert.Equal(t, []string{"pickup/2026-09-15"}, slots.calls)

	stored, err := ledger.GetByID(context.Background(), "MAR001")
	require.NoError(t, err)
	assert.Contains(t, stored.CartItems, "choco-chip")
}

func TestSubmitOrderValidation(t *testing.T) {
	mutations := []struct {
		name    string
		mutate  func(*Submission)
		message string
	}{
		{"missing name", func(s *Submission) { s.CustomerName = "  " }, "missing required fields"},
		{"missing email", func(s *Submission) { s.CustomerEmail = "" }, "missing required fields"},
		{"missing phone", func(s *Submission) { s.CustomerPhone = "" }, "missing required fields"},
		{"missing cart", func(s *Submission) { s.CartJSON = "" }, "missing required fields"},
		{"missing delivery date", func(s *Submission) { s.DeliveryDate = " " }, "missing required fields"},
		{"slider not solved", func(s *Submission) { s.SliderValue = "0" }, "verification slider"},
		{"missing proof", func(s *Submission) { s.ProofName = "" }, "payment proof"},
		{"malformed cart", func(s *Submission) { s.CartJSON = "{oops" }, "invalid cart data"},
		{"empty cart", func(s *Submission) { s.CartJSON = "[]" }, "cart is empty"},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			svc, ledger, slots := serviceFixture(t)
			in := validSubmission()
			tt.mutate(&in)

			_, err := svc.SubmitOrder(context.Background(), in)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.message)
			// Nothing committed, nothing decremented.
			assert.Equal(t, 10, ledger.products["choco-chip"])
			assert.Empty(t, slots.calls)
		})
	}
}

func TestSubmitOrderInsufficientStock(t *testing.T) {
	svc, ledger, slots := serviceFixture(t)
	in := validSubmission()
	in.CartJSON = `[{"id":"choco-chip","qty":11}]`

	_, err := svc.SubmitOrder(context.Background(), in)
	require.Error(t, err)
	se, isStock := AsStockError(err)
	require.True(t, isStock)
	assert.Equal(t, 10, se.Available)
	assert.Equal(t, 10, ledger.products["choco-chip"])
	assert.Empty(t, slots.calls)
}

func TestSubmitOrderSplitLinesAggregate(t *testing.T) {
	svc, _, _ := serviceFixture(t)
	in := validSubmission()
	// Two lines of 6 for a stock of 10 must be rejected as 12.
	in.CartJSON = `[{"id":"choco-chip","qty":6},{"id":"choco-chip","qty":6}]`

	_, err := svc.SubmitOrder(context.Background(), in)
	_, isStock := AsStockError(err)
	require.True(t, isStock)
}

func TestSubmitOrderRollbackOnLedgerConflict(t *testing.T) {
	svc, ledger, _ := serviceFixture(t)
	// Ledger reports mid-transaction insufficiency (a concurrent order
	// drained the stock between validation and commit).
	ledger.createErrs = []error{&StockInsufficientError{Title: "Chocolate Chip Cookies", Available: 1}}

	_, err := svc.SubmitOrder(context.Background(), validSubmission())
	se, isStock := AsStockError(err)
	require.True(t, isStock)
	assert.Equal(t, 1, se.Available)
	assert.Empty(t, ledger.orders)
}

func TestSubmitOrderIDSequence(t *testing.T) {
	svc, _, _ := serviceFixture(t)

	for i := 1; i <= 3; i++ {
		in := validSubmission()
		in.CartJSON = `[{"id":"choco-chip","qty":1}]`
		order, err := svc.SubmitOrder(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("MAR%03d", i), order.ID)
	}
}

func TestSubmitOrderRetriesDuplicateID(t *testing.T) {
	svc, ledger, _ := serviceFixture(t)
	ledger.createErrs = []error{ErrDuplicateOrderID, ErrDuplicateOrderID}

	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "MAR001", order.ID)
}

func TestSubmitOrderDuplicateIDExhausted(t *testing.T) {
	svc, ledger, _ := serviceFixture(t)
	ledger.createErrs = []error{ErrDuplicateOrderID, ErrDuplicateOrderID, ErrDuplicateOrderID}

	_, err := svc.SubmitOrder(context.Background(), validSubmission())
	assert.ErrorIs(t, err, ErrDuplicateOrderID)
}

func stageProofFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payment-123.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func TestSubmitOrderRemovesProofOnFailure(t *testing.T) {
	svc, ledger, _ := serviceFixture(t)
	ledger.createErrs = []error{&StockInsufficientError{Title: "Chocolate Chip Cookies", Available: 1}}

	in := validSubmission()
	in.ProofPath = stageProofFile(t)

	_, err := svc.SubmitOrder(context.Background(), in)
	require.Error(t, err)
	assert.NoFileExists(t, in.ProofPath)
}

func TestSubmitOrderRemovesProofOnValidationFailure(t *testing.T) {
	svc, _, _ := serviceFixture(t)
	in := validSubmission()
	in.ProofPath = stageProofFile(t)
	in.SliderValue = "0"

	_, err := svc.SubmitOrder(context.Background(), in)
	require.Error(t, err)
	assert.NoFileExists(t, in.ProofPath)
}

func TestSubmitOrderKeepsProofOnSuccess(t *testing.T) {
	svc, _, _ := serviceFixture(t)
	in := validSubmission()
	in.ProofPath = stageProofFile(t)

	_, err := svc.SubmitOrder(context.Background(), in)
	require.NoError(t, err)
	assert.FileExists(t, in.ProofPath)
}

func TestSubmitOrderSlotFailureTolerated(t *testing.T) {
	ledger := newFakeLedger()
	ledger.products["choco-chip"] = 10
	slots := &fakeSlots{err: fmt.Errorf("db down")}
	svc := newTestService(ledger, testIndex(), slots)

	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func TestSubmitOrderDefaultsDeliveryType(t *testing.T) {
	svc, _, slots := serviceFixture(t)
	in := validSubmission()
	in.DeliveryType = ""

	order, err := svc.SubmitOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.DateTypePickup, order.DeliveryType)
	assert.Equal(t, []string{"pickup/2026-09-15"}, slots.calls)
}

func TestSubmitOrderPublishesEvent(t *testing.T) {
	ledger := newFakeLedger()
	ledger.products["choco-chip"] = 10
	bus := EventBus.New()
	svc := NewService(ledger, &fakeCatalog{idx: testIndex()}, &fakeSlots{}, bus)

	var got OrderCreatedEvent
	require.NoError(t, bus.Subscribe(TopicOrderCreated, func(ev OrderCreatedEvent) {
		got = ev
	}))

	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	require.NoError(t, err)
	require.NotNil(t, got.Order)
	assert.Equal(t, order.ID, got.Order.ID)
	assert.Len(t, got.Items, 1)
}

func TestOrderIDPrefix(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Maria Santos", "MAR"},
		{"  jo  ", "JOX"},
		{"A", "AXX"},
		{"élodie", "ÉLO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, orderIDPrefix(tt.name), tt.name)
	}
}

func TestGetOrderPublicView(t *testing.T) {
	svc, _, _ := serviceFixture(t)
	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	require.NoError(t, err)

	view, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, view["id"])
	customer := view["customer"].(map[string]interface{})
	assert.Equal(t, "Maria Santos", customer["name"])
	// Contact details beyond name and email are withheld.
	assert.NotContains(t, customer, "phone")
	assert.NotContains(t, view, "payment_proof")

	_, err = svc.GetOrder(context.Background(), "NOPE001")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestValidateStock(t *testing.T) {
	svc, _, _ := serviceFixture(t)
	ctx := context.Background()

	assert.NoError(t, svc.ValidateStock(ctx, "choco-chip", 10))
	assert.NoError(t, svc.ValidateStock(ctx, "banana", 500))
	assert.NoError(t, svc.ValidateStock(ctx, "unknown-id", 3))

	err := svc.ValidateStock(ctx, "choco-chip", 11)
	_, isStock := AsStockError(err)
	assert.True(t, isStock)

	assert.True(t, IsValidationError(svc.ValidateStock(ctx, "choco-chip", 0)))
}

func TestGetStock(t *testing.T) {
	svc, _, _ := serviceFixture(t)
	ctx := context.Background()

	stock, limited, err := svc.GetStock(ctx, "cake-6in")
	require.NoError(t, err)
	assert.True(t, limited)
	assert.Equal(t, 3, stock)

	_, limited, err = svc.GetStock(ctx, "banana")
	require.NoError(t, err)
	assert.False(t, limited)

	_, limited, err = svc.GetStock(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, limited)
}
