package ordering

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/asaskevich/EventBus"
	"github.com/talkincode/bakeshop/internal/catalog"
	"github.com/talkincode/bakeshop/internal/domain"
	"go.uber.org/zap"
)

// TopicOrderCreated is published on the event bus after a submission
// commits; subscribers receive an OrderCreatedEvent.
const TopicOrderCreated = "order.created"

const orderIDAttempts = 3

// OrderCreatedEvent carries everything a post-commit subscriber needs
// without touching the database again.
type OrderCreatedEvent struct {
	Order *domain.Order
	Items []CartItem
}

// CatalogIndexer supplies the point-in-time stock index used for
// submission validation.
type CatalogIndexer interface {
	StockIndex(ctx context.Context) (*catalog.StockIndex, error)
}

// SlotDecrementer consumes one delivery slot after an order commits.
type SlotDecrementer interface {
	DecrementSlot(ctx context.Context, dtype, date string) error
}

// Submission is the cleaned multipart form of a storefront order.
// ProofPath points at the staged upload file; ProofName is its stored
// basename.
type Submission struct {
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	CustomerAddress   string
	CustomerInstagram string
	CustomerNotes     string
	DeliveryDate      string
	DeliveryType      string
	DeliveryFee       float64
	Subtotal          float64
	Total             float64
	CartJSON          string
	SliderValue       string
	ProofName         string
	ProofPath         string
}

// Service orchestrates order submission and lookup. Stock validation runs
// against an in-memory index; the decrements themselves are conditional
// updates inside the ledger transaction, so a stale index can delay an
// order but never oversell.
type Service struct {
	ledger  Ledger
	catalog CatalogIndexer
	slots   SlotDecrementer
	bus     EventBus.Bus
}

func NewService(ledger Ledger, cat CatalogIndexer, slots SlotDecrementer, bus EventBus.Bus) *Service {
	return &Service{ledger: ledger, catalog: cat, slots: slots, bus: bus}
}

// SubmitOrder runs the full submission flow: field validation, human
// verification, cart parse, stock plan, transactional create with an
// order-id retry, then slot decrement and event publish after commit.
// The staged proof file is removed whenever the order does not commit.
func (s *Service) SubmitOrder(ctx context.Context, in Submission) (*domain.Order, error) {
	order, err := s.submitOrder(ctx, in)
	if err != nil && in.ProofPath != "" {
		if rerr := os.Remove(in.ProofPath); rerr != nil && !os.IsNotExist(rerr) {
			zap.L().Warn("remove staged payment proof failed",
				zap.String("path", in.ProofPath), zap.Error(rerr))
		}
	}
	return order, err
}

func (s *Service) submitOrder(ctx context.Context, in Submission) (*domain.Order, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" || strings.TrimSpace(in.CustomerEmail) == "" ||
		strings.TrimSpace(in.CustomerPhone) == "" ||
		strings.TrimSpace(in.DeliveryDate) == "" || strings.TrimSpace(in.CartJSON) == "" {
		return nil, validationErrorf("missing required fields")
	}
	if in.SliderValue != "1" {
		return nil, validationErrorf("please complete the verification slider")
	}
	if in.ProofName == "" {
		return nil, validationErrorf("payment proof is required")
	}

	items, snapshot, err := ParseCart(in.CartJSON)
	if err != nil {
		if IsValidationError(err) {
			return nil, err
		}
		return nil, validationErrorf("invalid cart data")
	}
	if len(items) == 0 {
		return nil, validationErrorf("cart is empty")
	}

	idx, err := s.catalog.StockIndex(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := ResolvePlan(idx, AggregateQuantities(items))
	if err != nil {
		return nil, err
	}

	deliveryType := strings.ToLower(strings.TrimSpace(in.DeliveryType))
	if deliveryType == "" {
		deliveryType = domain.DateTypePickup
	}

	order := &domain.Order{
		CustomerName:      name,
		CustomerEmail:     strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:     strings.TrimSpace(in.CustomerPhone),
		CustomerAddress:   strings.TrimSpace(in.CustomerAddress),
		CustomerInstagram: strings.TrimSpace(in.CustomerInstagram),
		CustomerNotes:     strings.TrimSpace(in.CustomerNotes),
		DeliveryDate:      strings.TrimSpace(in.DeliveryDate),
		DeliveryType:      deliveryType,
		DeliveryFee:       in.DeliveryFee,
		Subtotal:          in.Subtotal,
		Total:             in.Total,
		PaymentProof:      in.ProofName,
		PaymentProofPath:  in.ProofPath,
		CartItems:         snapshot,
		Status:            domain.OrderStatusPending,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	// Concurrent submissions under the same prefix can collide on the
	// counted suffix; the primary-key violation rolls the transaction back
	// and the next attempt counts again.
	prefix := orderIDPrefix(name)
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		seq, err := s.ledger.CountByPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		order.ID = fmt.Sprintf("%s%03d", prefix, seq+1)
		err = s.ledger.CreateWithDecrements(ctx, order, plan)
		if err == nil {
			break
		}
		if err == ErrDuplicateOrderID && attempt < orderIDAttempts-1 {
			continue
		}
		return nil, err
	}

	// Best effort: slot exhaustion after commit is tolerated, the
	// decrement simply no-ops at zero.
	if err := s.slots.DecrementSlot(ctx, deliveryType, order.DeliveryDate); err != nil {
		zap.L().Warn("slot decrement failed",
			zap.String("order_id", order.ID),
			zap.String("date", order.DeliveryDate), zap.Error(err))
	}

	if s.bus != nil {
		s.bus.Publish(TopicOrderCreated, OrderCreatedEvent{Order: order, Items: items})
	}
	return order, nil
}

// orderIDPrefix derives the id prefix from the first 3 letters of the
// customer name, uppercased, padded with X for short names.
func orderIDPrefix(name string) string {
	runes := make([]rune, 0, 3)
	for _, r := range strings.TrimSpace(name) {
		runes = append(runes, unicode.ToUpper(r))
		if len(runes) == 3 {
			break
		}
	}
	for len(runes) < 3 {
		runes = append(runes, 'X')
	}
	return string(runes)
}

// GetOrder returns the public order view exposed to customers holding an
// order id. Contact details beyond name and email are withheld.
func (s *Service) GetOrder(ctx context.Context, id string) (map[string]interface{}, error) {
	order, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var items interface{}
	if err := json.UnmarshalFromString(order.CartItems, &items); err != nil {
		items = []interface{}{}
	}
	return map[string]interface{}{
		"id": order.ID,
		"customer": map[string]interface{}{
			"name":  order.CustomerName,
			"email": order.CustomerEmail,
		},
		"items": items,
		"delivery": map[string]interface{}{
			"date": order.DeliveryDate,
			"type": order.DeliveryType,
			"fee":  order.DeliveryFee,
		},
		"payment": map[string]interface{}{
			"subtotal": order.Subtotal,
			"total":    order.Total,
		},
		"status":     order.Status,
		"created_at": order.CreatedAt,
	}, nil
}

// ValidateStock checks a single entity quantity against current stock,
// variant ids taking precedence over product ids.
func (s *Service) ValidateStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return validationErrorf("quantity must be positive")
	}
	idx, err := s.catalog.StockIndex(ctx)
	if err != nil {
		return err
	}
	_, err = ResolvePlan(idx, map[string]int{id: qty})
	return err
}

// GetStock reports the current stock for an entity id. The second return
// is false when the id is unknown or the product is unlimited.
func (s *Service) GetStock(ctx context.Context, id string) (int, bool, error) {
	idx, err := s.catalog.StockIndex(ctx)
	if err != nil {
		return 0, false, err
	}
	if v, ok := idx.Variants[id]; ok {
		return v.Stock, true, nil
	}
	if p, ok := idx.Products[id]; ok && p.Stock != nil {
		return *p.Stock, true, nil
	}
	return 0, false, nil
}
