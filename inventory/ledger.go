package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/order-saga-service/kafka"
	"github.com/yashrajoria/order-saga-service/models"
)

const DefaultReservationTTL = 30 * time.Minute

// InsufficientStockError reports which lines of a reserve or check request
// could not be covered. The reserve is all-or-nothing, so a single short line
// fails the whole request.
type InsufficientStockError struct {
	Details []CheckResult
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d item(s)", len(e.shortLines()))
}

func (e *InsufficientStockError) shortLines() []CheckResult {
	var short []CheckResult
	for _, item := range e.Details {
		if !item.Available {
			short = append(short, item)
		}
	}
	return short
}

// Ledger holds stock records and reservations. Every mutation runs under one
// mutex, so a check-and-reserve is a single critical section: two concurrent
// reserves for the last unit cannot both succeed.
type Ledger struct {
	mu           sync.Mutex
	records      map[string]*Record
	reservations map[string][]*Reservation // keyed by order id
	byProduct    map[string][]*Reservation

	ttl       time.Duration
	now       func() time.Time
	log       *zap.Logger
	publisher kafka.Publisher
}

type LedgerOption func(*Ledger)

func WithTTL(ttl time.Duration) LedgerOption {
	return func(l *Ledger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(log *zap.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

// WithPublisher enables best-effort stock events on the inventory topic.
func WithPublisher(p kafka.Publisher) LedgerOption {
	return func(l *Ledger) { l.publisher = p }
}

func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		records:      make(map[string]*Record),
		reservations: make(map[string][]*Reservation),
		byProduct:    make(map[string][]*Reservation),
		ttl:          DefaultReservationTTL,
		now:          time.Now,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetStock creates or replaces the stock record for a product.
func (l *Ledger) SetStock(productID string, stock int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[productID] = &Record{ProductID: productID, Stock: stock}
}

// GetRecord returns the stock record and current availability for a product.
func (l *Ledger) GetRecord(productID string) (*Record, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[productID]
	if !ok {
		return nil, 0, false
	}
	return &Record{ProductID: rec.ProductID, Stock: rec.Stock}, l.availableLocked(productID, l.now()), true
}

// Check reports availability for each line without taking any holds. The
// answer is advisory; only Reserve is authoritative.
func (l *Ledger) Check(items []LineItem) *CheckResponse {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkLocked(items, l.now())
}

func (l *Ledger) checkLocked(items []LineItem, now time.Time) *CheckResponse {
	resp := &CheckResponse{AllAvailable: true, Items: make([]CheckResult, 0, len(items))}
	for _, item := range items {
		available := l.availableLocked(item.ProductID, now)
		ok := item.Quantity > 0 && available >= item.Quantity
		if !ok {
			resp.AllAvailable = false
		}
		resp.Items = append(resp.Items, CheckResult{
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
			AvailableStock:    available,
			Available:         ok,
		})
	}
	return resp
}

// availableLocked is stock minus active, unexpired holds, floored at zero.
// Expired reservations stop counting here even before the sweeper flips their
// status.
func (l *Ledger) availableLocked(productID string, now time.Time) int {
	rec, ok := l.records[productID]
	if !ok {
		return 0
	}
	held := 0
	for _, r := range l.byProduct[productID] {
		if r.Status == ReservationActive && now.Before(r.ExpiresAt) {
			held += r.Quantity
		}
	}
	available := rec.Stock - held
	if available < 0 {
		available = 0
	}
	return available
}

// Reserve places holds for every line of an order, all-or-nothing. It is
// idempotent on the order id: a repeat call for a known order returns success
// without creating new holds, whatever its arguments.
func (l *Ledger) Reserve(ctx context.Context, orderID, customerID string, items []LineItem, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.ttl
	}

	l.mu.Lock()
	if _, seen := l.reservations[orderID]; seen {
		l.mu.Unlock()
		l.log.Info("duplicate reserve ignored", zap.String("order_id", orderID))
		return nil
	}

	now := l.now()
	check := l.checkLocked(items, now)
	if !check.AllAvailable {
		l.mu.Unlock()
		return &InsufficientStockError{Details: check.Items}
	}

	held := make([]*Reservation, 0, len(items))
	for _, item := range items {
		r := &Reservation{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			CustomerID: customerID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Status:     ReservationActive,
			ReservedAt: now,
			ExpiresAt:  now.Add(ttl),
		}
		held = append(held, r)
		l.byProduct[item.ProductID] = append(l.byProduct[item.ProductID], r)
	}
	l.reservations[orderID] = held
	events := snapshotEvents(held)
	l.mu.Unlock()

	l.log.Info("stock reserved",
		zap.String("order_id", orderID), zap.Int("lines", len(held)))
	l.publishStockEvents(ctx, models.EventStockReserved, events)
	return nil
}

// Confirm converts an order's active holds into permanent stock decrements.
// Confirming twice is a no-op; confirming an unknown order, or one whose hold
// has lapsed past its deadline, is an error. A lapsed hold's units may already
// back another order's reservation, so confirming it would oversell.
func (l *Ledger) Confirm(ctx context.Context, orderID string) error {
	l.mu.Lock()
	held, ok := l.reservations[orderID]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("no reservation found for order %s", orderID)
	}

	now := l.now()
	alreadyConfirmed := true
	for _, r := range held {
		if r.Status == ReservationConfirmed {
			continue
		}
		alreadyConfirmed = false
		if r.Status == ReservationActive && !now.Before(r.ExpiresAt) {
			// lapsed but not yet swept
			r.Status = ReservationExpired
			l.mu.Unlock()
			return fmt.Errorf("reservation for order %s expired, cannot confirm", orderID)
		}
		if r.Status != ReservationActive {
			l.mu.Unlock()
			return fmt.Errorf("reservation for order %s is %s, cannot confirm", orderID, r.Status)
		}
	}
	if alreadyConfirmed {
		l.mu.Unlock()
		return nil
	}

	var confirmed []*Reservation
	for _, r := range held {
		if r.Status != ReservationActive {
			continue
		}
		r.Status = ReservationConfirmed
		if rec, ok := l.records[r.ProductID]; ok {
			rec.Stock -= r.Quantity
		}
		confirmed = append(confirmed, r)
	}
	events := snapshotEvents(confirmed)
	l.mu.Unlock()

	l.log.Info("stock confirmed", zap.String("order_id", orderID))
	l.publishStockEvents(ctx, models.EventStockConfirmed, events)
	return nil
}

// Release cancels an order's active holds, returning the units to the
// available pool. Releasing an unknown order, or one whose holds are no longer
// active, is a no-op.
func (l *Ledger) Release(ctx context.Context, orderID, reason string) error {
	l.mu.Lock()
	held, ok := l.reservations[orderID]
	if !ok {
		l.mu.Unlock()
		return nil
	}

	var released []*Reservation
	for _, r := range held {
		if r.Status == ReservationActive {
			r.Status = ReservationCancelled
			released = append(released, r)
		}
	}
	events := snapshotEvents(released)
	l.mu.Unlock()

	if len(events) == 0 {
		return nil
	}
	l.log.Info("stock released",
		zap.String("order_id", orderID), zap.String("reason", reason))
	l.publishStockEvents(ctx, models.EventStockReleased, events)
	return nil
}

// ExpireDue flips holds past their deadline from active to expired. Expired
// holds already stopped counting against availability; this makes the state
// visible and emits the expiry events.
func (l *Ledger) ExpireDue(ctx context.Context) int {
	now := l.now()

	l.mu.Lock()
	var expired []*Reservation
	for _, held := range l.reservations {
		for _, r := range held {
			if r.Status == ReservationActive && !now.Before(r.ExpiresAt) {
				r.Status = ReservationExpired
				expired = append(expired, r)
			}
		}
	}
	events := snapshotEvents(expired)
	l.mu.Unlock()

	if len(events) > 0 {
		l.log.Info("reservations expired", zap.Int("count", len(events)))
		l.publishStockEvents(ctx, models.EventReservationExpired, events)
	}
	return len(events)
}

// StartSweeper runs ExpireDue on a ticker until ctx is cancelled.
func (l *Ledger) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.ExpireDue(ctx)
			}
		}
	}()
}

// stockEvent is a snapshot of a reservation's publishable fields, taken inside
// the critical section. The live *Reservation may be mutated by another
// goroutine the moment the mutex is released, so events never carry pointers.
type stockEvent struct {
	OrderID   string            `json:"order_id"`
	ProductID string            `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Status    ReservationStatus `json:"status"`
}

// snapshotEvents must be called with the mutex held.
func snapshotEvents(reservations []*Reservation) []stockEvent {
	events := make([]stockEvent, 0, len(reservations))
	for _, r := range reservations {
		events = append(events, stockEvent{
			OrderID:   r.OrderID,
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			Status:    r.Status,
		})
	}
	return events
}

// publishStockEvents runs outside the mutex; publish failures are logged, not
// propagated, since the ledger state already changed.
func (l *Ledger) publishStockEvents(ctx context.Context, eventType string, events []stockEvent) {
	if l.publisher == nil {
		return
	}
	for _, e := range events {
		if err := l.publisher.Publish(ctx, models.TopicInventory, e.ProductID, eventType, e.OrderID, e); err != nil {
			l.log.Warn("failed to publish stock event",
				zap.String("event_type", eventType), zap.String("product_id", e.ProductID), zap.Error(err))
		}
	}
}
