package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/order-saga-service/models"
	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
	"github.com/yashrajoria/order-saga-service/repository"
)

type fakeCustomerGateway struct {
	profile     *CustomerProfile
	addresses   []models.Address
	customerErr error
}

func (f *fakeCustomerGateway) GetCustomer(ctx context.Context, customerID string) (*CustomerProfile, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.profile, nil
}

func (f *fakeCustomerGateway) GetAddresses(ctx context.Context, customerID string) ([]models.Address, error) {
	return f.addresses, nil
}

type fakeInventoryGateway struct {
	checkResp  *StockCheckResponse
	checkErr   error
	reserveErr error
	confirmErr error
	releaseErr error

	reserved  []string
	confirmed []string
	released  []string
}

func (f *fakeInventoryGateway) CheckStock(ctx context.Context, items []ReserveItem) (*StockCheckResponse, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	if f.checkResp != nil {
		return f.checkResp, nil
	}
	resp := &StockCheckResponse{AllAvailable: true}
	for _, item := range items {
		resp.Items = append(resp.Items, StockCheckItem{
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
			AvailableStock:    item.Quantity,
			Available:         true,
		})
	}
	return resp, nil
}

func (f *fakeInventoryGateway) Reserve(ctx context.Context, orderID, customerID string, items []ReserveItem, ttlMinutes int) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	f.reserved = append(f.reserved, orderID)
	return nil
}

func (f *fakeInventoryGateway) Confirm(ctx context.Context, orderID string, items []ReserveItem) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.confirmed = append(f.confirmed, orderID)
	return nil
}

func (f *fakeInventoryGateway) Release(ctx context.Context, orderID, reason string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.released = append(f.released, orderID)
	return nil
}

type publishedEvent struct {
	Topic     string
	Key       string
	EventType string
	EntityID  string
	Data      any
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key, eventType, entityID string, data any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic, key, eventType, entityID, data})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	var out []publishedEvent
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type sagaFixture struct {
	service   *OrderService
	orders    *repository.MemoryOrderRepository
	carts     *repository.MemoryCartRepository
	customers *fakeCustomerGateway
	inventory *fakeInventoryGateway
	publisher *recordingPublisher

	customerID string
	addressID  string
}

func newSagaFixture(t *testing.T) *sagaFixture {
	t.Helper()
	customerID := uuid.NewString()
	f := &sagaFixture{
		orders: repository.NewMemoryOrderRepository(),
		carts:  repository.NewMemoryCartRepository(),
		customers: &fakeCustomerGateway{
			profile: &CustomerProfile{ID: customerID, Name: "Ada Lovelace", Email: "ada@example.com"},
			addresses: []models.Address{
				{AddressID: "addr-1", Line1: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"},
			},
		},
		inventory:  &fakeInventoryGateway{},
		publisher:  &recordingPublisher{},
		customerID: customerID,
		addressID:  "addr-1",
	}
	f.service = NewOrderService(f.orders, f.carts, f.customers, f.inventory, f.publisher, 30)
	return f
}

func (f *sagaFixture) seedCart(t *testing.T, items ...models.CartItem) {
	t.Helper()
	cart, err := f.carts.Get(context.Background(), f.customerID)
	require.NoError(t, err)
	if cart == nil {
		cart = &models.Cart{CustomerID: f.customerID}
	}
	cart.Items = items
	cart.Recalculate()
	require.NoError(t, f.carts.Save(context.Background(), cart))
}

func defaultCartItems() []models.CartItem {
	return []models.CartItem{
		{ProductID: "p1", SellerID: "s1", ProductName: "Widget", Quantity: 2, UnitPrice: 1500},
		{ProductID: "p2", SellerID: "s2", ProductName: "Gadget", Quantity: 1, UnitPrice: 4200},
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)

	order, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "leave at door")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.Equal(t, 3, order.TotalItems)
	assert.Equal(t, 2*1500+4200, order.TotalAmount)
	assert.Equal(t, "Ada Lovelace", order.CustomerName)
	assert.Equal(t, "1 Main St", order.Address.Line1)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, 3000, order.OrderItems[0].TotalPrice)

	// the reservation is keyed by the order id
	require.Len(t, f.inventory.reserved, 1)
	assert.Equal(t, order.ID.String(), f.inventory.reserved[0])

	// the cart is emptied, not deleted
	cart, err := f.carts.Get(context.Background(), f.customerID)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)

	placed := f.publisher.ofType(models.EventOrderPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, models.TopicOrders, placed[0].Topic)
	assert.Equal(t, order.OrderNumber, placed[0].Key)

	customerNote := f.publisher.ofType(models.EventCustomerOrderPlaced)
	require.Len(t, customerNote, 1)
	assert.Equal(t, models.TopicNotifications, customerNote[0].Topic)
	assert.Equal(t, f.customerID, customerNote[0].Key)

	// one notification per distinct seller, keyed by seller id
	sellerNotes := f.publisher.ofType(models.EventSellerOrderPlaced)
	require.Len(t, sellerNotes, 2)
	assert.Equal(t, "s1", sellerNotes[0].Key)
	assert.Equal(t, "s2", sellerNotes[1].Key)
}

func TestPlaceOrderCompensatesOnReserveFailure(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	f.inventory.reserveErr = apperrors.UpstreamRejected("insufficient stock")

	_, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstreamRejected))

	// the pending order was compensated to cancelled
	orders, total, lerr := f.orders.FindAll(context.Background(), 1, 10)
	require.NoError(t, lerr)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.StatusCancelled, orders[0].Status)
	assert.Equal(t, "Failed to reserve inventory", orders[0].CancelReason)
	assert.NotNil(t, orders[0].CanceledAt)

	// the cart is untouched
	cart, _ := f.carts.Get(context.Background(), f.customerID)
	require.NotNil(t, cart)
	assert.Len(t, cart.Items, 2)

	// no placed event, only the cancellation
	assert.Empty(t, f.publisher.ofType(models.EventOrderPlaced))
	assert.Len(t, f.publisher.ofType(models.EventOrderCancelled), 1)
}

func TestPlaceOrderCompensatesOnReserveTimeout(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	f.inventory.reserveErr = apperrors.UpstreamUnavailable("inventory service unreachable", errors.New("timeout"))

	_, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstreamUnavailable))

	orders, _, _ := f.orders.FindAll(context.Background(), 1, 10)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusCancelled, orders[0].Status)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newSagaFixture(t)

	_, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	f.seedCart(t) // exists but has no items
	_, err = f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestPlaceOrderUnknownAddress(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)

	_, err := f.service.PlaceOrder(context.Background(), f.customerID, "addr-nope", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.Empty(t, f.inventory.reserved)
}

func TestPlaceOrderStaleCartAvailability(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	f.inventory.checkResp = &StockCheckResponse{
		AllAvailable: false,
		Items: []StockCheckItem{
			{ProductID: "p1", RequestedQuantity: 2, AvailableStock: 2, Available: true},
			{ProductID: "p2", RequestedQuantity: 1, AvailableStock: 0, Available: false},
		},
	}

	_, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	appErr := apperrors.From(err)
	unavailable, ok := appErr.Details.([]models.UnavailableItem)
	require.True(t, ok)
	require.Len(t, unavailable, 1)
	assert.Equal(t, "p2", unavailable[0].ProductID)

	// no order was created and nothing was reserved
	_, total, _ := f.orders.FindAll(context.Background(), 1, 10)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, f.inventory.reserved)
}

func TestConfirmOrder(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	placed, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.NoError(t, err)

	confirmed, err := f.service.ConfirmOrder(context.Background(), placed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, []string{placed.ID.String()}, f.inventory.confirmed)
	assert.Len(t, f.publisher.ofType(models.EventOrderConfirmed), 1)

	// confirming again is an invalid transition
	_, err = f.service.ConfirmOrder(context.Background(), placed.ID.String())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestConfirmOrderInventoryFailureKeepsPending(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	placed, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.NoError(t, err)

	f.inventory.confirmErr = apperrors.UpstreamUnavailable("inventory service unreachable", errors.New("timeout"))
	_, err = f.service.ConfirmOrder(context.Background(), placed.ID.String())
	require.Error(t, err)

	current, err := f.service.GetOrderByID(context.Background(), placed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status)
}

func TestCancelOrderReleasesReservation(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	placed, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(context.Background(), placed.ID.String(), "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.Equal(t, []string{placed.ID.String()}, f.inventory.released)
	assert.Len(t, f.publisher.ofType(models.EventOrderCancelled), 1)
}

func TestCancelOrderSucceedsWhenReleaseFails(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	placed, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.NoError(t, err)

	f.inventory.releaseErr = apperrors.UpstreamUnavailable("inventory service unreachable", errors.New("timeout"))
	cancelled, err := f.service.CancelOrder(context.Background(), placed.ID.String(), "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestCancelOrderInvalidFromShipped(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	placed, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.NoError(t, err)

	_, err = f.service.ConfirmOrder(context.Background(), placed.ID.String())
	require.NoError(t, err)
	_, err = f.service.UpdateOrderStatus(context.Background(), placed.ID.String(), models.StatusProcessing)
	require.NoError(t, err)
	_, err = f.service.UpdateOrderStatus(context.Background(), placed.ID.String(), models.StatusShipped)
	require.NoError(t, err)

	_, err = f.service.CancelOrder(context.Background(), placed.ID.String(), "too late")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestUpdateOrderStatusAdminTransitions(t *testing.T) {
	f := newSagaFixture(t)
	f.seedCart(t, defaultCartItems()...)
	placed, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
	require.NoError(t, err)

	// admins cannot confirm via the generic status update
	_, err = f.service.UpdateOrderStatus(context.Background(), placed.ID.String(), models.StatusConfirmed)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = f.service.ConfirmOrder(context.Background(), placed.ID.String())
	require.NoError(t, err)

	// skipping a step is rejected
	_, err = f.service.UpdateOrderStatus(context.Background(), placed.ID.String(), models.StatusShipped)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	order, err := f.service.UpdateOrderStatus(context.Background(), placed.ID.String(), models.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, order.Status)

	_, err = f.service.UpdateOrderStatus(context.Background(), placed.ID.String(), "bogus")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	assert.Len(t, f.publisher.ofType(models.EventOrderStatusUpdated), 1)
}

func TestGetCustomerOrdersPagination(t *testing.T) {
	f := newSagaFixture(t)
	for i := 0; i < 3; i++ {
		f.seedCart(t, defaultCartItems()...)
		_, err := f.service.PlaceOrder(context.Background(), f.customerID, f.addressID, "")
		require.NoError(t, err)
	}

	result, err := f.service.GetCustomerOrders(context.Background(), f.customerID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, result.Orders, 2)
	assert.EqualValues(t, 3, result.Meta.TotalOrders)
	assert.EqualValues(t, 2, result.Meta.TotalPages)
	assert.True(t, result.Meta.HasMore)

	result, err = f.service.GetCustomerOrders(context.Background(), f.customerID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, result.Orders, 1)
	assert.False(t, result.Meta.HasMore)
}

func TestPlaceOrderInvalidCustomerID(t *testing.T) {
	f := newSagaFixture(t)
	_, err := f.service.PlaceOrder(context.Background(), "not-a-uuid", f.addressID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
