package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/order-saga-service/kafka"
	"github.com/yashrajoria/order-saga-service/models"
	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
	"github.com/yashrajoria/order-saga-service/pkg/logger"
	"github.com/yashrajoria/order-saga-service/repository"
)

const reserveFailureReason = "Failed to reserve inventory"

type OrderListResult struct {
	Orders []models.Order
	Meta   ListMeta
}

type ListMeta struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService orchestrates the order-placement saga. The order store and the
// inventory ledger are independent; there is no cross-service transaction, so
// a failed reservation is compensated by cancelling the just-created order.
type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	customers CustomerGateway
	inventory InventoryGateway
	publisher kafka.Publisher

	reservationTTLMinutes int
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	customers CustomerGateway,
	inventory InventoryGateway,
	publisher kafka.Publisher,
	reservationTTLMinutes int,
) *OrderService {
	if reservationTTLMinutes <= 0 {
		reservationTTLMinutes = 30
	}
	return &OrderService{
		orders:                orders,
		carts:                 carts,
		customers:             customers,
		inventory:             inventory,
		publisher:             publisher,
		reservationTTLMinutes: reservationTTLMinutes,
	}
}

// PlaceOrder turns the customer's cart into a pending order, reserves
// inventory for it, and compensates by cancelling the order when the
// reservation cannot be obtained. The order is never left pending without a
// corresponding reservation.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID, shippingAddressID, notes string) (*models.Order, error) {
	customerUUID, err := uuid.Parse(customerID)
	if err != nil {
		return nil, apperrors.Validation("invalid customer ID format")
	}
	if shippingAddressID == "" {
		return nil, apperrors.Validation("shipping address ID is required")
	}

	// 1. load cart
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load cart", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}

	// 2. customer profile + shipping address
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	addresses, err := s.customers.GetAddresses(ctx, customerID)
	if err != nil {
		return nil, err
	}
	var address *models.Address
	for i := range addresses {
		if addresses[i].AddressID == shippingAddressID {
			address = &addresses[i]
			break
		}
	}
	if address == nil {
		return nil, apperrors.NotFound("shipping address not found")
	}

	// 3. re-check availability; the cart's snapshot may be stale
	reserveItems := make([]ReserveItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		reserveItems = append(reserveItems, ReserveItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	check, err := s.inventory.CheckStock(ctx, reserveItems)
	if err != nil {
		return nil, err
	}
	if !check.AllAvailable {
		var unavailable []models.UnavailableItem
		for _, item := range check.Items {
			if !item.Available {
				unavailable = append(unavailable, models.UnavailableItem{
					ProductID: item.ProductID,
					Required:  item.RequestedQuantity,
					Available: item.AvailableStock,
				})
			}
		}
		return nil, apperrors.ConflictWithDetails("some items are no longer available", unavailable)
	}

	// 4. persist the order in pending status. This write happens before the
	// reservation; the two stores are reconciled by the compensation below.
	order := buildOrder(customerUUID, customer, *address, cart, notes)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.Persistence("failed to create order", err)
	}

	// 5. reserve inventory, keyed by the order id
	reserveErr := s.inventory.Reserve(ctx, order.ID.String(), customerID, reserveItems, s.reservationTTLMinutes)

	// 6. compensate on any reservation failure, including timeouts
	if reserveErr != nil {
		now := time.Now().UTC()
		order.Status = models.StatusCancelled
		order.CanceledAt = &now
		order.CancelReason = reserveFailureReason
		if err := s.orders.Update(ctx, order); err != nil {
			logger.Log.Error("compensation failed: order left pending without reservation",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		} else {
			s.publishOrderEvent(ctx, models.EventOrderCancelled, order, reserveFailureReason)
		}
		return nil, reserveErr
	}

	// 7. success: clear the cart, then fan out events
	s.clearCartAfterPlacement(ctx, customerID)
	s.publishOrderEvent(ctx, models.EventOrderPlaced, order, "")
	s.publishPlacementNotifications(ctx, order)

	logger.Log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("total_amount", order.TotalAmount))
	return order, nil
}

// ConfirmOrder converts the order's reservation into a permanent stock
// decrement and moves the order to confirmed. Only valid from pending.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, models.StatusConfirmed) {
		return nil, invalidTransition(order.Status, models.StatusConfirmed)
	}

	items := toReserveItems(order.OrderItems)
	if err := s.inventory.Confirm(ctx, order.ID.String(), items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.Status = models.StatusConfirmed
	order.ConfirmedAt = &now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.Persistence("failed to update order", err)
	}

	s.publishOrderEvent(ctx, models.EventOrderConfirmed, order, "")
	return order, nil
}

// CancelOrder releases the order's reservation and marks the order cancelled.
// Valid only from pending or confirmed. A failed release does not block the
// customer-facing cancellation; the inconsistency is logged for
// reconciliation.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, models.StatusCancelled) {
		return nil, invalidTransition(order.Status, models.StatusCancelled)
	}

	if err := s.inventory.Release(ctx, order.ID.String(), reason); err != nil {
		logger.Log.Warn("inventory release failed, cancelling locally; needs reconciliation",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	now := time.Now().UTC()
	order.Status = models.StatusCancelled
	order.CanceledAt = &now
	order.CancelReason = reason
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.Persistence("failed to update order", err)
	}

	s.publishOrderEvent(ctx, models.EventOrderCancelled, order, reason)
	return order, nil
}

// UpdateOrderStatus performs a forward, non-terminal fulfilment transition
// (confirmed → processing → shipped → delivered). It never touches inventory.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !models.IsValidStatus(status) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", status))
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanAdminTransition(order.Status, status) {
		return nil, invalidTransition(order.Status, status)
	}

	order.Status = status
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.Persistence("failed to update order", err)
	}

	s.publishOrderEvent(ctx, models.EventOrderStatusUpdated, order, "")
	return order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	return s.findOrder(ctx, orderID)
}

func (s *OrderService) GetCustomerOrders(ctx context.Context, customerID string, page, limit int) (*OrderListResult, error) {
	customerUUID, err := uuid.Parse(customerID)
	if err != nil {
		return nil, apperrors.Validation("invalid customer ID format")
	}

	orders, total, err := s.orders.FindByCustomerID(ctx, customerUUID, page, limit)
	if err != nil {
		return nil, apperrors.Persistence("failed to fetch orders", err)
	}
	return listResult(orders, total, page, limit), nil
}

func (s *OrderService) GetAllOrders(ctx context.Context, page, limit int) (*OrderListResult, error) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		return nil, apperrors.Persistence("failed to fetch orders", err)
	}
	return listResult(orders, total, page, limit), nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID string) (*models.Order, error) {
	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.Validation("invalid order ID format")
	}
	order, err := s.orders.FindByID(ctx, orderUUID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, apperrors.Persistence("failed to fetch order", err)
	}
	return order, nil
}

func (s *OrderService) clearCartAfterPlacement(ctx context.Context, customerID string) {
	for attempt := 0; attempt < maxCartRetries; attempt++ {
		cart, err := s.carts.Get(ctx, customerID)
		if err != nil || cart == nil {
			return
		}
		cart.Items = []models.CartItem{}
		cart.Recalculate()
		err = s.carts.Save(ctx, cart)
		if err == nil {
			return
		}
		if !errors.Is(err, repository.ErrCartVersionConflict) {
			logger.Log.Warn("failed to clear cart after placement",
				zap.String("customer_id", customerID), zap.Error(err))
			return
		}
	}
	logger.Log.Warn("failed to clear cart after placement: version conflicts",
		zap.String("customer_id", customerID))
}

// publishOrderEvent is best-effort: the order is already persisted, so a
// publish failure is logged and swallowed.
func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, order *models.Order, reason string) {
	payload := models.OrderEventPayload{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID.String(),
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Items:       toEventItems(order.OrderItems),
		Reason:      reason,
	}
	if err := s.publisher.Publish(ctx, models.TopicOrders, order.OrderNumber, eventType, order.ID.String(), payload); err != nil {
		logger.Log.Error("failed to publish order event",
			zap.String("event_type", eventType), zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

// publishPlacementNotifications sends one event to the customer and one per
// distinct seller with that seller's subset of the order.
func (s *OrderService) publishPlacementNotifications(ctx context.Context, order *models.Order) {
	customerPayload := models.CustomerNotificationPayload{
		RecipientID: order.CustomerID.String(),
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		ItemCount:   order.TotalItems,
	}
	if err := s.publisher.Publish(ctx, models.TopicNotifications, customerPayload.RecipientID,
		models.EventCustomerOrderPlaced, order.ID.String(), customerPayload); err != nil {
		logger.Log.Warn("failed to publish customer notification",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	bySeller := make(map[string][]models.OrderEventItem)
	var sellerOrder []string
	for _, item := range order.OrderItems {
		if _, seen := bySeller[item.SellerID]; !seen {
			sellerOrder = append(sellerOrder, item.SellerID)
		}
		bySeller[item.SellerID] = append(bySeller[item.SellerID], toEventItem(item))
	}

	for _, sellerID := range sellerOrder {
		items := bySeller[sellerID]
		subtotal := 0
		for _, item := range items {
			subtotal += item.TotalPrice
		}
		payload := models.SellerNotificationPayload{
			RecipientID: sellerID,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			Items:       items,
			Subtotal:    subtotal,
		}
		if err := s.publisher.Publish(ctx, models.TopicNotifications, sellerID,
			models.EventSellerOrderPlaced, order.ID.String(), payload); err != nil {
			logger.Log.Warn("failed to publish seller notification",
				zap.String("order_id", order.ID.String()), zap.String("seller_id", sellerID), zap.Error(err))
		}
	}
}

func buildOrder(customerID uuid.UUID, customer *CustomerProfile, address models.Address, cart *models.Cart, notes string) *models.Order {
	orderID := uuid.New()
	order := &models.Order{
		ID:            orderID,
		OrderNumber:   newOrderNumber(),
		CustomerID:    customerID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Address:       address,
		Status:        models.StatusPending,
		Notes:         notes,
	}
	for _, item := range cart.Items {
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   item.ProductID,
			SellerID:    item.SellerID,
			ProductName: item.ProductName,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.Quantity * item.UnitPrice,
		})
		order.TotalItems += item.Quantity
		order.TotalAmount += item.Quantity * item.UnitPrice
	}
	return order
}

func newOrderNumber() string {
	return "ORD-" + time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

func invalidTransition(from, to models.OrderStatus) error {
	return apperrors.Conflict(fmt.Sprintf("invalid state transition from %s to %s", from, to))
}

func listResult(orders []models.Order, total int64, page, limit int) *OrderListResult {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &OrderListResult{
		Orders: orders,
		Meta: ListMeta{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  totalPages,
			HasMore:     int64(page) < totalPages,
		},
	}
}

func toReserveItems(items []models.OrderItem) []ReserveItem {
	out := make([]ReserveItem, 0, len(items))
	for _, item := range items {
		out = append(out, ReserveItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}

func toEventItems(items []models.OrderItem) []models.OrderEventItem {
	out := make([]models.OrderEventItem, 0, len(items))
	for _, item := range items {
		out = append(out, toEventItem(item))
	}
	return out
}

func toEventItem(item models.OrderItem) models.OrderEventItem {
	return models.OrderEventItem{
		ProductID:  item.ProductID,
		SellerID:   item.SellerID,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		TotalPrice: item.TotalPrice,
	}
}
