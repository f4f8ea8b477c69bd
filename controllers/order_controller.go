package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/order-saga-service/models"
	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
	"github.com/yashrajoria/order-saga-service/services"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type placeOrderRequest struct {
	ShippingAddressID string `json:"shipping_address_id" binding:"required"`
	Notes             string `json:"notes"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (ctl *OrderController) PlaceOrder(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation(err.Error()))
		return
	}
	order, err := ctl.orders.PlaceOrder(c.Request.Context(), id, req.ShippingAddressID, req.Notes)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (ctl *OrderController) GetOrder(c *gin.Context) {
	order, err := ctl.orders.GetOrderByID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	page, limit := pagination(c)
	result, err := ctl.orders.GetCustomerOrders(c.Request.Context(), id, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": toOrderResponses(result.Orders),
		"meta":   result.Meta,
	})
}

func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	page, limit := pagination(c)
	result, err := ctl.orders.GetAllOrders(c.Request.Context(), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": toOrderResponses(result.Orders),
		"meta":   result.Meta,
	})
}

func (ctl *OrderController) ConfirmOrder(c *gin.Context) {
	order, err := ctl.orders.ConfirmOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (ctl *OrderController) CancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		apperrors.Respond(c, apperrors.Validation(err.Error()))
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "Cancelled by customer"
	}
	order, err := ctl.orders.CancelOrder(c.Request.Context(), c.Param("orderId"), reason)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation(err.Error()))
		return
	}
	order, err := ctl.orders.UpdateOrderStatus(c.Request.Context(), c.Param("orderId"), models.OrderStatus(req.Status))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
