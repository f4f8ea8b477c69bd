package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
	"github.com/yashrajoria/order-saga-service/services"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// customerID reads the caller's identity, injected by the edge gateway.
func customerID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-Customer-ID")
	if id == "" {
		apperrors.Respond(c, apperrors.Validation("missing X-Customer-ID header"))
		return "", false
	}
	return id, true
}

func (ctl *CartController) GetCart(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	cart, err := ctl.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (ctl *CartController) AddItem(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation(err.Error()))
		return
	}
	cart, err := ctl.carts.AddItem(c.Request.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (ctl *CartController) UpdateItem(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation(err.Error()))
		return
	}
	cart, err := ctl.carts.UpdateItemQuantity(c.Request.Context(), id, c.Param("productId"), req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (ctl *CartController) RemoveItem(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	cart, err := ctl.carts.RemoveItem(c.Request.Context(), id, c.Param("productId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (ctl *CartController) ClearCart(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	cart, err := ctl.carts.ClearCart(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}
