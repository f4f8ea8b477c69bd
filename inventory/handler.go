package inventory

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func minutesToDuration(minutes int) time.Duration {
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// Handler exposes the ledger over HTTP for the order service and for
// operators seeding stock.
type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/check", h.Check)
	group.POST("/reserve", h.Reserve)
	group.POST("/confirm", h.Confirm)
	group.POST("/release", h.Release)
	group.PUT("/stock", h.SetStock)
	group.GET("/stock/:productId", h.GetStock)
}

func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.ledger.Check(req.Items))
}

func (h *Handler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item quantity must be positive"})
			return
		}
	}

	ttl := minutesToDuration(req.TTLMinutes)
	if err := h.ledger.Reserve(c.Request.Context(), req.OrderID, req.CustomerID, req.Items, ttl); err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"kind":    "conflict",
					"message": "insufficient stock",
					"details": insufficient.Details,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": req.OrderID, "reserved": true})
}

func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ledger.Confirm(c.Request.Context(), req.OrderID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": req.OrderID, "confirmed": true})
}

func (h *Handler) Release(c *gin.Context) {
	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ledger.Release(c.Request.Context(), req.OrderID, req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": req.OrderID, "released": true})
}

func (h *Handler) SetStock(c *gin.Context) {
	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.ledger.SetStock(req.ProductID, req.Stock)
	c.JSON(http.StatusOK, gin.H{"product_id": req.ProductID, "stock": req.Stock})
}

func (h *Handler) GetStock(c *gin.Context) {
	productID := c.Param("productId")
	rec, available, ok := h.ledger.GetRecord(productID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": rec.ProductID,
		"stock":      rec.Stock,
		"available":  available,
	})
}
