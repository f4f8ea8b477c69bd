package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/order-saga-service/controllers"
	"github.com/yashrajoria/order-saga-service/middleware"
	"github.com/yashrajoria/order-saga-service/pkg/logger"
)

// Setup wires the public API surface. Admin and internal routes sit behind the
// shared-secret middleware; customer identity arrives via X-Customer-ID from
// the edge gateway.
func Setup(cart *controllers.CartController, order *controllers.OrderController, internalToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	carts := router.Group("/cart")
	{
		carts.GET("", cart.GetCart)
		carts.POST("/items", cart.AddItem)
		carts.PATCH("/items/:productId", cart.UpdateItem)
		carts.DELETE("/items/:productId", cart.RemoveItem)
		carts.DELETE("", cart.ClearCart)
	}

	orders := router.Group("/orders")
	{
		orders.POST("", order.PlaceOrder)
		orders.GET("", order.GetMyOrders)
		orders.GET("/:orderId", order.GetOrder)
		orders.POST("/:orderId/cancel", order.CancelOrder)
	}

	admin := router.Group("/admin", middleware.InternalAuth(internalToken))
	{
		admin.GET("/orders", order.GetAllOrders)
		admin.POST("/orders/:orderId/confirm", order.ConfirmOrder)
		admin.POST("/orders/:orderId/cancel", order.CancelOrder)
		admin.PATCH("/orders/:orderId/status", order.UpdateStatus)
	}

	return router
}
