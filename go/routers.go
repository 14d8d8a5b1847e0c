package fulfillmentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route binds an HTTP method and a path pattern to a handler.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// Routes is the list of the server's registered routes.
type Routes []Route

// ApiHandleFunctions holds the per-area handler groups the router serves.
type ApiHandleFunctions struct {
	OrdersAPI OrdersAPI
}

// NewRouter returns a new gin router with all fulfillment routes registered.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the fulfillment routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes without a bound handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) Routes {
	return Routes{
		{
			Name:        "Checkout",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/checkout",
			HandlerFunc: handleFunctions.OrdersAPI.Checkout,
		},
		{
			Name:        "OrdersAwaitingPacking",
			Method:      http.MethodGet,
			Pattern:     "/v1/orders/awaiting-packing",
			HandlerFunc: handleFunctions.OrdersAPI.OrdersAwaitingPacking,
		},
		{
			Name:        "ConfirmOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/:orderId/confirm",
			HandlerFunc: handleFunctions.OrdersAPI.ConfirmOrder,
		},
		{
			Name:        "PackOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/:orderId/pack",
			HandlerFunc: handleFunctions.OrdersAPI.PackOrder,
		},
		{
			Name:        "ShipOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/:orderId/ship",
			HandlerFunc: handleFunctions.OrdersAPI.ShipOrder,
		},
		{
			Name:        "DeliverOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/:orderId/deliver",
			HandlerFunc: handleFunctions.OrdersAPI.DeliverOrder,
		},
		{
			Name:        "CancelOrder",
			Method:      http.MethodPost,
			Pattern:     "/v1/orders/:orderId/cancel",
			HandlerFunc: handleFunctions.OrdersAPI.CancelOrder,
		},
		{
			Name:        "OrdersForCustomer",
			Method:      http.MethodGet,
			Pattern:     "/v1/customers/:customerId/orders",
			HandlerFunc: handleFunctions.OrdersAPI.OrdersForCustomer,
		},
		{
			Name:        "PendingOrdersForRetailer",
			Method:      http.MethodGet,
			Pattern:     "/v1/retailers/:retailerId/orders/pending",
			HandlerFunc: handleFunctions.OrdersAPI.PendingOrdersForRetailer,
		},
		{
			Name:        "AssignedOrdersForDistributor",
			Method:      http.MethodGet,
			Pattern:     "/v1/distributors/:distributorId/orders",
			HandlerFunc: handleFunctions.OrdersAPI.AssignedOrdersForDistributor,
		},
	}
}
