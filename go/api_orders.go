package fulfillmentserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	ordermapper "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/http/mapper"
	fulfillmenttypes "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	fulfillmentdomain "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	fulfillmentports "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

// CustomerIDHeader carries the gateway-resolved customer identity. The
// service trusts this header; authentication happens upstream.
const CustomerIDHeader = "X-Customer-ID"

// OrdersAPI wires HTTP transport with the fulfillment service and the
// checkout workflow orchestrator.
type OrdersAPI struct {
	service   fulfillmentports.Service
	workflows fulfillmentports.CheckoutOrchestrator
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service fulfillmentports.Service, workflows fulfillmentports.CheckoutOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, workflows: workflows}
}

// Post /v1/orders/checkout
// Places an order from the caller's cart
func (api *OrdersAPI) Checkout(c *gin.Context) {
	customerID, ok := customerFromHeader(c)
	if !ok {
		return
	}
	var payload ordermapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input := fulfillmenttypes.CheckoutInput{
		CustomerID:     customerID,
		Lines:          payload.Lines,
		IdempotencyKey: payload.IdempotencyKey,
	}
	order, err := api.placeOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromDomainOrder(order))
}

func (api *OrdersAPI) placeOrder(ctx context.Context, input fulfillmenttypes.CheckoutInput) (*fulfillmentdomain.Order, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.Checkout(ctx, input)
}

// Post /v1/orders/:orderId/confirm
// Confirms a placed order
func (api *OrdersAPI) ConfirmOrder(c *gin.Context) {
	api.transition(c, api.service.ConfirmOrder)
}

// Post /v1/orders/:orderId/pack
// Packs a confirmed order and assigns its distributor
func (api *OrdersAPI) PackOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload ordermapper.PackRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.PackOrder(c.Request.Context(), orderID, payload.DistributorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainOrder(order))
}

// Post /v1/orders/:orderId/ship
// Ships a packed order
func (api *OrdersAPI) ShipOrder(c *gin.Context) {
	api.transition(c, api.service.ShipOrder)
}

// Post /v1/orders/:orderId/deliver
// Marks a shipped order delivered
func (api *OrdersAPI) DeliverOrder(c *gin.Context) {
	api.transition(c, api.service.DeliverOrder)
}

// Post /v1/orders/:orderId/cancel
// Cancels a not-yet-delivered order and restores its stock
func (api *OrdersAPI) CancelOrder(c *gin.Context) {
	api.transition(c, api.service.CancelOrder)
}

// Get /v1/customers/:customerId/orders
// Lists the customer's own orders, newest first
func (api *OrdersAPI) OrdersForCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}
	orders, err := api.service.OrdersForCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainOrders(orders))
}

// Get /v1/retailers/:retailerId/orders/pending
// Lists pending orders containing at least one of the retailer's lines
func (api *OrdersAPI) PendingOrdersForRetailer(c *gin.Context) {
	retailerID, ok := parseIDParam(c, "retailerId")
	if !ok {
		return
	}
	views, err := api.service.PendingOrdersForRetailer(c.Request.Context(), retailerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get /v1/distributors/:distributorId/orders
// Lists orders assigned to the distributor, optionally filtered by status
func (api *OrdersAPI) AssignedOrdersForDistributor(c *gin.Context) {
	distributorID, ok := parseIDParam(c, "distributorId")
	if !ok {
		return
	}
	filter := fulfillmenttypes.FilterAll
	if err := runtime.BindQueryParameter("form", true, false, "status", c.Request.URL.Query(), &filter); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if !filter.Valid() {
		respondError(c, http.StatusBadRequest, errors.New("unknown status filter: "+string(filter)))
		return
	}
	views, err := api.service.AssignedOrdersForDistributor(c.Request.Context(), distributorID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get /v1/orders/awaiting-packing
// Lists confirmed orders waiting for a warehouse to pack them
func (api *OrdersAPI) OrdersAwaitingPacking(c *gin.Context) {
	orders, err := api.service.OrdersAwaitingPacking(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainOrders(orders))
}

func (api *OrdersAPI) transition(c *gin.Context, op func(context.Context, int64) (*fulfillmentdomain.Order, error)) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := op(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainOrder(order))
}

func customerFromHeader(c *gin.Context) (int64, bool) {
	value := c.GetHeader(CustomerIDHeader)
	if value == "" {
		respondError(c, http.StatusUnauthorized, errors.New("missing "+CustomerIDHeader+" header"))
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusUnauthorized, errors.New("malformed "+CustomerIDHeader+" header"))
		return 0, false
	}
	return id, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
