package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

const tracerName = "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/observability/service"

// Service decorates the fulfillment service with tracing, logging, and
// metrics. Business failures stay typed; this layer only observes them.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core fulfillment service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Checkout(ctx context.Context, input types.CheckoutInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.Checkout",
		trace.WithAttributes(
			attribute.Int64("checkout.customer_id", input.CustomerID),
			attribute.Int("checkout.line_count", len(input.Lines)),
		))
	defer span.End()

	s.logInfo(ctx, "processing checkout",
		slog.Int64("customer.id", input.CustomerID), slog.Int("cart.lines", len(input.Lines)))
	order, err := s.inner.Checkout(ctx, input)
	if err != nil {
		s.metrics.recordCheckout(ctx, "failure")
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.Int64("customer.id", input.CustomerID))
	}
	s.metrics.recordCheckout(ctx, "success")
	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.Int64("order.total_cents", order.TotalCents))
	s.logInfo(ctx, "checkout completed",
		slog.Int64("order.id", order.ID), slog.Int64("order.total_cents", order.TotalCents))
	return order, nil
}

func (s *Service) ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, "confirm", orderID, func(ctx context.Context) (*domain.Order, error) {
		return s.inner.ConfirmOrder(ctx, orderID)
	})
}

func (s *Service) PackOrder(ctx context.Context, orderID int64, distributorID int64) (*domain.Order, error) {
	return s.transition(ctx, "pack", orderID, func(ctx context.Context) (*domain.Order, error) {
		return s.inner.PackOrder(ctx, orderID, distributorID)
	})
}

func (s *Service) ShipOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, "ship", orderID, func(ctx context.Context) (*domain.Order, error) {
		return s.inner.ShipOrder(ctx, orderID)
	})
}

func (s *Service) DeliverOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, "deliver", orderID, func(ctx context.Context) (*domain.Order, error) {
		return s.inner.DeliverOrder(ctx, orderID)
	})
}

func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, "cancel", orderID, func(ctx context.Context) (*domain.Order, error) {
		return s.inner.CancelOrder(ctx, orderID)
	})
}

func (s *Service) transition(ctx context.Context, name string, orderID int64, call func(context.Context) (*domain.Order, error)) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.Transition",
		trace.WithAttributes(attribute.String("order.transition", name), attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := call(ctx)
	if err != nil {
		s.metrics.recordTransition(ctx, name, "failure")
		return nil, s.handleError(ctx, span, err, "transition failed",
			slog.String("transition", name), slog.Int64("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, name, "success")
	s.logInfo(ctx, "order transitioned",
		slog.String("transition", name), slog.Int64("order.id", order.ID), slog.String("status", string(order.Status)))
	return order, nil
}

func (s *Service) OrdersForCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.OrdersForCustomer",
		trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	orders, err := s.inner.OrdersForCustomer(ctx, customerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "customer order query failed", slog.Int64("customer.id", customerID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) PendingOrdersForRetailer(ctx context.Context, retailerID int64) ([]types.RetailerOrderView, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.PendingOrdersForRetailer",
		trace.WithAttributes(attribute.Int64("retailer.id", retailerID)))
	defer span.End()

	views, err := s.inner.PendingOrdersForRetailer(ctx, retailerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "retailer order query failed", slog.Int64("retailer.id", retailerID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(views)))
	return views, nil
}

func (s *Service) AssignedOrdersForDistributor(ctx context.Context, distributorID int64, filter types.DistributorStatusFilter) ([]types.DistributorOrderView, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.AssignedOrdersForDistributor",
		trace.WithAttributes(attribute.Int64("distributor.id", distributorID), attribute.String("filter", string(filter))))
	defer span.End()

	views, err := s.inner.AssignedOrdersForDistributor(ctx, distributorID, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "distributor order query failed", slog.Int64("distributor.id", distributorID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(views)))
	return views, nil
}

func (s *Service) OrdersAwaitingPacking(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "FulfillmentService.OrdersAwaitingPacking")
	defer span.End()

	orders, err := s.inner.OrdersAwaitingPacking(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "packing queue query failed")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	checkouts   metric.Int64Counter
	transitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("fulfillment.service.checkouts",
		metric.WithDescription("Number of checkout attempts by result"))
	transitions, _ := m.Int64Counter("fulfillment.service.transitions",
		metric.WithDescription("Number of order transitions by name and result"))
	return serviceMetrics{checkouts: checkouts, transitions: transitions}
}

func (m serviceMetrics) recordCheckout(ctx context.Context, result string) {
	if m.checkouts != nil {
		m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, transition, result string) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("transition", transition),
			attribute.String("result", result),
		))
	}
}

var _ ports.Service = (*Service)(nil)
