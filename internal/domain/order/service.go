package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
)

// ErrClosed is returned when modifying the fields of a completed or
// cancelled order.
var ErrClosed = errors.New("order is closed")

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Items        []LineRequest
	TableNumber  *int
	CustomerName string
	Notes        string
}

// UpdateRequest describes a field-level update. Nil fields are left
// unchanged; a non-nil Items replaces the whole line list and is re-priced.
type UpdateRequest struct {
	Status       *Status
	Items        []LineRequest
	TableNumber  *int
	CustomerName *string
	Notes        *string
}

// PaymentRequest holds the input for settling an order.
type PaymentRequest struct {
	Method PaymentMethod
	Amount decimal.Decimal
}

// Service implements the order lifecycle: pricing, status transitions and
// payment, persisted through a Repository.
type Service struct {
	orders Repository
	pricer *Pricer
	now    func() time.Time

	tracer      trace.Tracer
	created     metric.Int64Counter
	paid        metric.Int64Counter
	transitions metric.Int64Counter
	rejected    metric.Int64Counter
}

// Option configures a Service.
type Option func(*options)

type options struct {
	tp trace.TracerProvider
	mp metric.MeterProvider
}

// WithTracerProvider sets the tracer provider used for operation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the meter provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// NewService creates an order Service.
func NewService(orders Repository, catalog menu.Catalog, opts ...Option) (*Service, error) {
	o := options{
		tp: tracenoop.NewTracerProvider(),
		mp: metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	const scope = "github.com/xenking/pos-restaurant/internal/domain/order"
	meter := o.mp.Meter(scope)
	s := &Service{
		orders: orders,
		pricer: NewPricer(catalog),
		now:    time.Now,
		tracer: o.tp.Tracer(scope),
	}

	var err error
	if s.created, err = meter.Int64Counter("pos.orders.created",
		metric.WithDescription("Orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	if s.paid, err = meter.Int64Counter("pos.orders.paid",
		metric.WithDescription("Payments recorded"),
	); err != nil {
		return nil, errors.Wrap(err, "orders paid counter")
	}
	if s.transitions, err = meter.Int64Counter("pos.orders.transitions",
		metric.WithDescription("Accepted status transitions"),
	); err != nil {
		return nil, errors.Wrap(err, "transitions counter")
	}
	if s.rejected, err = meter.Int64Counter("pos.orders.rejected_transitions",
		metric.WithDescription("Status transitions refused by the state machine"),
	); err != nil {
		return nil, errors.Wrap(err, "rejected transitions counter")
	}
	return s, nil
}

// Create prices req against the catalog and persists a pending order owned
// by createdBy. Nothing is stored if any line fails.
func (s *Service) Create(ctx context.Context, createdBy string, req CreateRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer func() { endSpan(span, rerr) }()

	lines, total, err := s.pricer.Price(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	o := &Order{
		Items:        lines,
		Status:       StatusPending,
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		Notes:        req.Notes,
		TotalAmount:  total,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	span.SetAttributes(attribute.String("order.id", o.ID))
	s.created.Add(ctx, 1)
	zctx.From(ctx).Info("Order created",
		zap.String("order_id", o.ID),
		zap.Int("lines", len(o.Items)),
		zap.String("total", total.StringFixed(2)),
	)
	return o, nil
}

// Get returns the order with id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// List returns orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return nil, err
		}
	}
	return s.orders.List(ctx, f)
}

// Update applies req to the order. A new item list is re-priced from the
// current catalog and replaces the total; a status change goes through the
// transition table. Closed orders cannot be updated.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, rerr) }()

	var (
		lines []Line
		total decimal.Decimal
	)
	if req.Items != nil {
		var err error
		if lines, total, err = s.pricer.Price(ctx, req.Items); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, id, func(o *Order) (bool, error) {
		if o.Status.Terminal() {
			return false, errors.Wrapf(ErrClosed, "order is %s", o.Status)
		}
		var changed bool
		if req.Status != nil {
			var err error
			if changed, err = s.applyStatus(ctx, o, *req.Status); err != nil {
				return false, err
			}
		}
		if req.Items != nil {
			o.Items = lines
			o.TotalAmount = total
			changed = true
		}
		if req.TableNumber != nil && (o.TableNumber == nil || *o.TableNumber != *req.TableNumber) {
			o.TableNumber = req.TableNumber
			changed = true
		}
		if req.CustomerName != nil && o.CustomerName != *req.CustomerName {
			o.CustomerName = *req.CustomerName
			changed = true
		}
		if req.Notes != nil && o.Notes != *req.Notes {
			o.Notes = *req.Notes
			changed = true
		}
		return changed, nil
	})
}

// SetStatus moves the order to status if the transition table allows it.
// Requesting the current status is a no-op.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.SetStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer func() { endSpan(span, rerr) }()

	return s.mutate(ctx, id, func(o *Order) (bool, error) {
		return s.applyStatus(ctx, o, status)
	})
}

// Pay records a payment and completes the order. The payment must cover the
// total and the order must not be completed or cancelled already.
func (s *Service) Pay(ctx context.Context, id string, req PaymentRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Pay", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, rerr) }()

	if !req.Method.Valid() {
		return nil, errors.Wrapf(ErrInvalidPayment, "unknown method %q", req.Method)
	}
	if !req.Amount.IsPositive() {
		return nil, errors.Wrap(ErrInvalidPayment, "amount must be greater than 0")
	}

	o, err := s.mutate(ctx, id, func(o *Order) (bool, error) {
		if err := o.pay(Payment{Method: req.Method, Amount: req.Amount, PaidAt: s.timestamp()}); err != nil {
			s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(StatusCompleted))))
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.paid.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(req.Method))))
	zctx.From(ctx).Info("Order paid",
		zap.String("order_id", o.ID),
		zap.String("method", string(req.Method)),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return o, nil
}

// Cancel moves the order to cancelled. Cancelling a cancelled order is a
// no-op; a completed order cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Cancel", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, rerr) }()

	return s.mutate(ctx, id, func(o *Order) (bool, error) {
		return s.applyStatus(ctx, o, StatusCancelled)
	})
}

// applyStatus runs a manual transition on o and records the outcome.
func (s *Service) applyStatus(ctx context.Context, o *Order, to Status) (bool, error) {
	if o.Status == to {
		return false, nil
	}
	from := o.Status
	attrs := metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)
	if err := o.transition(to); err != nil {
		s.rejected.Add(ctx, 1, attrs)
		return false, err
	}
	s.transitions.Add(ctx, 1, attrs)
	return true, nil
}

// mutate reads the order, applies fn to a copy and writes it back with a
// compare-and-swap on the revision that was read. fn reports whether it
// changed anything; unchanged orders are returned without a write.
func (s *Service) mutate(ctx context.Context, id string, fn func(o *Order) (bool, error)) (*Order, error) {
	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	changed, err := fn(next)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	next.UpdatedAt = s.timestamp()
	if err := s.orders.Replace(ctx, next); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "replace order")
	}
	return next, nil
}

// timestamp is the current time at the millisecond precision both stores
// keep, so a freshly written order matches what a later read returns.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
