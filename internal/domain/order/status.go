package order

import (
	"github.com/go-faster/errors"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ErrUnknownStatus is returned when parsing a status string that is not one
// of the defined states.
var ErrUnknownStatus = errors.New("unknown order status")

// ParseStatus converts s into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
}

// Terminal reports whether no transition out of s is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// manualTransitions lists the status changes a caller may request directly.
// StatusCompleted is absent on purpose: it is reached only by recording a
// sufficient payment.
var manualTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true, StatusCancelled: true},
	StatusReady:     {StatusCancelled: true},
}

// CanTransition reports whether a caller may move an order from one status
// to another without a payment.
func CanTransition(from, to Status) bool {
	return manualTransitions[from][to]
}

// transition moves o to status to, or returns *InvalidTransitionError.
func (o *Order) transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	return nil
}

// pay validates p against the order total, attaches it and completes the
// order. The order is left untouched on error.
func (o *Order) pay(p Payment) error {
	if o.Status.Terminal() {
		return &InvalidTransitionError{From: o.Status, To: StatusCompleted}
	}
	if p.Amount.LessThan(o.TotalAmount) {
		return &InsufficientPaymentError{Amount: p.Amount, Total: o.TotalAmount}
	}
	o.Payment = &p
	o.Status = StatusCompleted
	return nil
}
