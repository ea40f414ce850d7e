package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
)

// badRequestError marks malformed input caught before reaching a service.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// statusOf maps a domain error to its HTTP status code.
func statusOf(err error) int {
	var (
		badInput    *badRequestError
		validation  validator.ValidationErrors
		quantity    *order.InvalidQuantityError
		reference   *order.InvalidReferenceError
		unavailable *order.ItemUnavailableError
		payment     *order.InsufficientPaymentError
		missing     *order.ItemNotFoundError
		transition  *order.InvalidTransitionError
	)
	switch {
	case errors.As(err, &badInput),
		errors.As(err, &validation),
		errors.As(err, &quantity),
		errors.As(err, &reference),
		errors.As(err, &unavailable),
		errors.As(err, &payment),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidID),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, menu.ErrInvalidID),
		errors.Is(err, menu.ErrInvalidPrice),
		errors.Is(err, user.ErrWeakPassword),
		errors.Is(err, user.ErrEmailTaken):
		return http.StatusBadRequest
	case errors.As(err, &missing),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, menu.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &transition),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, order.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, user.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, user.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as the {"code","message"} envelope. Unexpected errors are
// logged and their text is not exposed.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	msg := err.Error()

	var validation validator.ValidationErrors
	switch {
	case code >= http.StatusInternalServerError:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(code)
	case code == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	case errors.As(err, &validation):
		msg = describeValidation(validation)
	}
	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// describeValidation renders validator failures as "field: rule" pairs using
// JSON paths such as items[1].menu_item_id.
func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, field+": failed "+rule)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid JSON body: %s", err)
	}
	return h.validate.Struct(dst)
}
