// Package httpmiddleware contains the net/http middleware shared by the
// API server: panic recovery, CORS, rate limiting, request ids, logger
// injection and access logging.
package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/jx"
)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Wrap applies mws to h so that mws[0] is the outermost layer.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RouteFunc names the route a request was served by, for logs and metric
// labels. It is called after the inner handler returns.
type RouteFunc func(r *http.Request) string

// writeError writes the {"code","message"} envelope used across the API.
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
