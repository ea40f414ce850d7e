package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-restaurant/internal/domain/user"
)

// authenticate resolves the bearer token into a user.Identity stored in the
// request context. Requests without a valid token are rejected with 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			fail(w, r, user.ErrUnauthenticated)
			return
		}
		id, err := h.users.IdentityFromToken(r.Context(), token)
		if err != nil {
			fail(w, r, err)
			return
		}

		ctx := user.WithIdentity(r.Context(), id)
		ctx = zctx.With(ctx, zap.String("user_id", id.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects authenticated non-admin identities with 403. It must
// run after authenticate.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := user.IdentityFromContext(r.Context())
		if !ok {
			fail(w, r, user.ErrUnauthenticated)
			return
		}
		if !id.IsAdmin() {
			fail(w, r, user.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// identity returns the caller set by authenticate.
func identity(r *http.Request) user.Identity {
	id, _ := user.IdentityFromContext(r.Context())
	return id
}
