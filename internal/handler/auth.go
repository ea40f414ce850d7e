package handler

import (
	"mime"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-restaurant/internal/domain/user"
)

// Register creates an account. The role defaults to staff.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.users.Register(r.Context(), user.Registration{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     user.Role(req.Role),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: optional(u.FullName),
		Role:     string(u.Role),
	})
}

// IssueToken exchanges credentials for a bearer token. It accepts the OAuth2
// password form (username, password) as well as a JSON body with the same
// fields.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			fail(w, r, badRequest("invalid form body: %s", err))
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		if err := h.validate.Struct(req); err != nil {
			fail(w, r, err)
			return
		}
	default:
		if err := h.decode(r, &req); err != nil {
			fail(w, r, err)
			return
		}
	}

	id, err := h.users.VerifyCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	tok, err := h.users.IssueToken(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   int64(time.Until(tok.ExpiresAt).Seconds()),
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserResponse(identity(r)))
}
