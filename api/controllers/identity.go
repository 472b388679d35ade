package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront-backend/api/middleware"
	pkgerrors "storefront-backend/pkg/errors"
)

const guestTokenHeader = "X-Guest-Token"

// requestUserID returns the authenticated user id, or nil for anonymous requests.
func requestUserID(r *http.Request) (*uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return &id, nil
}

// cartOwnerID resolves who the cart belongs to: the authenticated user
// when present, otherwise the guest token from the request header.
func cartOwnerID(r *http.Request) (uuid.UUID, error) {
	userID, err := requestUserID(r)
	if err != nil {
		return uuid.Nil, err
	}
	if userID != nil {
		return *userID, nil
	}
	raw := strings.TrimSpace(r.Header.Get(guestTokenHeader))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest token or credentials required")
	}
	guestID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid guest token")
	}
	return guestID, nil
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}
