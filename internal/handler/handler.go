// Package handler exposes the engine over a JSON HTTP API. It owns no
// business rules: requests are decoded into service calls and typed
// errors are mapped onto status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/netsplit/netsplit/internal/auth"
	"github.com/netsplit/netsplit/internal/ledger"
	"github.com/netsplit/netsplit/internal/middleware"
	"github.com/netsplit/netsplit/internal/registry"
	"github.com/netsplit/netsplit/internal/service"
	"github.com/netsplit/netsplit/internal/storage"
)

// Handler routes the HTTP API.
type Handler struct {
	groups     *service.GroupService
	authSvc    *service.AuthService
	jwtManager *auth.JWTManager
}

// New creates a Handler over the given services.
func New(groups *service.GroupService, authSvc *service.AuthService, jwtManager *auth.JWTManager) *Handler {
	return &Handler{groups: groups, authSvc: authSvc, jwtManager: jwtManager}
}

// Routes returns the API mux. Mutating group endpoints require a valid
// session token; reads do not.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.Handle("POST /api/groups", h.authed(h.createGroup))
	mux.HandleFunc("GET /api/groups", h.listGroups)
	mux.HandleFunc("GET /api/groups/{id}", h.getGroup)
	mux.Handle("DELETE /api/groups/{id}", h.authed(h.deleteGroup))

	mux.Handle("POST /api/groups/{id}/members", h.authed(h.addMember))
	mux.Handle("DELETE /api/groups/{id}/members/{memberID}", h.authed(h.removeMember))

	mux.Handle("POST /api/groups/{id}/expenses", h.authed(h.addExpense))
	mux.HandleFunc("GET /api/groups/{id}/expenses", h.listExpenses)

	mux.HandleFunc("GET /api/groups/{id}/balances", h.balances)
	mux.Handle("POST /api/groups/{id}/settlements", h.authed(h.recordSettlement))
	mux.Handle("POST /api/groups/{id}/settlements/pay", h.authed(h.payDebt))

	return mux
}

func (h *Handler) authed(fn http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h.jwtManager, fn)
}

// writeJSON encodes v with the given status. Encoding failures are
// logged; the status line is already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps a typed service error to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrSplitMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidExpense),
		errors.Is(err, registry.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidSettlement),
		errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
