package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldline-crm/fieldline-crm/internal/platform/httpx"
)

// Handler exposes the role query/mutation surface consumed by UI guards.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers role endpoints on the API router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect("", ""))
		r.Get("/me/role", h.myRole)
		r.Get("/me/permissions", h.myPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(RoleAdmin))
		r.Get("/users", h.listUsers)
		r.Put("/users/{id}/role", h.setUserRole)
	})
}

func (h *Handler) myRole(w http.ResponseWriter, r *http.Request) {
	role := RoleFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{"role": orNil(role)})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	role := RoleFromContext(r.Context())
	perms := Permissions(role)
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": orNil(role), "permissions": perms})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), RoleFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) setUserRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetUserRole(r.Context(), RoleFromContext(r.Context()), userID, req.Role); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "role": req.Role})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOnlyAdmins):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnknownRole):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("rbac handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func orNil(role string) any {
	if role == "" {
		return nil
	}
	return role
}
