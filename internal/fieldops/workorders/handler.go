package workorders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldline-crm/fieldline-crm/internal/platform/httpx"
	"github.com/fieldline-crm/fieldline-crm/internal/rbac"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

// PDFRenderer converts a named document template plus data into PDF bytes.
type PDFRenderer interface {
	RenderDocument(ctx context.Context, template string, data any) ([]byte, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	pdf       PDFRenderer
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, pdf PDFRenderer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbac,
		pdf:       pdf,
		validator: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListWorkOrdersRequest{Limit: 50}
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = &status
	}
	if tech := r.URL.Query().Get("technician_id"); tech != "" {
		if parsed, err := strconv.ParseInt(tech, 10, 64); err == nil && parsed > 0 {
			req.TechnicianID = &parsed
		}
	}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}
	req.Limit, req.Offset = shared.LimitOffset(r.URL.Query(), req.Limit)

	orders, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list work orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if orders == nil {
		orders = []WorkOrder{}
	}
	httpx.List(w, orders, total, req.Limit, req.Offset)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, id, "get work order")
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	userID, _ := rbac.CurrentUserID(r)
	wo, err := h.service.Create(r.Context(), req, userID)
	if err != nil {
		h.logger.Error("create work order", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, wo)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	userID, _ := rbac.CurrentUserID(r)
	wo, err := h.service.Update(r.Context(), id, req, userID)
	if err != nil {
		h.respondServiceError(w, err, id, "update work order")
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	userID, _ := rbac.CurrentUserID(r)
	wo, err := h.service.Assign(r.Context(), id, req.TechnicianID, userID)
	if err != nil {
		if errors.Is(err, ErrNotTechnician) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
			return
		}
		h.respondServiceError(w, err, id, "assign work order")
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	userID, _ := rbac.CurrentUserID(r)
	wo, err := h.service.Start(r.Context(), id, userID)
	if err != nil {
		h.respondServiceError(w, err, id, "start work order")
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req CompleteRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
			return
		}
	}

	userID, _ := rbac.CurrentUserID(r)
	wo, err := h.service.Complete(r.Context(), id, req, userID)
	if err != nil {
		h.respondServiceError(w, err, id, "complete work order")
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	userID, _ := rbac.CurrentUserID(r)
	wo, err := h.service.Cancel(r.Context(), id, userID)
	if err != nil {
		h.respondServiceError(w, err, id, "cancel work order")
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, id, "get work order for pdf")
		return
	}

	pdfBytes, err := h.pdf.RenderDocument(r.Context(), "workorder", wo)
	if err != nil {
		h.logger.Error("render work order pdf", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+wo.Number+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid work order id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, id int64, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "work order not found")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrClosed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
