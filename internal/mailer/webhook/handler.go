package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/httpx"
)

const maxBodyBytes = 1 << 20

// Handler authenticates inbound provider events and hands verified ones to
// the status reducer. It is a pure gate: nothing past verification runs for a
// request that fails it.
type Handler struct {
	logger  *slog.Logger
	secret  []byte
	reducer *mailer.Reducer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, secret string, reducer *mailer.Reducer) *Handler {
	return &Handler{logger: logger, secret: []byte(secret), reducer: reducer}
}

// MountRoutes registers webhook routes. All methods route to the handler so
// the method check stays explicit.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Handle("/resend", http.HandlerFunc(h.HandleResend))
}

// HandleResend processes one signed provider event.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "method not allowed")
		return
	}

	// An empty key is publicly computable, so an unconfigured endpoint
	// authenticates nothing.
	if len(h.secret) == 0 {
		h.logger.Error("webhook secret not configured, rejecting event")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "webhook not configured")
		return
	}

	header := r.Header.Get(SignatureHeader)
	if header == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no signature")
		return
	}

	// The signature covers the exact bytes received, so the body is read
	// before any JSON parsing.
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("read webhook body", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if err := VerifySignature(h.secret, header, rawBody); err != nil {
		h.logger.Warn("webhook signature rejected", slog.String("remote", r.RemoteAddr))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid signature")
		return
	}

	var evt mailer.Event
	if err := json.Unmarshal(rawBody, &evt); err != nil {
		h.logger.Error("parse webhook event", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if err := h.reducer.Apply(r.Context(), evt); err != nil {
		h.logger.Error("apply webhook event", slog.Any("error", err), slog.String("type", evt.Type))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "received"})
}
