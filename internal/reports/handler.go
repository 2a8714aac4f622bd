package reports

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/httputil"
	"solidarlink/pkg/requestcontext"
)

// Handler exposes report filing over HTTP. The moderation routes for listing
// and closing reports live under /api/admin.
type Handler struct {
	service     *Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func NewHandler(svc *Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: svc, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/", h.handleFile)
	})
}

type fileRequest struct {
	CaseID      string `json:"case_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	caseID, err := id.ParseCaseID(req.CaseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Reason == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "reason is required"))
		return
	}

	report, err := h.service.File(ctx, caseID, req.Reason, req.Description)
	if err != nil {
		h.logger.WarnContext(ctx, "report filing failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, report)
}
