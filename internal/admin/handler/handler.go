package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"solidarlink/internal/admin/service"
	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/httputil"
)

// Handler exposes the moderation endpoints. All routes sit behind the auth
// and admin-role middlewares supplied by the caller.
type Handler struct {
	service      *service.Service
	logger       *slog.Logger
	requireAuth  func(http.Handler) http.Handler
	requireAdmin func(http.Handler) http.Handler
}

func New(svc *service.Service, logger *slog.Logger, requireAuth, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:      svc,
		logger:       logger,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(h.requireAdmin)

		r.Put("/cases/{caseID}/status", h.handleSetCaseStatus)
		r.Delete("/cases/{caseID}", h.handleDeleteCase)

		r.Get("/users/pending", h.handleListPendingUsers)
		r.Put("/users/{userID}/validate", h.handleValidateUser)
		r.Delete("/users/{userID}", h.handleRejectUser)
		r.Put("/users/{userID}/ban", h.handleToggleUserBan)

		r.Get("/reports", h.handleListReports)
		r.Put("/reports/{reportID}/close", h.handleCloseReport)

		r.Get("/stats", h.handleStats)
	})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleSetCaseStatus(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	status, err := id.ParseCaseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.SetCaseStatus(r.Context(), caseID, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCase(r.Context(), caseID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListPendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListPendingUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
	})
}

func (h *Handler) handleValidateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.service.ValidateUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleRejectUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RejectUser(r.Context(), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleUserBan(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.service.ToggleUserBan(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	onlyOpen := r.URL.Query().Get("open") == "true"
	list, err := h.service.ListReports(r.Context(), onlyOpen)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reports": list,
		"total":   len(list),
	})
}

func (h *Handler) handleCloseReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.CloseReport(r.Context(), reportID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
