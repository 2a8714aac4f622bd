package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"solidarlink/internal/cases/models"
	"solidarlink/internal/cases/service"
	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/httputil"
	"solidarlink/pkg/requestcontext"
)

// Handler exposes the case lifecycle over HTTP. All routes require
// authentication; finer authorization lives in the service.
type Handler struct {
	service     *service.Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func New(svc *service.Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: svc, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/cases", func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/validated", h.handleListValidated)
		r.Get("/mine", h.handleListMine)
		r.Get("/my-interventions", h.handleListMyInterventions)

		r.Route("/{caseID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/take", h.handleTake)
			r.Post("/resolve", h.handleResolve)
		})
	})
}

type caseRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Photos      []string `json:"photos"`
}

func (r caseRequest) toInput() (models.CaseInput, error) {
	if r.Title == "" {
		return models.CaseInput{}, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	category, err := id.ParseCaseCategory(r.Category)
	if err != nil {
		return models.CaseInput{}, err
	}
	if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
		return models.CaseInput{}, dErrors.New(dErrors.CodeInvalidInput, "coordinates out of range")
	}
	return models.CaseInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    category,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Photos:      r.Photos,
	}, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req caseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.Create(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "case creation failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req caseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.Update(r.Context(), caseID, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caseID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type takeRequest struct {
	InterventionDate    time.Time `json:"intervention_date"`
	InterventionMessage string    `json:"intervention_message"`
}

func (h *Handler) handleTake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req takeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.InterventionDate.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "intervention_date is required"))
		return
	}

	c, err := h.service.Take(ctx, caseID, models.Intervention{
		Date:    req.InterventionDate,
		Message: req.InterventionMessage,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "take rejected",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Resolve(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cases, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCaseList(w, cases)
}

func (h *Handler) handleListValidated(w http.ResponseWriter, r *http.Request) {
	viewport, err := viewportFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cases, err := h.service.ListValidated(r.Context(), viewport)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCaseList(w, cases)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCaseList(w, cases)
}

func (h *Handler) handleListMyInterventions(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListMyInterventions(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeCaseList(w, cases)
}

func writeCaseList(w http.ResponseWriter, cases []*models.Case) {
	if cases == nil {
		cases = []*models.Case{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"cases": cases,
		"total": len(cases),
	})
}

func filterFromQuery(r *http.Request) (models.Filter, error) {
	var filter models.Filter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, err := id.ParseCaseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	if raw := q.Get("category"); raw != "" {
		category, err := id.ParseCaseCategory(raw)
		if err != nil {
			return filter, err
		}
		filter.Category = category
	}
	viewport, err := viewportFromQuery(r)
	if err != nil {
		return filter, err
	}
	filter.Viewport = viewport
	return filter, nil
}

// viewportFromQuery parses the optional map bounding box. All four corners
// must be present together.
func viewportFromQuery(r *http.Request) (*models.Viewport, error) {
	q := r.URL.Query()
	keys := []string{"min_lat", "max_lat", "min_lon", "max_lon"}

	present := 0
	for _, key := range keys {
		if q.Get(key) != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(keys) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "viewport requires min_lat, max_lat, min_lon and max_lon")
	}

	values := make(map[string]float64, len(keys))
	for _, key := range keys {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid viewport coordinate "+key)
		}
		values[key] = v
	}
	return &models.Viewport{
		MinLat: values["min_lat"],
		MaxLat: values["max_lat"],
		MinLon: values["min_lon"],
		MaxLon: values["max_lon"],
	}, nil
}
