package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"solidarlink/internal/cases/models"
	"solidarlink/internal/cases/service"
	"solidarlink/internal/cases/store"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/requestcontext"
)

type nopNotifier struct{}

func (nopNotifier) CaseCreated(*models.Case)           {}
func (nopNotifier) CaseUpdated(*models.Case)           {}
func (nopNotifier) InterventionConfirmed(*models.Case) {}
func (nopNotifier) CaseResolved(*models.Case)          {}

// identityInjector stands in for the auth middleware, attaching a fixed actor
// to every request.
func identityInjector(userID id.UserID, role id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithUserID(r.Context(), userID)
			ctx = requestcontext.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newCaseRouter(t *testing.T, userID id.UserID, role id.Role) (*chi.Mux, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	svc := service.NewService(st, nopNotifier{}, slog.New(slog.DiscardHandler), nil)
	h := New(svc, slog.New(slog.DiscardHandler), identityInjector(userID, role))

	router := chi.NewRouter()
	h.Register(router)
	return router, st
}

func createCase(t *testing.T, router http.Handler) models.Case {
	t.Helper()
	payload := map[string]any{
		"title":       "Blankets needed",
		"description": "Cold snap this week",
		"category":    "CLOTHING",
		"latitude":    45.76,
		"longitude":   4.83,
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/cases/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating case, got %d: %s", rec.Code, rec.Body.String())
	}

	var c models.Case
	if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
		t.Fatalf("failed to decode case response: %v", err)
	}
	return c
}

func TestCreateAndFetchCase(t *testing.T) {
	author := id.NewUserID()
	router, _ := newCaseRouter(t, author, id.RoleCitizen)

	c := createCase(t, router)
	if c.Status != id.CaseStatusPending {
		t.Fatalf("expected new case to be PENDING, got %s", c.Status)
	}
	if c.AuthorID != author {
		t.Fatalf("expected author to be the actor")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cases/"+c.ID.String()+"/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching case, got %d", rec.Code)
	}
}

func TestCreateCaseValidation(t *testing.T) {
	router, _ := newCaseRouter(t, id.NewUserID(), id.RoleCitizen)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing title", map[string]any{"category": "FOOD"}},
		{"unknown category", map[string]any{"title": "x", "category": "GADGETS"}},
		{"latitude out of range", map[string]any{"title": "x", "category": "FOOD", "latitude": 120.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.payload)
			req := httptest.NewRequest(http.MethodPost, "/api/cases/", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTakeEndpoint(t *testing.T) {
	volunteer := id.NewUserID()
	router, st := newCaseRouter(t, volunteer, id.RoleVolunteer)

	// Seed a validated case by someone else.
	c := &models.Case{
		ID:        id.NewCaseID(),
		Title:     "Groceries run",
		Category:  id.CaseCategoryFood,
		Status:    id.CaseStatusValidated,
		AuthorID:  id.NewUserID(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := st.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), c); err != nil {
		t.Fatalf("seed case: %v", err)
	}

	payload := map[string]any{
		"intervention_date":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"intervention_message": "tomorrow morning",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/cases/"+c.ID.String()+"/take", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 taking case, got %d: %s", rec.Code, rec.Body.String())
	}

	var taken models.Case
	if err := json.NewDecoder(rec.Body).Decode(&taken); err != nil {
		t.Fatalf("decode take response: %v", err)
	}
	if taken.Status != id.CaseStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", taken.Status)
	}

	// Taking again conflicts.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/cases/"+c.ID.String()+"/take", bytes.NewReader(body))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second take, got %d", rec.Code)
	}

	// Missing intervention date is rejected before the service runs.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/cases/"+c.ID.String()+"/take", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without intervention_date, got %d", rec.Code)
	}
}

func TestListValidatedWithViewport(t *testing.T) {
	router, st := newCaseRouter(t, id.NewUserID(), id.RoleVolunteer)

	seed := func(lat, lon float64, status id.CaseStatus) {
		c := &models.Case{
			ID: id.NewCaseID(), Title: "seed", Category: id.CaseCategoryOther,
			Status: status, AuthorID: id.NewUserID(),
			Latitude: lat, Longitude: lon,
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		}
		if err := st.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), c); err != nil {
			t.Fatalf("seed case: %v", err)
		}
	}
	seed(45.0, 4.0, id.CaseStatusValidated)
	seed(48.0, 2.0, id.CaseStatusValidated)
	seed(45.1, 4.1, id.CaseStatusPending)

	req := httptest.NewRequest(http.MethodGet,
		"/api/cases/validated?min_lat=44&max_lat=46&min_lon=3&max_lon=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing validated cases, got %d", rec.Code)
	}

	var resp struct {
		Cases []models.Case `json:"cases"`
		Total int           `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected exactly 1 case in viewport, got %d", resp.Total)
	}

	// Partial viewport is rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/cases/validated?min_lat=44", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for partial viewport, got %d", rec.Code)
	}
}

func TestUpdateForbiddenForStranger(t *testing.T) {
	authorRouter, st := newCaseRouter(t, id.NewUserID(), id.RoleCitizen)
	c := createCase(t, authorRouter)

	// A different actor sharing the same store.
	stranger := id.NewUserID()
	svc := service.NewService(st, nopNotifier{}, slog.New(slog.DiscardHandler), nil)
	h := New(svc, slog.New(slog.DiscardHandler), identityInjector(stranger, id.RoleCitizen))
	strangerRouter := chi.NewRouter()
	h.Register(strangerRouter)

	payload := map[string]any{"title": "hijacked", "category": "CLOTHING"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, "/api/cases/"+c.ID.String()+"/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	strangerRouter.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stranger update, got %d", rec.Code)
	}
}
