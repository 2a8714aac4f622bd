package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	adminHandler "solidarlink/internal/admin/handler"
	adminService "solidarlink/internal/admin/service"
	authModels "solidarlink/internal/auth/models"
	userStore "solidarlink/internal/auth/store/user"
	"solidarlink/internal/cases/models"
	caseStore "solidarlink/internal/cases/store"
	"solidarlink/internal/platform/middleware"
	"solidarlink/internal/reports"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/testutil"
)

type adminFixture struct {
	adminID id.UserID
	cases   caseStore.Store
	users   userStore.Store
	reports reports.Store
	router  *chi.Mux
}

// newAdminFixture wires the handler behind the real admin-role middleware and
// a test identity injector standing in for token auth.
func newAdminFixture(t *testing.T, role id.Role) *adminFixture {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	cases := caseStore.NewInMemoryStore()
	users := userStore.NewInMemoryStore()
	reportStore := reports.NewInMemoryStore()
	svc := adminService.NewService(cases, users, reportStore, log)

	adminID := id.NewUserID()
	h := adminHandler.New(svc, log,
		testutil.ActorMiddleware(adminID, role),
		middleware.RequireAdmin(log),
	)
	router := chi.NewRouter()
	h.Register(router)

	return &adminFixture{adminID: adminID, cases: cases, users: users, reports: reportStore, router: router}
}

func (f *adminFixture) seedCase(t *testing.T, status id.CaseStatus) *models.Case {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Case{
		ID:        id.NewCaseID(),
		Title:     "leaking roof",
		Category:  id.CaseCategoryShelter,
		Status:    status,
		AuthorID:  id.NewUserID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.cases.Create(context.Background(), c); err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return c
}

func (f *adminFixture) seedUser(t *testing.T, email string, role id.Role, validated bool) *authModels.User {
	t.Helper()
	u := &authModels.User{
		ID:        id.NewUserID(),
		Email:     email,
		Role:      role,
		Validated: validated,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.users.Save(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestSetCaseStatus(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	c := f.seedCase(t, id.CaseStatusPending)

	req := testutil.NewJSONRequest(t, http.MethodPut,
		"/api/admin/cases/"+c.ID.String()+"/status",
		map[string]string{"status": "VALIDATED"})
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalResponse[models.Case](t, rr)
	if got.Status != id.CaseStatusValidated {
		t.Fatalf("expected VALIDATED, got %s", got.Status)
	}
}

func TestSetCaseStatusRejectsBadInput(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	c := f.seedCase(t, id.CaseStatusPending)

	req := testutil.NewJSONRequest(t, http.MethodPut,
		"/api/admin/cases/"+c.ID.String()+"/status",
		map[string]string{"status": "SHIPPED"})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")

	req = testutil.NewJSONRequest(t, http.MethodPut,
		"/api/admin/cases/not-a-uuid/status",
		map[string]string{"status": "VALIDATED"})
	rr = testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func TestSetCaseStatusTerminalCaseRefuses(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	c := f.seedCase(t, id.CaseStatusResolved)

	req := testutil.NewJSONRequest(t, http.MethodPut,
		"/api/admin/cases/"+c.ID.String()+"/status",
		map[string]string{"status": "PENDING"})
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_transition")
}

func TestNonAdminIsRejectedByMiddleware(t *testing.T) {
	f := newAdminFixture(t, id.RoleVolunteer)
	c := f.seedCase(t, id.CaseStatusPending)

	req := testutil.NewJSONRequest(t, http.MethodPut,
		"/api/admin/cases/"+c.ID.String()+"/status",
		map[string]string{"status": "VALIDATED"})
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}

func TestDeleteCase(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	c := f.seedCase(t, id.CaseStatusPending)

	req := testutil.NewRequest(t, http.MethodDelete, "/api/admin/cases/"+c.ID.String())
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodDelete, "/api/admin/cases/"+c.ID.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestUserModeration(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	pending := f.seedUser(t, "pending@example.org", id.RoleVolunteer, false)
	f.seedUser(t, "citizen@example.org", id.RoleCitizen, true)

	rr := testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodGet, "/api/admin/users/pending"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "total", float64(1))

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodPut, "/api/admin/users/"+pending.ID.String()+"/validate"))
	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalResponse[authModels.User](t, rr)
	if !got.Validated {
		t.Fatal("expected user to be validated")
	}

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodPut, "/api/admin/users/"+pending.ID.String()+"/ban"))
	testutil.AssertStatusOK(t, rr)
	got = testutil.UnmarshalResponse[authModels.User](t, rr)
	if !got.Banned {
		t.Fatal("expected user to be banned")
	}

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodDelete, "/api/admin/users/"+pending.ID.String()))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodGet, "/api/admin/users/pending"))
	testutil.AssertJSONContains(t, rr, "total", float64(0))
}

func TestSelfBanIsBlocked(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)

	rr := testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodPut, "/api/admin/users/"+f.adminID.String()+"/ban"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func (f *adminFixture) seedReport(t *testing.T, reason string) *reports.Report {
	t.Helper()
	r := &reports.Report{
		ID:         id.NewReportID(),
		ReporterID: id.NewUserID(),
		CaseID:     id.NewCaseID(),
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := f.reports.Create(context.Background(), r); err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return r
}

func TestReportModeration(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	first := f.seedReport(t, "spam")
	f.seedReport(t, "duplicate")

	rr := testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodGet, "/api/admin/reports"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "total", float64(2))

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodPut, "/api/admin/reports/"+first.ID.String()+"/close"))
	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalResponse[reports.Report](t, rr)
	if !got.Closed {
		t.Fatal("expected report to be closed")
	}

	rr = testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodGet, "/api/admin/reports?open=true"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "total", float64(1))
}

func TestCloseUnknownReport(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)

	rr := testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodPut, "/api/admin/reports/"+id.NewReportID().String()+"/close"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestStats(t *testing.T) {
	f := newAdminFixture(t, id.RoleAdmin)
	f.seedCase(t, id.CaseStatusPending)
	f.seedCase(t, id.CaseStatusValidated)
	f.seedCase(t, id.CaseStatusResolved)
	f.seedUser(t, "one@example.org", id.RoleCitizen, true)

	rr := testutil.DoRequest(f.router,
		testutil.NewRequest(t, http.MethodGet, "/api/admin/stats"))
	testutil.AssertStatusOK(t, rr)

	stats := testutil.UnmarshalResponse[adminService.Stats](t, rr)
	if stats.TotalCases != 3 || stats.PendingCases != 1 || stats.ResolvedCases != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalUsers != 1 {
		t.Fatalf("expected 1 user, got %d", stats.TotalUsers)
	}
}
