package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/search"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/security/audit"
	"github.com/aryan0dhankhar/freightlink/internal/security/auth"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/service"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubStore is an in-memory tenancy.Store.
type stubStore struct {
	owned  map[string]*domain.Company
	joined map[string]*domain.Company
	roles  map[string]domain.Role // key: companyID/userID
}

func newStubStore() *stubStore {
	return &stubStore{
		owned:  map[string]*domain.Company{},
		joined: map[string]*domain.Company{},
		roles:  map[string]domain.Role{},
	}
}

func (s *stubStore) own(userID string, c *domain.Company) {
	s.owned[userID] = c
	s.roles[c.ID+"/"+userID] = domain.RoleCompanyAdmin
}

func (s *stubStore) join(userID string, c *domain.Company, role domain.Role) {
	s.joined[userID] = c
	s.roles[c.ID+"/"+userID] = role
}

func (s *stubStore) OwnedCompany(_ context.Context, id string) (*domain.Company, error) {
	if c, ok := s.owned[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) MemberRole(_ context.Context, companyID, id string) (domain.Role, error) {
	if r, ok := s.roles[companyID+"/"+id]; ok {
		return r, nil
	}
	return "", domain.ErrNotFound
}

func (s *stubStore) JoinedCompany(_ context.Context, id string) (*domain.Company, domain.Role, error) {
	c, ok := s.joined[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return c, s.roles[c.ID+"/"+id], nil
}

type memPreferences struct {
	byCompany map[string]*domain.Preferences
}

func (m *memPreferences) Get(_ context.Context, companyID string) (*domain.Preferences, error) {
	if p, ok := m.byCompany[companyID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPreferences) Upsert(_ context.Context, p *domain.Preferences) error {
	m.byCompany[p.CompanyID] = p
	return nil
}

type memProfiles struct {
	byID map[string]*domain.Profile
}

func (m *memProfiles) Create(_ context.Context, p *domain.Profile) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	m.byID[p.ID] = p
	return nil
}

var (
	shipper    = &domain.Company{ID: "c-ship", OwnerID: "u-owner", Type: domain.CompanyTypeShipper, Name: "Nordfracht"}
	subcarrier = &domain.Company{ID: "c-sub", OwnerID: "u-sub", Type: domain.CompanyTypeSubcontractor, Name: "Kowalski Trans"}
)

func newGuard(store tenancy.Store) (*service.TenantGuard, *tenancy.Resolver) {
	resolver := tenancy.NewResolver(store, quiet(), tenancy.WithMinInterval(0))
	return service.NewTenantGuard(resolver, security.NewAuthorizationService(quiet())), resolver
}

func asUser(r *http.Request, userID string) *http.Request {
	claims := &auth.Claims{UserID: userID, Email: userID + "@example.com"}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrInvalidTransition, http.StatusBadRequest},
		{domain.ErrInvalidCredential, http.StatusUnauthorized},
		{domain.ErrNoCompany, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvitationUsed, http.StatusConflict},
		{domain.ErrAlreadyAffiliated, http.StatusConflict},
		{domain.ErrInvitationExpired, http.StatusGone},
		{domain.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteServiceErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tours", nil)
	writeServiceError(rec, req, quiet(), errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody[ErrorResponse](t, rec); body.Error != "internal error" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","bogus":1}`))
	var v LoginRequest
	err := decodeJSON(httptest.NewRecorder(), req, &v)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestHealthReady(t *testing.T) {
	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": nil}, quiet())
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	body := decodeBody[ReadinessResponse](t, rec)
	if body.Checks["redis"] != "not configured" {
		t.Fatalf("redis check = %q", body.Checks["redis"])
	}

	h = NewHealthHandler(map[string]Pinger{"postgres": down}, quiet())
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not-ready status = %d", rec.Code)
	}
}

func TestAcceptInvitationRequestHandling(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "test", time.Hour)
	token, err := tm.GenerateToken("u-1", "u1@example.com")
	if err != nil {
		t.Fatal(err)
	}
	h := NewAcceptInvitationHandler(nil, tm, audit.NewLogger(quiet()), quiet())

	full := `{"userId":"u-1","invitationId":"i-1","companyId":"c-1","role":"employee"}`
	tests := []struct {
		name   string
		method string
		auth   string
		body   string
		want   int
	}{
		{"preflight", http.MethodOptions, "", "", http.StatusNoContent},
		{"wrong method", http.MethodGet, "", "", http.StatusMethodNotAllowed},
		{"no token", http.MethodPost, "", full, http.StatusUnauthorized},
		{"bad token", http.MethodPost, "Bearer nope", full, http.StatusUnauthorized},
		{"missing fields", http.MethodPost, "Bearer " + token, `{"userId":"u-1"}`, http.StatusBadRequest},
		{"other user", http.MethodPost, "Bearer " + token,
			`{"userId":"u-2","invitationId":"i-1","companyId":"c-1","role":"employee"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/functions/v1/accept-invitation", strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Fatal("CORS headers missing")
			}
		})
	}
}

func TestSearchAppliesPatchOverPreferences(t *testing.T) {
	store := newStubStore()
	store.own("u-owner", shipper)
	guard, _ := newGuard(store)

	prefs := &memPreferences{byCompany: map[string]*domain.Preferences{
		shipper.ID: {CompanyID: shipper.ID, PreferredRegions: []string{"DE"}, RequireADR: true},
	}}
	preferences := service.NewPreferencesService(prefs, nil, nil, quiet())

	var got search.Filter
	searcher := search.SearcherFunc(func(_ context.Context, f search.Filter) ([]domain.SubcontractorRecord, error) {
		got = f
		return []domain.SubcontractorRecord{{CompanyID: subcarrier.ID, CompanyName: subcarrier.Name}}, nil
	})
	h := NewSearchHandler(searcher, preferences, guard, quiet())

	req := httptest.NewRequest(http.MethodPost, "/api/subcontractors/search", strings.NewReader(`{"vehicleTypes":["mega"]}`))
	rec := httptest.NewRecorder()
	h.Search(rec, asUser(req, "u-owner"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(got.Region) != 1 || got.Region[0] != "DE" || !got.Certificates.ADR {
		t.Fatalf("preferences not applied: %+v", got)
	}
	if len(got.VehicleTypes) != 1 || got.VehicleTypes[0] != "mega" {
		t.Fatalf("patch not applied: %+v", got)
	}
	body := decodeBody[SearchResponse](t, rec)
	if len(body.Results) != 1 || body.Results[0].CompanyID != subcarrier.ID {
		t.Fatalf("results = %+v", body.Results)
	}
}

func TestSearchWithoutDefaults(t *testing.T) {
	store := newStubStore()
	store.own("u-owner", shipper)
	guard, _ := newGuard(store)
	prefs := &memPreferences{byCompany: map[string]*domain.Preferences{
		shipper.ID: {CompanyID: shipper.ID, PreferredRegions: []string{"DE"}},
	}}

	var got search.Filter
	searcher := search.SearcherFunc(func(_ context.Context, f search.Filter) ([]domain.SubcontractorRecord, error) {
		got = f
		return nil, nil
	})
	h := NewSearchHandler(searcher, service.NewPreferencesService(prefs, nil, nil, quiet()), guard, quiet())

	req := httptest.NewRequest(http.MethodPost, "/api/subcontractors/search?defaults=false", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, asUser(req, "u-owner"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !got.Empty() {
		t.Fatalf("filter = %+v, want empty", got)
	}
	if body := decodeBody[SearchResponse](t, rec); body.Results == nil {
		t.Fatal("results should encode as an empty list")
	}
}

func TestSearchRejections(t *testing.T) {
	store := newStubStore()
	store.own("u-owner", shipper)
	store.own("u-sub", subcarrier)
	guard, _ := newGuard(store)
	preferences := service.NewPreferencesService(&memPreferences{byCompany: map[string]*domain.Preferences{}}, nil, nil, quiet())

	searcher := search.SearcherFunc(func(context.Context, search.Filter) ([]domain.SubcontractorRecord, error) {
		return nil, domain.ErrUnavailable
	})
	h := NewSearchHandler(searcher, preferences, guard, quiet())

	tests := []struct {
		name string
		user string
		body string
		want int
	}{
		{"no company", "u-nobody", `{}`, http.StatusForbidden},
		{"subcontractor", "u-sub", `{}`, http.StatusForbidden},
		{"bad patch", "u-owner", `{"colour":"red"}`, http.StatusBadRequest},
		{"backend down", "u-owner", `{}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/subcontractors/search", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Search(rec, asUser(req, tt.user))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestMeReportsAffiliationAndHomeRoute(t *testing.T) {
	store := newStubStore()
	store.join("u-driver", subcarrier, domain.RoleDriver)
	_, resolver := newGuard(store)
	profiles := service.NewProfileService(&memProfiles{byID: map[string]*domain.Profile{
		"u-driver": {ID: "u-driver", FirstName: "Jan"},
	}}, quiet())
	h := NewMeHandler(profiles, resolver, quiet())

	rec := httptest.NewRecorder()
	h.Get(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/me", nil), "u-driver"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[MeResponse](t, rec)
	if !body.HasCompany || body.Affiliation != "member" || body.Role != domain.RoleDriver {
		t.Fatalf("me = %+v", body)
	}
	if body.HomeRoute != tenancy.RouteSubcontractorDashboard {
		t.Fatalf("home = %q", body.HomeRoute)
	}

	rec = httptest.NewRecorder()
	h.Refresh(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/me/refresh", nil), "u-new"))
	body = decodeBody[MeResponse](t, rec)
	if body.HasCompany || body.HomeRoute != tenancy.RouteCreateCompany || body.Profile != nil {
		t.Fatalf("new user me = %+v", body)
	}
}

func TestTenancyLookups(t *testing.T) {
	store := newStubStore()
	store.own("u-owner", shipper)
	h := NewTenancyHandler(store, quiet())

	rec := httptest.NewRecorder()
	h.Owned(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/tenancy/owned", nil), "u-owner"))
	if rec.Code != http.StatusOK || decodeBody[domain.Company](t, rec).ID != shipper.ID {
		t.Fatalf("owned = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Membership(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/tenancy/membership", nil), "u-owner"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("membership status = %d, want 404", rec.Code)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tenancy/role/{companyId}", h.Role)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/tenancy/role/"+shipper.ID, nil), "u-owner"))
	if got := decodeBody[map[string]domain.Role](t, rec)["role"]; got != domain.RoleCompanyAdmin {
		t.Fatalf("role = %q", got)
	}
}

func TestTenantRoutesRequirePermission(t *testing.T) {
	store := newStubStore()
	store.join("u-driver", subcarrier, domain.RoleDriver)
	guard, _ := newGuard(store)

	tours := NewTourHandler(nil, guard, quiet())
	fleet := NewFleetHandler(nil, guard, quiet())
	company := NewCompanyHandler(nil, guard, quiet())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		user    string
		want    int
	}{
		{"tours without company", tours.List, "u-nobody", http.StatusForbidden},
		{"driver creates tour", tours.Create, "u-driver", http.StatusForbidden},
		{"driver lists vehicles", fleet.ListVehicles, "u-driver", http.StatusForbidden},
		{"driver removes member", company.RemoveMember, "u-driver", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, asUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), tt.user))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestLiveSearchDisabledByDefault(t *testing.T) {
	t.Setenv("FLAG_LIVE_SEARCH", "")
	h := NewLiveSearchHandler(nil, nil, nil, time.Millisecond, nil, quiet())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/subcontractors/search", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
