package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/freightlink/internal/handler"
	"github.com/aryan0dhankhar/freightlink/internal/security/audit"
)

type routes struct {
	health      *handler.HealthHandler
	auth        *handler.AuthHandler
	me          *handler.MeHandler
	tenancy     *handler.TenancyHandler
	company     *handler.CompanyHandler
	invitations *handler.InvitationHandler
	accept      http.Handler
	acceptPath  string
	tours       *handler.TourHandler
	fleet       *handler.FleetHandler
	preferences *handler.PreferencesHandler
	search      *handler.SearchHandler
	liveSearch  http.Handler
}

func newRouter(rt routes) *http.ServeMux {
	mux := http.NewServeMux()

	// Health and readiness endpoints (no auth required)
	mux.HandleFunc("GET /healthz", rt.health.Health)
	mux.HandleFunc("GET /readyz", rt.health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", rt.auth.Register)
	mux.HandleFunc("POST /api/auth/login", rt.auth.Login)
	mux.HandleFunc("POST /api/auth/change-password", rt.auth.ChangePassword)

	mux.HandleFunc("GET /api/me", rt.me.Get)
	mux.HandleFunc("POST /api/me/refresh", rt.me.Refresh)
	mux.HandleFunc("PUT /api/profile", rt.me.UpdateProfile)

	mux.HandleFunc("GET /api/tenancy/owned", rt.tenancy.Owned)
	mux.HandleFunc("GET /api/tenancy/membership", rt.tenancy.Membership)
	mux.HandleFunc("GET /api/tenancy/role/{companyId}", rt.tenancy.Role)

	mux.HandleFunc("POST /api/companies", rt.company.Create)
	mux.HandleFunc("GET /api/company", rt.company.Get)
	mux.HandleFunc("PUT /api/company", rt.company.Update)
	mux.HandleFunc("GET /api/company/members", rt.company.Members)
	mux.HandleFunc("PUT /api/company/members/{userId}", rt.company.ChangeRole)
	mux.HandleFunc("DELETE /api/company/members/{userId}", rt.company.RemoveMember)

	mux.HandleFunc("GET /api/company/invitations", rt.invitations.List)
	mux.HandleFunc("POST /api/company/invitations", rt.invitations.Create)
	mux.HandleFunc("DELETE /api/company/invitations/{id}", rt.invitations.Delete)
	mux.HandleFunc("GET /api/invitations/by-token/{token}", rt.invitations.ByToken)
	// The function answers every method itself (OPTIONS, POST, 405).
	mux.Handle(rt.acceptPath, rt.accept)

	mux.HandleFunc("GET /api/tours", rt.tours.List)
	mux.HandleFunc("POST /api/tours", rt.tours.Create)
	mux.HandleFunc("GET /api/tours/{id}", rt.tours.Get)
	mux.HandleFunc("PUT /api/tours/{id}", rt.tours.Update)
	mux.HandleFunc("DELETE /api/tours/{id}", rt.tours.Delete)
	mux.HandleFunc("POST /api/tours/{id}/status", rt.tours.ChangeStatus)

	mux.HandleFunc("GET /api/employees", rt.fleet.ListEmployees)
	mux.HandleFunc("POST /api/employees", rt.fleet.CreateEmployee)
	mux.HandleFunc("GET /api/employees/{id}", rt.fleet.GetEmployee)
	mux.HandleFunc("PUT /api/employees/{id}", rt.fleet.UpdateEmployee)
	mux.HandleFunc("DELETE /api/employees/{id}", rt.fleet.DeleteEmployee)
	mux.HandleFunc("GET /api/vehicles", rt.fleet.ListVehicles)
	mux.HandleFunc("POST /api/vehicles", rt.fleet.CreateVehicle)
	mux.HandleFunc("GET /api/vehicles/{id}", rt.fleet.GetVehicle)
	mux.HandleFunc("PUT /api/vehicles/{id}", rt.fleet.UpdateVehicle)
	mux.HandleFunc("DELETE /api/vehicles/{id}", rt.fleet.DeleteVehicle)

	mux.HandleFunc("GET /api/preferences", rt.preferences.GetPreferences)
	mux.HandleFunc("PUT /api/preferences", rt.preferences.UpdatePreferences)
	mux.HandleFunc("GET /api/preferences/filter", rt.preferences.DefaultFilter)
	mux.HandleFunc("GET /api/prequalification", rt.preferences.GetPrequalification)
	mux.HandleFunc("PUT /api/prequalification", rt.preferences.UpdatePrequalification)
	mux.HandleFunc("GET /api/public/companies/{id}", rt.preferences.PublicProfile)
	mux.HandleFunc("POST /api/public-profile/toggle/{section}", rt.preferences.ToggleSection)

	mux.HandleFunc("POST /api/subcontractors/search", rt.search.Search)
	mux.Handle("GET /ws/subcontractors/search", rt.liveSearch)

	return mux
}

// withCORS answers preflights for the API. The accept-invitation function
// sets its own headers and is passed through untouched.
func withCORS(allowed []string, acceptPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == acceptPath {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowed) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowed[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// withAccessLog logs every completed request with its request id.
func withAccessLog(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request completed",
			slog.String("request_id", audit.RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
