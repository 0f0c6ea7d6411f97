package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/freightlink/internal/search"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/service"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

// SearchResponse is one search result set with the filter that produced it.
type SearchResponse struct {
	Filter  search.Filter                `json:"filter"`
	Results []domain.SubcontractorRecord `json:"results"`
}

// SearchHandler runs one-shot subcontractor searches for shippers.
type SearchHandler struct {
	searcher    search.Searcher
	preferences *service.PreferencesService
	guard       *service.TenantGuard
	logger      *slog.Logger
}

func NewSearchHandler(searcher search.Searcher, preferences *service.PreferencesService, guard *service.TenantGuard, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{searcher: searcher, preferences: preferences, guard: guard, logger: logger}
}

// Search handles POST /api/subcontractors/search
//
// The body is a filter patch applied over the company's saved preferences.
// With ?defaults=false the patch is applied over an empty filter instead.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	aff, ok := requireShipper(w, r, h.guard, h.logger)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var f search.Filter
	if r.URL.Query().Get("defaults") != "false" {
		f, err = h.preferences.DefaultFilter(r.Context(), aff.Company.ID)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
	}
	if len(bytes.TrimSpace(body)) > 0 {
		patch, err := search.ParsePatch(body)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		f = search.Merge(f, patch)
	}

	start := time.Now()
	records, err := h.searcher.Search(r.Context(), f)
	if err != nil {
		metrics.ObserveSearch("error", time.Since(start))
		writeServiceError(w, r, h.logger, err)
		return
	}
	metrics.ObserveSearch("ok", time.Since(start))
	if records == nil {
		records = []domain.SubcontractorRecord{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Filter: f, Results: records})
}

func requireShipper(w http.ResponseWriter, r *http.Request, guard *service.TenantGuard, logger *slog.Logger) (tenancy.Affiliation, bool) {
	aff, err := guard.RequireType(r.Context(), middleware.UserIDFromContext(r.Context()), security.PermSearchSubcontractors, domain.CompanyTypeShipper)
	if err != nil {
		writeServiceError(w, r, logger, err)
		return aff, false
	}
	return aff, true
}
