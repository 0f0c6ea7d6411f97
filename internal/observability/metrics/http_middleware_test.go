package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPMetricsMiddlewareRecordsStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tours/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	HTTPMetricsMiddleware(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tours/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418 to pass through, got %d", rec.Code)
	}
}

func TestStatusWriterHijackUnsupported(t *testing.T) {
	w := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: 200}
	if _, _, err := w.Hijack(); err == nil {
		t.Fatal("expected hijack on a recorder to fail")
	}
}
