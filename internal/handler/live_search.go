package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/freightlink/internal/featureflags"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/freightlink/internal/search"
	"github.com/aryan0dhankhar/freightlink/internal/service"
)

const (
	pingInterval = 15 * time.Second
	writeWait    = 5 * time.Second
)

var errUnknownMessage = errors.New("unknown message type")

// LiveSearchMessage is one client command on the live search socket.
//
//	{"type":"patch","filters":{"region":["DE"]}}
//	{"type":"text","text":"kühl"}
//	{"type":"reset"}
//	{"type":"refresh"}
type LiveSearchMessage struct {
	Type    string          `json:"type"`
	Filters json.RawMessage `json:"filters,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// LiveSearchHandler keeps one search.Engine per websocket connection and
// pushes every snapshot to the client.
type LiveSearchHandler struct {
	searcher       search.Searcher
	preferences    *service.PreferencesService
	guard          *service.TenantGuard
	debounce       time.Duration
	allowedOrigins []string
	logger         *slog.Logger
}

func NewLiveSearchHandler(
	searcher search.Searcher,
	preferences *service.PreferencesService,
	guard *service.TenantGuard,
	debounce time.Duration,
	allowedOrigins []string,
	logger *slog.Logger,
) *LiveSearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveSearchHandler{
		searcher:       searcher,
		preferences:    preferences,
		guard:          guard,
		debounce:       debounce,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *LiveSearchHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/subcontractors/search
func (h *LiveSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !featureflags.LiveSearch.Enabled() {
		writeError(w, http.StatusNotFound, "live search disabled")
		return
	}

	aff, ok := requireShipper(w, r, h.guard, h.logger)
	if !ok {
		return
	}
	initial, err := h.preferences.DefaultFilter(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	metrics.LiveSearchOpened()
	defer metrics.LiveSearchClosed()

	var writeMu sync.Mutex
	send := func(v any) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(v); err != nil {
			h.logger.Debug("live search write failed", slog.String("error", err.Error()))
		}
	}

	engine := search.NewEngine(r.Context(), h.searcher, h.logger,
		search.WithDebounce(h.debounce),
		search.WithInitialFilter(initial),
		search.WithListener(func(s search.Snapshot) { send(s) }),
	)
	defer engine.Close()
	engine.Start()

	// Heartbeat ping to keep connection alive
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
			case <-done:
				return
			}
		}
	}()

	for {
		var msg LiveSearchMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live search closed", slog.String("reason", err.Error()))
			}
			return
		}
		if err := h.apply(engine, msg); err != nil {
			send(ErrorResponse{Error: err.Error()})
		}
	}
}

func (h *LiveSearchHandler) apply(engine *search.Engine, msg LiveSearchMessage) error {
	switch msg.Type {
	case "patch":
		patch, err := search.ParsePatch(msg.Filters)
		if err != nil {
			return err
		}
		engine.UpdateFilters(patch)
	case "text":
		engine.SetSearchText(msg.Text)
	case "reset":
		engine.ResetFilters()
	case "refresh":
		engine.Refresh()
	default:
		return errUnknownMessage
	}
	return nil
}
