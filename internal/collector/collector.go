// Package collector is a sandbox implementation of the collector REST API.
// It verifies signatures, answers the handshake and records every event it
// accepts so tests and local tools can inspect them.
package collector

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Tap30/gameanalytics-go/adapters"
)

// MaxBodyBytes bounds a single request body.
const MaxBodyBytes = 1 << 20

type Config struct {
	// Keys maps game keys to their secret keys.
	Keys map[string]string
	// Disabled makes init answer enabled=false.
	Disabled bool
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// ReceivedEvent is one accepted event.
type ReceivedEvent struct {
	GameKey    string         `json:"game_key"`
	Route      string         `json:"route"`
	Fields     map[string]any `json:"fields"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Category returns the category field of the event, if any.
func (e ReceivedEvent) Category() string {
	category, _ := e.Fields["category"].(string)
	return category
}

type Collector struct {
	Router *chi.Mux

	keys   map[string]string
	now    func() time.Time
	logger *slog.Logger
	signer adapters.HMACSHA256Signer

	mu       sync.Mutex
	disabled bool
	failNext []int
	events   []ReceivedEvent
}

func New(config Config) *Collector {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	keys := make(map[string]string, len(config.Keys))
	for k, v := range config.Keys {
		keys[k] = v
	}

	c := &Collector{
		keys:     keys,
		now:      config.Now,
		logger:   config.Logger.With(slog.String("component", "collector")),
		disabled: config.Disabled,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(c.loggingMiddleware)
	r.Use(corsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "gameanalytics-collector")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/debug/events", c.handleListEvents)
	r.Post("/v2/{gameKey}/{route}", c.handleSubmit)

	c.Router = r
	return c
}

func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.Router.ServeHTTP(w, r)
}

// Events returns a copy of every accepted event in arrival order.
func (c *Collector) Events() []ReceivedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ReceivedEvent(nil), c.events...)
}

// EventsByCategory returns accepted events of one category.
func (c *Collector) EventsByCategory(category string) []ReceivedEvent {
	var out []ReceivedEvent
	for _, e := range c.Events() {
		if e.Category() == category {
			out = append(out, e)
		}
	}
	return out
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
	c.failNext = nil
}

func (c *Collector) SetDisabled(disabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = disabled
}

// FailNext makes the next submission answer with status.
func (c *Collector) FailNext(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = append(c.failNext, status)
}

func (c *Collector) popFailure() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.failNext) == 0 {
		return 0, false
	}
	status := c.failNext[0]
	c.failNext = c.failNext[1:]
	return status, true
}

func (c *Collector) handleSubmit(w http.ResponseWriter, r *http.Request) {
	gameKey := chi.URLParam(r, "gameKey")
	route := chi.URLParam(r, "route")

	if route != "init" && route != "events" {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}
	secret, ok := c.keys[gameKey]
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown game key")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "failed to read body")
		return
	}
	if !c.signer.Verify(secret, body, r.Header.Get("Authorization")) {
		c.logger.Warn("signature mismatch", slog.String("game_key", gameKey), slog.String("route", route))
		writeError(w, http.StatusUnauthorized, "invalid authorization")
		return
	}

	var envelope []map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(envelope) != 1 || envelope[0] == nil {
		writeError(w, http.StatusBadRequest, "expected exactly one event")
		return
	}

	if status, fail := c.popFailure(); fail {
		c.logger.Info("simulated failure", slog.String("route", route), slog.Int("status", status))
		writeError(w, status, "simulated failure")
		return
	}

	now := c.now()
	c.mu.Lock()
	c.events = append(c.events, ReceivedEvent{
		GameKey:    gameKey,
		Route:      route,
		Fields:     envelope[0],
		ReceivedAt: now,
	})
	disabled := c.disabled
	c.mu.Unlock()

	if route == "init" {
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled":   !disabled,
			"server_ts": now.Unix(),
			"flags":     []string{},
		})
		return
	}

	c.logger.Debug("event accepted", slog.String("game_key", gameKey), slog.Any("category", envelope[0]["category"]))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *Collector) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := c.Events()
	if events == nil {
		events = []ReceivedEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (c *Collector) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		c.logger.Info("request completed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
