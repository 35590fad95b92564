// Package status serves a small read-only HTTP API for checking on a
// running bot.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/scheduler"
)

const healthCheckTimeout = 5 * time.Second

// Entries is the read side of the entry index.
type Entries interface {
	All() []models.DiaryEntry
	Get(date string) (models.DiaryEntry, bool)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	entries   Entries
	db        Pinger
	docs      Pinger
	today     func() string
	scheduler func() scheduler.Status
}

// NewHandler wires the routes. docs and sched may be nil.
func NewHandler(entries Entries, db, docs Pinger, today func() string, sched func() scheduler.Status) *Handler {
	return &Handler{entries: entries, db: db, docs: docs, today: today, scheduler: sched}
}

// Router returns the chi router for the status API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Get("/today", h.TodayEntry)
		r.Get("/{date}", h.GetEntry)
	})
	r.Get("/scheduler", h.Scheduler)
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Health reports the index database and, when configured, the document
// store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"bot": "ok"}
	status := map[string]interface{}{"status": "healthy", "checks": checks}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("health check failed", "check", "database", "error", err)
		checks["database"] = "unreachable"
		status["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.docs != nil {
		if err := h.docs.Ping(ctx); err != nil {
			logger.Warn("health check failed", "check", "documents", "error", err)
			checks["documents"] = "unreachable"
			status["status"] = "degraded"
		} else {
			checks["documents"] = "ok"
		}
	}

	JSON(w, statusCode, status)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries := h.entries.All()
	if entries == nil {
		entries = []models.DiaryEntry{}
	}
	JSON(w, http.StatusOK, entries)
}

func (h *Handler) TodayEntry(w http.ResponseWriter, r *http.Request) {
	h.writeEntry(w, h.today())
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		Error(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	h.writeEntry(w, date)
}

func (h *Handler) writeEntry(w http.ResponseWriter, date string) {
	entry, ok := h.entries.Get(date)
	if !ok {
		Error(w, http.StatusNotFound, "no entry for "+date)
		return
	}
	JSON(w, http.StatusOK, entry)
}

func (h *Handler) Scheduler(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		Error(w, http.StatusNotFound, "scheduler not running")
		return
	}
	JSON(w, http.StatusOK, h.scheduler())
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
