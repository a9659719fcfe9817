package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/apicanary/internal/domain"
	apimw "github.com/hamed0406/apicanary/internal/httpapi/middleware"
	"github.com/hamed0406/apicanary/internal/repo"
)

// Invoker triggers one canary run out of schedule.
type Invoker interface {
	Invoke(ctx context.Context) (domain.RunRecord, error)
}

type Server struct {
	Logger  *zap.Logger
	Runs    repo.RunStore
	Host    Invoker
	Metrics http.Handler // Prometheus scrape handler; nil disables /metrics
}

func NewServer(l *zap.Logger, runs repo.RunStore, host Invoker, metrics http.Handler) *Server {
	return &Server{Logger: l, Runs: runs, Host: host, Metrics: metrics}
}

type Limits struct {
	PublicRPM, PublicBurst int
	AdminRPM, AdminBurst   int
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, lim Limits) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(lim.PublicRPM, lim.PublicBurst), apimw.RequireAny(keys))
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/latest", s.handleLatestRun)
	})
	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(lim.AdminRPM, lim.AdminBurst), apimw.RequireAdmin(keys))
		r.Post("/api/runs", s.handleTriggerRun)
	})

	return r
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be 1..1000")
			return
		}
		limit = n
	}
	runs, err := s.Runs.List(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("api_list_runs_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Runs.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("api_latest_run_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "latest error")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "no runs yet")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleTriggerRun answers 200 when the canary passed and 502 when it failed;
// both carry the stored run.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	// the run is recorded even if the caller hangs up
	rec, err := s.Host.Invoke(context.WithoutCancel(r.Context()))
	s.Logger.Info("api_triggered_run",
		zap.String("run_id", string(rec.ID)),
		zap.Bool("success", rec.Success),
	)
	code := http.StatusOK
	if err != nil {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]any{"run": rec})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
