package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/contentedge/insight/internal/application/analysis"
	domain "github.com/contentedge/insight/internal/domain/analysis"
	"github.com/contentedge/insight/internal/middleware"
)

// Options tunes the ambient middleware; zero values get sane defaults.
type Options struct {
	JWTSecret      []byte
	RateCapacity   int
	RateRefillRate int
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc *appanalysis.Service
	log *zap.Logger
}

func NewRouter(svc *appanalysis.Service, log *zap.Logger, opts Options) http.Handler {
	if opts.RateCapacity <= 0 {
		opts.RateCapacity = 20
	}
	if opts.RateRefillRate <= 0 {
		opts.RateRefillRate = 5
	}

	r := &Router{svc: svc, log: log}
	mux := chi.NewRouter()

	// Preflight and permissive cross-origin access are part of the wire
	// contract; the browser client calls from arbitrary origins.
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
	}))
	mux.Use(middleware.RequestLogging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.BearerIdentity(opts.JWTSecret, log))
	mux.Use(middleware.RateLimit(opts.RateCapacity, opts.RateRefillRate))

	mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/trends", r.wrap(r.handleTrends))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto the wire contract. Anything unclassified is a
// generic server error with the cause in details.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		case errors.Is(err, errAuthRequired):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		default:
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "Server error",
				"details": err.Error(),
			})
		}
	}
}

var errAuthRequired = errors.New("authentication required")

// POST /v1/analyze
// Body: {"text": "..."} or {"videoUrl": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text     string `json:"text"`
		VideoURL string `json:"videoUrl"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return domain.ErrInvalidInput
	}

	owner := middleware.Owner(req.Context())

	switch {
	case body.Text != "":
		if err := middleware.ValidateText(body.Text); err != nil {
			return domain.ErrInvalidInput
		}
		out, err := r.svc.AnalyzeText(req.Context(), owner, body.Text)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, out)
		return nil
	case body.VideoURL != "":
		if err := middleware.ValidateVideoURL(body.VideoURL); err != nil {
			return domain.ErrInvalidInput
		}
		out, err := r.svc.AnalyzeVideo(req.Context(), owner, body.VideoURL)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, out)
		return nil
	default:
		return domain.ErrInvalidInput
	}
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	owner := middleware.Owner(req.Context())
	id := chi.URLParam(req, "id")

	rec, err := r.svc.Get(req.Context(), owner, domain.RecordID(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

// GET /v1/analyses
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	owner := middleware.Owner(req.Context())
	if owner == "" {
		return errAuthRequired
	}

	recs, err := r.svc.ListByOwner(req.Context(), owner)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, recs)
	return nil
}

// GET /v1/trends?days=7
func (r *Router) handleTrends(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	stats, err := r.svc.Summary(req.Context(), middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
