// Package server exposes the layout pipeline over HTTP.
//
// The API accepts structural descriptions, solves them into pixel
// geometry, verifies rendered candidates, and tracks long-running
// generation jobs. Solved layouts and verification reports are cached by
// content hash.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/canvasmith/canvasmith/pkg/cache"
	"github.com/canvasmith/canvasmith/pkg/config"
	apperrors "github.com/canvasmith/canvasmith/pkg/errors"
	"github.com/canvasmith/canvasmith/pkg/layout"
	"github.com/canvasmith/canvasmith/pkg/layout/relax"
	"github.com/canvasmith/canvasmith/pkg/refine"
	"github.com/canvasmith/canvasmith/pkg/verify"
)

// Server wires the layout pipeline to an HTTP API.
type Server struct {
	cfg    config.Config
	store  JobStore
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger

	// renderer rasterizes candidates for the pixel-level verification
	// layers. Optional.
	renderer refine.Renderer

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithRenderer installs a rasterizer for pixel-level verification.
func WithRenderer(r refine.Renderer) Option {
	return func(s *Server) { s.renderer = r }
}

// WithCache installs a cache backend for solved layouts and reports.
func WithCache(c cache.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// New creates a Server. store must not be nil; the cache defaults to a
// no-op backend.
func New(cfg config.Config, store JobStore, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Post("/verify", s.handleVerify)
		r.Post("/generate", s.handleGenerate)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// solveRequest is the body of POST /api/solve: a structural description
// plus optional canvas overrides.
type solveRequest struct {
	Design       *layout.Description `json:"design"`
	CanvasWidth  int                 `json:"canvasWidth,omitempty"`
	CanvasHeight int                 `json:"canvasHeight,omitempty"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Design == nil {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidDescription, "missing design"))
		return
	}

	width, height := s.cfg.Canvas.Width, s.cfg.Canvas.Height
	if req.CanvasWidth > 0 {
		width = req.CanvasWidth
	}
	if req.CanvasHeight > 0 {
		height = req.CanvasHeight
	}

	keyOpts := cache.LayoutKeyOpts{
		CanvasWidth:  width,
		CanvasHeight: height,
		BudgetMs:     s.cfg.Solver.BudgetMs,
		MaxAttempts:  s.cfg.Solver.MaxAttempts,
	}
	raw, _ := json.Marshal(req.Design)
	key := s.keyer.LayoutKey(cache.Hash(raw), keyOpts)
	if cached, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	g, structErrs := layout.FromDescription(req.Design, width, height)
	if len(structErrs) > 0 {
		msgs := make([]string, len(structErrs))
		for i, se := range structErrs {
			msgs[i] = se.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": msgs})
		return
	}

	solved := relax.Solve(g, relax.Options{
		Budget:      s.cfg.SolveBudget(),
		MaxAttempts: s.cfg.Solver.MaxAttempts,
	})
	calc := solved.Graph.Export(layout.CalculatedMeta{
		Status:             string(solved.Solved.Status),
		SolveTimeMs:        solved.Solved.SolveTimeMs,
		OmittedConstraints: solved.Solved.Omitted,
		Degraded:           solved.Degraded,
	})

	body, err := json.Marshal(calc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.cache.Set(r.Context(), key, body, s.cfg.CacheTTL()); err != nil {
		s.logger.Warn("cache write failed", "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// verifyRequest is the body of POST /api/verify.
type verifyRequest struct {
	SVG string `json:"svg"`
	// Rendered is an optional base64 PNG for the pixel layers.
	Rendered []byte   `json:"rendered,omitempty"`
	Palette  []string `json:"palette,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.SVG == "" {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidSVG, "missing svg"))
		return
	}

	palette := req.Palette
	if palette == nil {
		palette = s.cfg.Verify.Palette
	}

	keyOpts := cache.ReportKeyOpts{
		CanvasWidth:  s.cfg.Canvas.Width,
		CanvasHeight: s.cfg.Canvas.Height,
		MinFontSize:  s.cfg.Verify.MinFontSize,
		Palette:      palette,
	}
	key := s.keyer.ReportKey(cache.Hash([]byte(req.SVG)), keyOpts)
	if req.Rendered == nil {
		if cached, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	pipeline := verify.NewPipeline(s.cfg.Canvas.Width, s.cfg.Canvas.Height,
		verify.WithPalette(palette),
		verify.WithMinFontSize(s.cfg.Verify.MinFontSize),
		verify.WithMinSpacing(s.cfg.Verify.MinSpacing),
		verify.WithPixelThresholds(s.cfg.Verify.BlankThreshold, s.cfg.Verify.VarianceMin, s.cfg.Verify.VarianceMax),
		verify.WithBalanceThreshold(s.cfg.Verify.BalanceThreshold),
	)
	report := pipeline.Verify(r.Context(), req.SVG, req.Rendered)

	body, err := json.Marshal(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if req.Rendered == nil {
		if err := s.cache.Set(r.Context(), key, body, s.cfg.CacheTTL()); err != nil {
			s.logger.Warn("cache write failed", "err", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// generateRequest is the body of POST /api/generate.
type generateRequest struct {
	Prompt string              `json:"prompt,omitempty"`
	Design *layout.Description `json:"design"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Design == nil {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidDescription, "missing design"))
		return
	}

	job := NewJob(req.Prompt)
	if err := s.store.Create(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	go s.runJob(job, req.Design)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     job.ID,
		"status": string(job.Status),
	})
}

// runJob drives the refinement loop for one job in the background. The
// job record is the only channel back to the caller.
func (s *Server) runJob(job *Job, desc *layout.Description) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RefineBudget()+5*time.Second)
	defer cancel()

	job.Status = JobRunning
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("job update failed", "id", job.ID, "err", err)
	}

	controller := refine.NewController(descriptionGenerator{desc: desc}, refine.Options{
		CanvasWidth:      s.cfg.Canvas.Width,
		CanvasHeight:     s.cfg.Canvas.Height,
		Palette:          s.cfg.Verify.Palette,
		MinFontSize:      s.cfg.Verify.MinFontSize,
		MinSpacing:       s.cfg.Verify.MinSpacing,
		BlankThreshold:   s.cfg.Verify.BlankThreshold,
		VarianceMin:      s.cfg.Verify.VarianceMin,
		VarianceMax:      s.cfg.Verify.VarianceMax,
		BalanceThreshold: s.cfg.Verify.BalanceThreshold,
		MaxIterations:    s.cfg.Refine.MaxIterations,
		Budget:           s.cfg.RefineBudget(),
		SolveBudget:      s.cfg.SolveBudget(),
		MaxSolveAttempts: s.cfg.Solver.MaxAttempts,
		Renderer:         s.renderer,
	})
	result := controller.Run(ctx, job.Prompt)

	job.Result = result
	switch {
	case result.Success:
		job.Status = JobDone
	case result.Partial:
		job.Status = JobPartial
	default:
		job.Status = JobFailed
		if len(result.Errors) > 0 {
			job.Error = result.Errors[len(result.Errors)-1]
		}
	}
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("job update failed", "id", job.ID, "err", err)
	}
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ErrJobNotFound) {
		writeError(w, http.StatusNotFound, apperrors.New(apperrors.ErrCodeJobNotFound, "job %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	jobs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// descriptionGenerator adapts a fixed structural description to the
// refinement loop's Generator interface. The description comes from the
// API client; feedback has nowhere to go and is dropped.
type descriptionGenerator struct {
	desc *layout.Description
}

func (g descriptionGenerator) Generate(context.Context, string, string) (*layout.Description, error) {
	return g.desc, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": apperrors.UserMessage(err)}
	if code := apperrors.GetCode(err); code != "" {
		body["code"] = string(code)
	}
	writeJSON(w, status, body)
}
