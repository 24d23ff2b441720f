package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safecalc/internal/config"
	"safecalc/pkg/calc"
	"safecalc/pkg/checked"
	"safecalc/pkg/logger"
	"safecalc/pkg/metrics"
	"safecalc/pkg/middleware"
	"safecalc/pkg/rewrite"
)

const maxBodyBytes = 64 << 10

type Server struct {
	cfg    config.Config
	engine *calc.Engine
	router chi.Router
}

func New(cfg config.Config) *Server {
	s := &Server{cfg: cfg, engine: calc.NewEngine(cfg.Calc())}
	s.router = s.routes()
	return s
}

// Handler returns the root handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(logger.Middleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer(s.cfg.Development()))

	if len(s.cfg.Blocked) > 0 {
		blocked := middleware.NewIPBlockList(s.cfg.Blocked...)
		slog.Info("🚫 IP Blocklist Enabled", "ips", blocked.Len())
		r.Use(blocked.Middleware)
	}

	if s.cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))
	} else {
		slog.Info("⚠️  Rate Limiting Disabled (RATE_LIMIT_REQUESTS not set)")
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if s.cfg.Brotli {
		r.Use(middleware.Brotli)
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/eval", s.handleEval)
		r.Post("/rewrite", s.handleRewrite)
	})
	return r
}

// ListenAndServe serves until ctx is canceled and then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("🚀 Engine Ready", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("⚠️  Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("❌ Server Forced Shutdown", "error", err)
		return err
	}
	slog.Info("✅ Server Gracefully Stopped")
	return nil
}

type EvalRequest struct {
	Expr string `json:"expr"`
	// Vars are name:kind=value bindings.
	Vars []string `json:"vars"`
}

type EvalResponse struct {
	OK    bool       `json:"ok"`
	Value string     `json:"value,omitempty"`
	Kind  string     `json:"kind,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request. The positional fields are set only
// for checked arithmetic failures.
type ErrorBody struct {
	Message  string `json:"message"`
	Expr     string `json:"expr,omitempty"`
	OpIx     *int   `json:"op_ix,omitempty"`
	OpLen    *int   `json:"op_len,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Operator string `json:"operator,omitempty"`
	Suffix   string `json:"suffix,omitempty"`
}

func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Message: err.Error()}
	var ce *checked.Error
	if errors.As(err, &ce) {
		body.Expr = ce.Expr
		body.OpIx, body.OpLen = &ce.OpIx, &ce.OpLen
		body.Prefix, body.Operator, body.Suffix = ce.Split()
	}
	return body
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, EvalResponse{Error: errorBody(err)})
		return
	}

	vars, err := calc.ParseVars(req.Vars)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, EvalResponse{Error: errorBody(err)})
		return
	}

	v, err := s.engine.Eval(r.Context(), req.Expr, vars)
	resp := NewEvalResponse(v, err)
	switch metrics.RecordEvaluation(err) {
	case metrics.ResultFailure:
		slog.Debug("checked failure", "expr", req.Expr, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case metrics.ResultError:
		writeJSON(w, http.StatusBadRequest, resp)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewEvalResponse builds the response body for an evaluation outcome.
func NewEvalResponse(v any, err error) EvalResponse {
	if err != nil {
		return EvalResponse{Error: errorBody(err)}
	}
	return EvalResponse{OK: true, Value: calc.Format(v), Kind: calc.KindOf(v)}
}

type RewriteRequest struct {
	Expr string `json:"expr"`
	// Qualifier overrides the configured package qualifier when set.
	Qualifier *string `json:"qualifier,omitempty"`
	KeepXor   bool    `json:"keep_xor"`
}

type RewriteResponse struct {
	Canonical string         `json:"canonical"`
	Rewritten string         `json:"rewritten"`
	Sites     []rewrite.Site `json:"sites"`
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req RewriteRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, EvalResponse{Error: errorBody(err)})
		return
	}

	cfg := s.cfg.Calc().Rewrite
	cfg.KeepXor = cfg.KeepXor || req.KeepXor
	if req.Qualifier != nil {
		cfg.Qualifier = *req.Qualifier
	}

	res, err := rewrite.ParseAndRewrite(req.Expr, cfg)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, EvalResponse{Error: errorBody(err)})
		return
	}
	writeJSON(w, http.StatusOK, NewRewriteResponse(res))
}

func NewRewriteResponse(res *rewrite.Result) RewriteResponse {
	sites := res.Sites
	if sites == nil {
		sites = []rewrite.Site{}
	}
	return RewriteResponse{Canonical: res.Source, Rewritten: res.Code(), Sites: sites}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("❌ encode response", "error", err)
	}
}
