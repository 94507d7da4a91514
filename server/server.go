// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	GET  /health     liveness probe
//	POST /v1/solve   run the pipeline for one problem
//
// Every request runs its own pipeline; agents within a run stay sequential.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/stepchain/agent"
	"github.com/hupe1980/stepchain/logging"
)

// Solver is the subset of the stepchain façade the server drives.
type Solver interface {
	Solve(ctx context.Context, problem string) agent.PipelineResult
	Summarize(ctx context.Context, solution string) (string, error)
}

// Options configures a Server.
type Options struct {
	Addr   string
	Logger logging.Logger
	// ShutdownTimeout bounds graceful shutdown once the run context ends.
	ShutdownTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	solver Solver
	router *gin.Engine
	opts   Options
}

// SolveRequest is the body of POST /v1/solve.
type SolveRequest struct {
	Problem   string `json:"problem" binding:"required"`
	Summarize bool   `json:"summarize"`
}

// StageResponse reports one stage of a run.
type StageResponse struct {
	Agent    string `json:"agent"`
	Outcome  string `json:"outcome"`
	Steps    int    `json:"steps"`
	Calls    int    `json:"calls"`
	Solution string `json:"solution"`
	Error    string `json:"error,omitempty"`
}

// SolveResponse is the body returned by POST /v1/solve.
type SolveResponse struct {
	RunID         string          `json:"run_id"`
	Stages        []StageResponse `json:"stages"`
	FinalSolution string          `json:"final_solution"`
	Summary       string          `json:"summary,omitempty"`
	SummaryError  string          `json:"summary_error,omitempty"`
}

// New creates a Server for solver.
func New(solver Solver, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":8080",
		ShutdownTimeout: 30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	s := &Server{solver: solver, opts: opts}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/v1")
	v1.POST("/solve", s.handleSolve)

	s.router = router
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("Starting HTTP server", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleSolve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	res := s.solver.Solve(ctx, req.Problem)

	resp := SolveResponse{
		RunID:         res.RunID,
		Stages:        make([]StageResponse, 0, len(res.Stages)),
		FinalSolution: res.Final,
	}
	for _, st := range res.Stages {
		sr := StageResponse{
			Agent:    st.Agent,
			Outcome:  st.Outcome.String(),
			Steps:    len(st.Steps),
			Calls:    st.Calls,
			Solution: st.Solution,
		}
		if st.Err != nil {
			sr.Error = st.Err.Error()
		}
		resp.Stages = append(resp.Stages, sr)
	}

	if req.Summarize {
		text, err := s.solver.Summarize(ctx, res.Final)
		resp.Summary = text
		if err != nil {
			resp.SummaryError = err.Error()
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}
		s.opts.Logger.Info("HTTP request", args...)
	}
}
