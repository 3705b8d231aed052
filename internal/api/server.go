// Package api serves QUBO evaluation and solving over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/dthelegend/diss/internal/backend"
	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/kernels"
	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/metrics"
	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/internal/solver"
	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

// Config wires the server to one device runtime. Defaults supply solver
// settings a request leaves unset; its Runtime and Metrics are ignored.
// Reduction names the default k-SAT reduction for CNF requests.
type Config struct {
	Runtime   device.Runtime
	Backend   string
	Solver    string
	Reduction string
	Defaults  solver.Options
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

type Server struct {
	cfg   Config
	store *SolveStore
	log   logger.Logger
	clock func() time.Time
}

func NewServer(cfg Config, store *SolveStore) *Server {
	if store == nil {
		store = NewSolveStore()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		cfg:   cfg,
		store: store,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/backends", s.handleBackends)
	e.POST("/v1/evaluate", s.handleEvaluate)
	e.POST("/v1/solve", s.handleSolve)
	e.GET("/v1/solves/:id", s.handleGetSolve)
	if s.cfg.Metrics != nil {
		e.GET("/metrics", s.handleMetrics)
	}
}

func (s *Server) requestContext(c *echo.Context) context.Context {
	return logger.WithContext(c.Request().Context(), s.log)
}

func (s *Server) handleBackends(c *echo.Context) error {
	resp := BackendsResponse{Object: "list"}
	for _, name := range []string{backend.Sim, backend.CUDA} {
		resp.Data = append(resp.Data, BackendInfo{
			Name:      name,
			Available: backend.Has(name),
			Active:    name == s.cfg.Backend,
		})
	}
	var props device.Properties
	if err := device.Check(s.cfg.Runtime.Properties(&props)); err != nil {
		status, body := classify(err)
		return writeError(c, status, body)
	}
	resp.Device = &DeviceInfo{
		Name:        props.Name,
		Ordinal:     props.Ordinal,
		MemoryBytes: props.MemoryBytes,
		ComputeCap:  props.ComputeCap,
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEvaluate(c *echo.Context) error {
	req, err := decodeJSON[EvaluateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err)
	}
	if req.Problem == nil {
		return writeBadRequest(c, fieldErrorf("problem", "is required"))
	}
	if len(req.Solutions) == 0 {
		return writeBadRequest(c, fieldErrorf("solutions", "at least one solution is required"))
	}
	p, err := req.Problem.Problem()
	if err != nil {
		return writeBadRequest(c, problemError(err))
	}
	batch := make([]qubo.Solution, len(req.Solutions))
	for i, text := range req.Solutions {
		field := fmt.Sprintf("solutions[%d]", i)
		x, err := qubo.ParseSolution(text)
		if err != nil {
			return writeBadRequest(c, fieldError(field, err))
		}
		if len(x) != p.Size() {
			return writeBadRequest(c, fieldErrorf(field, "%d bits for %d variables", len(x), p.Size()))
		}
		batch[i] = x
	}

	energies, err := kernels.Energies(s.cfg.Runtime, p, batch)
	if err != nil {
		s.log.Error("evaluation failed", "error", err)
		status, body := classify(err)
		return writeError(c, status, body)
	}
	return c.JSON(http.StatusOK, EvaluateResponse{Object: "evaluation", Energies: energies})
}

func (s *Server) options(req SolveRequest) solver.Options {
	opts := s.cfg.Defaults
	opts.Runtime = s.cfg.Runtime
	opts.Metrics = s.cfg.Metrics
	opts.Recorder = nil
	if req.Iterations > 0 {
		opts.Iterations = req.Iterations
	}
	if req.Restarts > 0 {
		opts.Restarts = req.Restarts
	}
	if req.BatchSize > 0 {
		opts.BatchSize = req.BatchSize
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	return opts
}

func (s *Server) handleSolve(c *echo.Context) error {
	req, err := decodeJSON[SolveRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err)
	}
	hasCNF := strings.TrimSpace(req.CNF) != ""
	if (req.Problem == nil) == !hasCNF {
		return writeBadRequest(c, fieldErrorf("", "exactly one of problem or cnf is required"))
	}
	var red reduce.Reduction
	switch {
	case hasCNF:
		name := req.Reduction
		if name == "" {
			name = s.cfg.Reduction
		}
		if red, err = reduce.New(name); err != nil {
			return writeBadRequest(c, fieldError("reduction", err))
		}
	case req.Reduction != "":
		return writeBadRequest(c, fieldErrorf("reduction", "applies only to cnf requests"))
	}
	name := req.Solver
	if name == "" {
		name = s.cfg.Solver
	}
	slv, err := solver.New(name, s.options(req))
	if err != nil {
		return writeBadRequest(c, fieldError("solver", err))
	}

	resp := SolveResponse{
		ID:        newSolveID(),
		Object:    "solve",
		CreatedAt: s.clock().Unix(),
		Status:    "completed",
		Solver:    slv.Name(),
		Backend:   s.cfg.Runtime.Name(),
	}
	ctx := s.requestContext(c)

	var res solver.Result
	if hasCNF {
		resp.Reduction = red.Name()
		res, err = s.solveCNF(ctx, slv, red, req.CNF, &resp)
	} else {
		res, err = s.solveQUBO(ctx, slv, req, &resp)
	}
	if err != nil {
		status, body := classify(err)
		if status == http.StatusBadRequest {
			return writeError(c, status, body)
		}
		resp.Status = "failed"
		resp.Error = &body
		s.store.Save(resp)
		s.log.Error("solve failed", "id", resp.ID, "error", err)
		return c.JSON(status, map[string]any{
			"id":    resp.ID,
			"error": body,
		})
	}

	resp.Solution = res.Solution.String()
	resp.Energy = res.Energy
	resp.Evaluated = res.Evaluated
	resp.ElapsedMS = float64(res.Elapsed) / float64(time.Millisecond)
	s.store.Save(resp)
	s.log.Info("solve completed", "id", resp.ID, "solver", resp.Solver, "size", resp.Size, "energy", resp.Energy)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) solveQUBO(ctx context.Context, slv solver.Solver, req SolveRequest, resp *SolveResponse) (solver.Result, error) {
	p, err := req.Problem.Problem()
	if err != nil {
		return solver.Result{}, problemError(err)
	}
	resp.Size = p.Size()
	return slv.Solve(ctx, p)
}

func (s *Server) solveCNF(ctx context.Context, slv solver.Solver, red reduce.Reduction, cnf string, resp *SolveResponse) (solver.Result, error) {
	p, err := sat.Parse(strings.NewReader(cnf))
	if err != nil {
		return solver.Result{}, fieldError("cnf", err)
	}
	var (
		q     *qubo.Problem
		model reduce.Model
	)
	if _, trivial := reduce.Trivial(p); !trivial {
		if q, model, err = red.Reduce(p); err != nil {
			return solver.Result{}, fieldError("cnf", err)
		}
		resp.Size = q.Size()
	}
	verdict, res, err := reduce.SolveReduced(ctx, slv, p, q, model)
	if err != nil {
		return res, err
	}
	resp.SAT = &SATResult{Status: verdict.Status.String()}
	if verdict.Status == sat.Satisfiable {
		resp.SAT.Assignment = dimacsAssignment(verdict.Assignment)
	}
	return res, nil
}

func (s *Server) handleGetSolve(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeBadRequest(c, fieldErrorf("id", "missing solve id"))
	}
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "solve not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetrics(c *echo.Context) error {
	s.cfg.Metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
