package api

import (
	"github.com/dthelegend/diss/internal/problemio"
	"github.com/dthelegend/diss/pkg/qubo"
)

type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
	// Status is the raw device code of a device failure.
	Status *int32 `json:"status,omitempty"`
}

type BackendInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Active    bool   `json:"active"`
}

type DeviceInfo struct {
	Name        string `json:"name"`
	Ordinal     int    `json:"ordinal"`
	MemoryBytes int64  `json:"memory_bytes"`
	ComputeCap  string `json:"compute_capability"`
}

type BackendsResponse struct {
	Object string        `json:"object"`
	Data   []BackendInfo `json:"data"`
	Device *DeviceInfo   `json:"device,omitempty"`
}

type EvaluateRequest struct {
	Problem   *problemio.Document `json:"problem"`
	Solutions []string            `json:"solutions"`
}

type EvaluateResponse struct {
	Object   string       `json:"object"`
	Energies []qubo.Value `json:"energies"`
}

// SolveRequest carries either a QUBO document or a DIMACS CNF formula.
// Zero-valued tuning fields fall back to the server defaults. Reduction
// picks the k-SAT reduction and is only valid with CNF.
type SolveRequest struct {
	Problem    *problemio.Document `json:"problem,omitempty"`
	CNF        string              `json:"cnf,omitempty"`
	Solver     string              `json:"solver,omitempty"`
	Reduction  string              `json:"reduction,omitempty"`
	Iterations int                 `json:"iterations,omitempty"`
	Restarts   int                 `json:"restarts,omitempty"`
	BatchSize  int                 `json:"batch_size,omitempty"`
	Seed       *uint64             `json:"seed,omitempty"`
}

type SATResult struct {
	Status string `json:"status"`
	// Assignment lists one DIMACS literal per variable.
	Assignment []int `json:"assignment,omitempty"`
}

type SolveResponse struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"`
	CreatedAt int64      `json:"created_at"`
	Status    string     `json:"status"`
	Solver    string     `json:"solver"`
	Reduction string     `json:"reduction,omitempty"`
	Backend   string     `json:"backend"`
	Size      int        `json:"size"`
	Solution  string     `json:"solution,omitempty"`
	Energy    qubo.Value `json:"energy"`
	Evaluated int64      `json:"evaluated"`
	ElapsedMS float64    `json:"elapsed_ms"`
	SAT       *SATResult `json:"sat,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
}
