package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v5"

	"github.com/dthelegend/diss/internal/backend"
	"github.com/dthelegend/diss/internal/backend/sim"
	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/metrics"
	"github.com/dthelegend/diss/internal/solver"
	"github.com/dthelegend/diss/pkg/qubo"
)

const twoVarProblem = `{"size": 2, "terms": [[0, 0, -1], [0, 1, 3], [1, 1, 2]]}`

func newTestEcho(t *testing.T, rt *sim.Runtime) (*echo.Echo, *SolveStore) {
	t.Helper()
	store := NewSolveStore()
	server := NewServer(Config{
		Runtime:  rt,
		Backend:  backend.Sim,
		Solver:   solver.NameExhaustive,
		Defaults: solver.Options{Iterations: 50, Seed: 7},
		Metrics:  metrics.New(),
	}, store)
	e := echo.New()
	server.Register(e)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

type errorEnvelope struct {
	ID    string    `json:"id"`
	Error ErrorBody `json:"error"`
}

func TestBackends(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, sim.New(sim.Options{MemoryValues: 1024}))
	rec := doJSON(t, e, http.MethodGet, "/v1/backends", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[BackendsResponse](t, rec)
	if len(resp.Data) != 2 || resp.Data[0].Name != backend.Sim || !resp.Data[0].Available || !resp.Data[0].Active {
		t.Fatalf("unexpected backends: %+v", resp.Data)
	}
	if resp.Device == nil || resp.Device.MemoryBytes != 4096 {
		t.Fatalf("unexpected device: %+v", resp.Device)
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	rt := sim.New(sim.Options{})
	e, _ := newTestEcho(t, rt)
	body := `{"problem": ` + twoVarProblem + `, "solutions": ["00", "10", "01", "11"]}`
	rec := doJSON(t, e, http.MethodPost, "/v1/evaluate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[EvaluateResponse](t, rec)
	if diff := cmp.Diff([]qubo.Value{0, -1, 2, 4}, resp.Energies); diff != "" {
		t.Fatalf("energies mismatch (-want +got):\n%s", diff)
	}
	if n, _ := rt.Live(); n != 0 {
		t.Fatalf("evaluation leaked %d allocations", n)
	}
}

func TestEvaluateValidation(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, sim.New(sim.Options{}))
	tests := []struct {
		name  string
		body  string
		param string
	}{
		{"missing problem", `{"solutions": ["0"]}`, "problem"},
		{"no solutions", `{"problem": ` + twoVarProblem + `}`, "solutions"},
		{"wrong length", `{"problem": ` + twoVarProblem + `, "solutions": ["10", "101"]}`, "solutions[1]"},
		{"not binary", `{"problem": ` + twoVarProblem + `, "solutions": ["12"]}`, "solutions[0]"},
		{"bad term", `{"problem": {"size": 2, "terms": [[0, 0, 1], [0, 2, 1]]}, "solutions": ["1"]}`, "problem.terms[1]"},
		{"unknown field", `{"problem": ` + twoVarProblem + `, "solutions": ["10"], "x": 1}`, ""},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/evaluate", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d body=%s", tc.name, rec.Code, rec.Body.String())
			continue
		}
		env := decode[errorEnvelope](t, rec)
		if env.Error.Type != "invalid_request_error" || env.Error.Param != tc.param {
			t.Errorf("%s: got type %q param %q, want param %q", tc.name, env.Error.Type, env.Error.Param, tc.param)
		}
	}
}

func TestSolveAndGet(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t, sim.New(sim.Options{}))
	rec := doJSON(t, e, http.MethodPost, "/v1/solve", `{"problem": `+twoVarProblem+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[SolveResponse](t, rec)
	if !strings.HasPrefix(created.ID, "solve_") || created.Status != "completed" {
		t.Fatalf("unexpected solve: %+v", created)
	}
	if created.Solution != "10" || created.Energy != -1 || created.Evaluated != 4 || created.Solver != solver.NameExhaustive {
		t.Fatalf("unexpected result: %+v", created)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d solves", store.Len())
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/solves/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}
	if diff := cmp.Diff(created, decode[SolveResponse](t, getRec)); diff != "" {
		t.Fatalf("stored solve mismatch (-want +got):\n%s", diff)
	}

	metricsRec := doJSON(t, e, http.MethodGet, "/metrics", "")
	if !strings.Contains(metricsRec.Body.String(), `qubo_solves_total{outcome="ok",solver="exhaustive"} 1`) {
		t.Fatalf("metrics missing solve counter:\n%s", metricsRec.Body.String())
	}
}

func TestSolveCNF(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, sim.New(sim.Options{}))
	body := `{"cnf": "p cnf 2 2\n1 2 0\n-1 0\n"}`
	rec := doJSON(t, e, http.MethodPost, "/v1/solve", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[SolveResponse](t, rec)
	if resp.Size != 6 || resp.Energy != -2 || resp.Solution != "011000" {
		t.Fatalf("unexpected result: %+v", resp)
	}
	want := &SATResult{Status: "SATISFIABLE", Assignment: []int{-1, 2}}
	if diff := cmp.Diff(want, resp.SAT); diff != "" {
		t.Fatalf("sat verdict mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveCNFReductions(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, sim.New(sim.Options{}))
	tests := []struct {
		reduction string
		size      int
		energy    qubo.Value
		solution  string
	}{
		{"nusslein23", 6, -2, "011000"},
		{"choi", 3, -2, "011"},
		{"Chancellor", 2, -4, "01"},
	}
	for _, tc := range tests {
		body := `{"cnf": "p cnf 2 2\n1 2 0\n-1 0\n", "reduction": "` + tc.reduction + `"}`
		rec := doJSON(t, e, http.MethodPost, "/v1/solve", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body=%s", tc.reduction, rec.Code, rec.Body.String())
		}
		resp := decode[SolveResponse](t, rec)
		if resp.Reduction != strings.ToLower(tc.reduction) || resp.Size != tc.size || resp.Energy != tc.energy || resp.Solution != tc.solution {
			t.Fatalf("%s: unexpected result %+v", tc.reduction, resp)
		}
		want := &SATResult{Status: "SATISFIABLE", Assignment: []int{-1, 2}}
		if diff := cmp.Diff(want, resp.SAT); diff != "" {
			t.Fatalf("%s: sat verdict mismatch (-want +got):\n%s", tc.reduction, diff)
		}
	}
}

func TestSolveTrivialCNF(t *testing.T) {
	t.Parallel()

	rt := sim.New(sim.Options{})
	e, _ := newTestEcho(t, rt)
	tests := []struct {
		cnf  string
		want *SATResult
	}{
		{`p cnf 0 0\n`, &SATResult{Status: "SATISFIABLE"}},
		{`p cnf 2 0\n`, &SATResult{Status: "SATISFIABLE", Assignment: []int{-1, -2}}},
		{`p cnf 1 2\n1 0\n0\n`, &SATResult{Status: "UNSATISFIABLE"}},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/solve", `{"cnf": "`+tc.cnf+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: status %d body=%s", tc.cnf, rec.Code, rec.Body.String())
		}
		resp := decode[SolveResponse](t, rec)
		if resp.Size != 0 || resp.Evaluated != 0 {
			t.Fatalf("%q: solver ran: %+v", tc.cnf, resp)
		}
		if diff := cmp.Diff(tc.want, resp.SAT); diff != "" {
			t.Fatalf("%q: sat verdict mismatch (-want +got):\n%s", tc.cnf, diff)
		}
	}
	if n := rt.Calls(sim.OpLaunch); n != 0 {
		t.Fatalf("trivial formulas launched %d kernels", n)
	}
}

func TestSolveDeviceFailure(t *testing.T) {
	t.Parallel()

	rt := sim.New(sim.Options{})
	rt.FailOn(sim.OpLaunch, 1, device.ErrLaunchFailure)
	e, _ := newTestEcho(t, rt)

	rec := doJSON(t, e, http.MethodPost, "/v1/solve", `{"problem": `+twoVarProblem+`}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	env := decode[errorEnvelope](t, rec)
	if env.Error.Status == nil || *env.Error.Status != 719 || env.Error.Type != "device_error" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
	if n, _ := rt.Live(); n != 0 {
		t.Fatalf("failed solve leaked %d allocations", n)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/solves/"+env.ID, "")
	stored := decode[SolveResponse](t, getRec)
	if stored.Status != "failed" || stored.Error == nil || *stored.Error.Status != 719 {
		t.Fatalf("stored failure: %+v", stored)
	}

	metricsRec := doJSON(t, e, http.MethodGet, "/metrics", "")
	if !strings.Contains(metricsRec.Body.String(), `qubo_device_failures_total{status="719"} 1`) {
		t.Fatalf("metrics missing device failure:\n%s", metricsRec.Body.String())
	}
}

func TestSolveValidation(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t, sim.New(sim.Options{}))
	tests := []struct {
		name  string
		body  string
		param string
	}{
		{"neither", `{}`, ""},
		{"both", `{"problem": ` + twoVarProblem + `, "cnf": "p cnf 1 1\n1 0\n"}`, ""},
		{"unknown solver", `{"problem": ` + twoVarProblem + `, "solver": "quantum"}`, "solver"},
		{"bad cnf", `{"cnf": "p cnf x 1\n1 0\n"}`, "cnf"},
		{"bad term", `{"problem": {"size": 1, "terms": [[0, 1, 1]]}}`, "problem.terms[0]"},
		{"unknown reduction", `{"cnf": "p cnf 1 1\n1 0\n", "reduction": "karp"}`, "reduction"},
		{"reduction without cnf", `{"problem": ` + twoVarProblem + `, "reduction": "choi"}`, "reduction"},
		{"malformed", `{"problem":`, ""},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/solve", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d body=%s", tc.name, rec.Code, rec.Body.String())
			continue
		}
		if got := decode[errorEnvelope](t, rec).Error.Param; got != tc.param {
			t.Errorf("%s: param %q want %q", tc.name, got, tc.param)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("rejected requests were stored: %d", store.Len())
	}
}

func TestGetUnknownSolve(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, sim.New(sim.Options{}))
	rec := doJSON(t, e, http.MethodGet, "/v1/solves/solve_missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}
