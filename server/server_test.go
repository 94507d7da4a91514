package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stepchain/agent"
	"github.com/hupe1980/stepchain/core"
)

type mockSolver struct {
	mock.Mock
}

func (m *mockSolver) Solve(ctx context.Context, problem string) agent.PipelineResult {
	args := m.Called(ctx, problem)
	return args.Get(0).(agent.PipelineResult)
}

func (m *mockSolver) Summarize(ctx context.Context, solution string) (string, error) {
	args := m.Called(ctx, solution)
	return args.String(0), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func samplePipelineResult() agent.PipelineResult {
	return agent.PipelineResult{
		RunID: "run-1",
		Stages: []agent.Result{
			{Agent: "Agent1", Steps: []core.Step{{Title: "A"}}, Solution: "s1", Outcome: agent.OutcomeFinal, Calls: 1},
			{Agent: "Agent2", Solution: "s2", Outcome: agent.OutcomeFailed, Err: errors.New("gateway: transport failure"), Calls: 1},
		},
		Final: "s2",
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := New(&mockSolver{})

	w := do(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestSolve(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, "What is 2+2?").Return(samplePipelineResult())
	s := New(solver)

	w := do(t, s.Handler(), http.MethodPost, "/v1/solve", `{"problem":"What is 2+2?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "s2", resp.FinalSolution)
	require.Len(t, resp.Stages, 2)
	assert.Equal(t, StageResponse{Agent: "Agent1", Outcome: "final", Steps: 1, Calls: 1, Solution: "s1"}, resp.Stages[0])
	assert.Equal(t, "failed", resp.Stages[1].Outcome)
	assert.Equal(t, "gateway: transport failure", resp.Stages[1].Error)
	assert.Empty(t, resp.Summary)
	solver.AssertExpectations(t)
	solver.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSolve_WithSummary(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, "P").Return(samplePipelineResult())
	solver.On("Summarize", mock.Anything, "s2").Return("Simple.", nil)
	s := New(solver)

	w := do(t, s.Handler(), http.MethodPost, "/v1/solve", `{"problem":"P","summarize":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Simple.", resp.Summary)
	assert.Empty(t, resp.SummaryError)
	solver.AssertExpectations(t)
}

func TestSolve_SummaryError(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, "P").Return(samplePipelineResult())
	solver.On("Summarize", mock.Anything, "s2").Return("Error generating summary: down", errors.New("down"))
	s := New(solver)

	w := do(t, s.Handler(), http.MethodPost, "/v1/solve", `{"problem":"P","summarize":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Error generating summary: down", resp.Summary)
	assert.Equal(t, "down", resp.SummaryError)
}

func TestSolve_BadRequest(t *testing.T) {
	solver := &mockSolver{}
	s := New(solver)

	for _, body := range []string{`{}`, `not json`, `{"problem":""}`} {
		w := do(t, s.Handler(), http.MethodPost, "/v1/solve", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	solver.AssertNotCalled(t, "Solve", mock.Anything, mock.Anything)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := New(&mockSolver{}, func(o *Options) { o.Addr = "127.0.0.1:0" })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.Run(ctx))
}
