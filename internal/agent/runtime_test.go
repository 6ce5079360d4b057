package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"todochat/internal/ai"
	"todochat/internal/apperr"
	"todochat/internal/backend"
	"todochat/internal/credential"
	"todochat/internal/skills"
)

func TestMain(m *testing.M) {
	// The genai dependency starts an opencensus stats worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type step func(req ai.Request) (*ai.Response, error)

// scriptedEngine answers each Complete call with the next step and records
// the requests it saw.
type scriptedEngine struct {
	mu       sync.Mutex
	steps    []step
	requests []ai.Request
}

func (e *scriptedEngine) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	e.mu.Lock()
	cp := req
	cp.Messages = append([]ai.Message(nil), req.Messages...)
	e.requests = append(e.requests, cp)
	n := len(e.requests)
	e.mu.Unlock()

	if n > len(e.steps) {
		return nil, &ai.Error{Provider: "script", Message: "no more steps"}
	}
	return e.steps[n-1](req)
}

func (e *scriptedEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

func text(s string) step {
	return func(ai.Request) (*ai.Response, error) { return &ai.Response{Content: s}, nil }
}

func callTools(calls ...ai.ToolCall) step {
	return func(ai.Request) (*ai.Response, error) { return &ai.Response{ToolCalls: calls}, nil }
}

func call(id, name, args string) ai.ToolCall {
	return ai.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

type stubGateway struct {
	mu       sync.Mutex
	created  []backend.CreateTaskInput
	deleteFn func(id int64) error
	listWait time.Duration
}

func (g *stubGateway) CreateTask(_ context.Context, _ credential.Credential, in backend.CreateTaskInput) (*backend.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, in)
	return &backend.Task{ID: int64(4 + len(g.created)), Title: in.Title, Description: in.Description}, nil
}

func (g *stubGateway) ListTasks(context.Context, credential.Credential) ([]backend.Task, error) {
	time.Sleep(g.listWait)
	return []backend.Task{{ID: 1, Title: "Walk the dog"}}, nil
}

func (g *stubGateway) UpdateTask(_ context.Context, _ credential.Credential, id int64, in backend.UpdateTaskInput) (*backend.Task, error) {
	return &backend.Task{ID: id}, nil
}

func (g *stubGateway) CompleteTask(_ context.Context, _ credential.Credential, id int64) (*backend.Task, error) {
	return &backend.Task{ID: id, IsCompleted: true}, nil
}

func (g *stubGateway) DeleteTask(_ context.Context, _ credential.Credential, id int64) error {
	if g.deleteFn != nil {
		return g.deleteFn(id)
	}
	return nil
}

func newRuntime(t *testing.T, eng ai.Engine, gw skills.Gateway, opts Options) *Runtime {
	t.Helper()
	return New(eng, skills.NewSet(gw, zap.NewNop()), opts, zap.NewNop())
}

func token(t *testing.T) credential.Credential {
	t.Helper()
	c, err := credential.FromString("tok")
	require.NoError(t, err)
	return c
}

func lastToolResult(t *testing.T, req ai.Request) map[string]any {
	t.Helper()
	last := req.Messages[len(req.Messages)-1]
	require.Equal(t, ai.RoleTool, last.Role)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Content), &out))
	return out
}

func TestAddTaskScenario(t *testing.T) {
	gw := &stubGateway{}
	eng := &scriptedEngine{steps: []step{
		callTools(call("c1", "add_task", `{"title":"Buy groceries"}`)),
		text("I've added \"Buy groceries\" as task 5."),
	}}
	rt := newRuntime(t, eng, gw, Options{})

	out, err := rt.Run(context.Background(), "Add a task to buy groceries", token(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"add_task"}, out.ToolsUsed)
	assert.Contains(t, out.Response, "5")

	require.Len(t, gw.created, 1)
	assert.Equal(t, "Buy groceries", gw.created[0].Title)

	require.Equal(t, 2, eng.calls())
	second := eng.requests[1]
	want := []ai.Message{
		{Role: ai.RoleUser, Content: "Add a task to buy groceries"},
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{call("c1", "add_task", `{"title":"Buy groceries"}`)}},
		{Role: ai.RoleTool, ToolCallID: "c1", Name: "add_task"},
	}
	if diff := cmp.Diff(want, second.Messages, cmpopts.IgnoreFields(ai.Message{}, "Content")); diff != "" {
		t.Fatalf("message history mismatch (-want +got):\n%s", diff)
	}

	result := lastToolResult(t, second)
	assert.Equal(t, true, result["success"])
	assert.EqualValues(t, 5, result["task"].(map[string]any)["id"])

	assert.Equal(t, ai.DefaultSystemPrompt, second.System)
	assert.Len(t, second.Tools, 5)
}

func TestDeleteMissingTaskScenario(t *testing.T) {
	gw := &stubGateway{deleteFn: func(int64) error {
		return &backend.Error{Status: http.StatusNotFound, Message: "Todo with id 999 not found"}
	}}
	eng := &scriptedEngine{steps: []step{
		callTools(call("c1", "delete_task", `{"task_id":999}`)),
		func(req ai.Request) (*ai.Response, error) {
			res := lastToolResult(t, req)
			errBody := res["error"].(map[string]any)
			assert.Equal(t, "NotFoundError", errBody["type"])
			return &ai.Response{Content: "Task 999 was not found. " + errBody["message"].(string)}, nil
		},
	}}
	rt := newRuntime(t, eng, gw, Options{})

	out, err := rt.Run(context.Background(), "Delete task 999", token(t))
	require.NoError(t, err)
	assert.Contains(t, out.Response, "999")
	assert.Contains(t, out.Response, "not found")
	assert.Equal(t, []string{"delete_task"}, out.ToolsUsed)
}

func TestToolFailuresBecomeResults(t *testing.T) {
	eng := &scriptedEngine{steps: []step{
		callTools(
			call("bad", "add_task", `{"title":`),
			call("unknown", "rename_everything", `{}`),
			call("invalid", "update_task", `{"task_id":3}`),
		),
		func(req ai.Request) (*ai.Response, error) {
			msgs := req.Messages[len(req.Messages)-3:]
			kinds := make([]string, 0, 3)
			for _, m := range msgs {
				var body struct {
					Error struct {
						Type string `json:"type"`
					} `json:"error"`
				}
				assert.NoError(t, json.Unmarshal([]byte(m.Content), &body))
				kinds = append(kinds, body.Error.Type)
			}
			assert.Equal(t, []string{"CallerInputError", "UnknownSkillError", "CallerInputError"}, kinds)
			return &ai.Response{Content: "Something was off with that request."}, nil
		},
	}}
	rt := newRuntime(t, eng, &stubGateway{}, Options{})

	out, err := rt.Run(context.Background(), "do things", token(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"add_task", "update_task"}, out.ToolsUsed)
}

func TestToolResultsKeepRequestOrder(t *testing.T) {
	gw := &stubGateway{listWait: 30 * time.Millisecond}
	eng := &scriptedEngine{steps: []step{
		callTools(
			call("a", "list_tasks", `{}`),
			call("b", "add_task", `{"title":"one"}`),
			call("c", "add_task", `{"title":"two"}`),
			call("d", "complete_task", `{"task_id":1}`),
		),
		text("done"),
	}}
	rt := newRuntime(t, eng, gw, Options{ToolConcurrency: 4})

	out, err := rt.Run(context.Background(), "batch", token(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"list_tasks", "add_task", "complete_task"}, out.ToolsUsed)

	msgs := eng.requests[1].Messages
	var ids []string
	for _, m := range msgs {
		if m.Role == ai.RoleTool {
			ids = append(ids, m.ToolCallID)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestRoundLimit(t *testing.T) {
	loop := callTools(call("x", "list_tasks", `{}`))
	eng := &scriptedEngine{steps: []step{loop, loop, loop, loop}}
	rt := newRuntime(t, eng, &stubGateway{}, Options{MaxRounds: 2})

	_, err := rt.Run(context.Background(), "loop forever", token(t))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindReasoningEngine, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode())
	assert.Equal(t, 3, eng.calls())
}

func TestRateLimited(t *testing.T) {
	eng := &scriptedEngine{steps: []step{func(ai.Request) (*ai.Response, error) {
		return nil, &ai.Error{Provider: "openai", Status: http.StatusTooManyRequests, Message: "slow down"}
	}}}
	rt := newRuntime(t, eng, &stubGateway{}, Options{})

	_, err := rt.Run(context.Background(), "hi", token(t))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, e.StatusCode())
	assert.True(t, e.Retryable)
	assert.NotContains(t, e.Message, "slow down")
}

func TestEngineTimeout(t *testing.T) {
	blocking := engineFunc(func(ctx context.Context, _ ai.Request) (*ai.Response, error) {
		<-ctx.Done()
		return nil, &ai.Error{Provider: "openai", Message: "request failed", Err: ctx.Err()}
	})
	rt := newRuntime(t, blocking, &stubGateway{}, Options{Timeout: 20 * time.Millisecond})

	_, err := rt.Run(context.Background(), "hi", token(t))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindReasoningEngine, e.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, e.StatusCode())
	assert.True(t, e.Retryable)
}

func TestEngineFailureIsGeneric(t *testing.T) {
	eng := &scriptedEngine{steps: []step{func(ai.Request) (*ai.Response, error) {
		return nil, &ai.Error{Provider: "openai", Status: http.StatusBadGateway, Message: "upstream exploded"}
	}}}
	rt := newRuntime(t, eng, &stubGateway{}, Options{})

	_, err := rt.Run(context.Background(), "hi", token(t))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode())
	assert.False(t, e.Retryable)
}

func TestEmptyAnswerUsesFallback(t *testing.T) {
	eng := &scriptedEngine{steps: []step{text("  ")}}
	rt := newRuntime(t, eng, &stubGateway{}, Options{Fallback: "All set."})

	out, err := rt.Run(context.Background(), "thanks", token(t))
	require.NoError(t, err)
	assert.Equal(t, "All set.", out.Response)
	assert.Empty(t, out.ToolsUsed)
}

func TestTurnsDoNotShareHistory(t *testing.T) {
	eng := &scriptedEngine{steps: []step{
		callTools(call("c1", "list_tasks", `{}`)),
		text("You have one task."),
		text("Hello!"),
	}}
	rt := newRuntime(t, eng, &stubGateway{}, Options{})

	_, err := rt.Run(context.Background(), "what's on my list?", token(t))
	require.NoError(t, err)
	_, err = rt.Run(context.Background(), "hi", token(t))
	require.NoError(t, err)

	third := eng.requests[2]
	assert.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, third.Messages)
}

func TestDecodeArguments(t *testing.T) {
	p, err := decodeArguments(json.RawMessage(`{"task_id": 12}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12"), p["task_id"])

	p, err = decodeArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = decodeArguments(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = decodeArguments(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

type engineFunc func(ctx context.Context, req ai.Request) (*ai.Response, error)

func (f engineFunc) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	return f(ctx, req)
}
