// Package agent drives one chat turn: it hands the user's message to the
// reasoning engine, runs the skills the engine asks for and feeds their
// results back until the engine answers in text.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todochat/internal/ai"
	"todochat/internal/apperr"
	"todochat/internal/credential"
	"todochat/internal/skills"
)

const (
	DefaultMaxRounds       = 5
	DefaultTimeout         = 30 * time.Second
	DefaultToolConcurrency = 4
)

type Options struct {
	SystemPrompt string
	// Fallback is returned when the engine finishes without any text.
	Fallback string
	// MaxRounds bounds how many tool batches one turn may execute.
	MaxRounds int
	// Timeout applies to each engine call separately.
	Timeout         time.Duration
	ToolConcurrency int
}

type Output struct {
	Response  string
	ToolsUsed []string
}

// Runtime holds no per-request state and is safe for concurrent use.
type Runtime struct {
	engine ai.Engine
	skills *skills.Set
	tools  []ai.ToolDefinition
	opts   Options
	logger *zap.Logger
}

func New(engine ai.Engine, set *skills.Set, opts Options, logger *zap.Logger) *Runtime {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = ai.DefaultSystemPrompt
	}
	if opts.Fallback == "" {
		opts.Fallback = ai.DefaultFallback
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ToolConcurrency <= 0 {
		opts.ToolConcurrency = DefaultToolConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog := skills.Catalog()
	tools := make([]ai.ToolDefinition, 0, len(catalog))
	for _, d := range catalog {
		tools = append(tools, ai.ToolDefinition{
			Name:        string(d.Name),
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}

	return &Runtime{
		engine: engine,
		skills: set,
		tools:  tools,
		opts:   opts,
		logger: logger.Named("agent"),
	}
}

// Run executes one turn. The exchange starts from message alone; nothing is
// carried over between calls.
func (r *Runtime) Run(ctx context.Context, message string, cred credential.Credential) (*Output, error) {
	msgs := []ai.Message{{Role: ai.RoleUser, Content: message}}
	var used toolsUsed

	for round := 0; ; round++ {
		resp, err := r.complete(ctx, msgs)
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			text := strings.TrimSpace(resp.Content)
			if text == "" {
				text = r.opts.Fallback
			}
			r.logger.Debug("turn finished", zap.Int("rounds", round), zap.Strings("tools", used.names))
			return &Output{Response: text, ToolsUsed: used.list()}, nil
		}

		if round >= r.opts.MaxRounds {
			r.logger.Warn("tool round limit reached", zap.Int("max_rounds", r.opts.MaxRounds))
			return nil, apperr.New(apperr.KindReasoningEngine,
				"The assistant could not finish this request. Please try rephrasing it.")
		}

		msgs = append(msgs, ai.Message{Role: ai.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		results := r.runTools(ctx, resp.ToolCalls, cred)
		for i, tc := range resp.ToolCalls {
			if _, err := r.skills.Lookup(tc.Name); err == nil {
				used.add(tc.Name)
			}
			msgs = append(msgs, ai.Message{Role: ai.RoleTool, ToolCallID: tc.ID, Name: tc.Name, Content: results[i]})
		}
	}
}

func (r *Runtime) complete(ctx context.Context, msgs []ai.Message) (*ai.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	resp, err := r.engine.Complete(callCtx, ai.Request{
		System:   r.opts.SystemPrompt,
		Messages: msgs,
		Tools:    r.tools,
	})
	if err == nil {
		return resp, nil
	}

	if ctx.Err() != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "The request was cancelled.", ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("engine call timed out", zap.Duration("timeout", r.opts.Timeout))
		return nil, &apperr.Error{
			Kind:      apperr.KindReasoningEngine,
			Message:   "The assistant took too long to respond. Please try again.",
			Status:    http.StatusServiceUnavailable,
			Retryable: true,
			Err:       err,
		}
	}

	var aiErr *ai.Error
	if errors.As(err, &aiErr) && aiErr.RateLimited() {
		r.logger.Warn("engine rate limited", zap.String("provider", aiErr.Provider))
		return nil, &apperr.Error{
			Kind:      apperr.KindReasoningEngine,
			Message:   "The assistant is receiving too many requests right now. Please try again shortly.",
			Status:    http.StatusTooManyRequests,
			Retryable: true,
			Err:       err,
		}
	}

	r.logger.Error("engine call failed", zap.Error(err))
	return nil, apperr.Wrap(apperr.KindReasoningEngine,
		"The assistant is temporarily unavailable. Please try again later.", err)
}

// runTools executes one batch concurrently and returns the tool result
// payloads in the order the calls were requested.
func (r *Runtime) runTools(ctx context.Context, calls []ai.ToolCall, cred credential.Credential) []string {
	results := make([]string, len(calls))

	var g errgroup.Group
	g.SetLimit(r.opts.ToolConcurrency)
	for i, tc := range calls {
		g.Go(func() error {
			results[i] = r.runTool(ctx, tc, cred)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runtime) runTool(ctx context.Context, tc ai.ToolCall, cred credential.Credential) string {
	params, err := decodeArguments(tc.Arguments)
	if err != nil {
		r.logger.Info("tool arguments rejected", zap.String("tool", tc.Name), zap.Error(err))
		return skills.Payload(nil, apperr.Wrap(apperr.KindCallerInput,
			fmt.Sprintf("The arguments for %s were not a valid JSON object.", tc.Name), err))
	}
	res, err := r.skills.Invoke(ctx, tc.Name, params, cred)
	return skills.Payload(res, err)
}

func decodeArguments(raw json.RawMessage) (skills.Params, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return skills.Params{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var p skills.Params
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p == nil {
		p = skills.Params{}
	}
	return p, nil
}

type toolsUsed struct {
	names []string
}

func (u *toolsUsed) add(name string) {
	for _, n := range u.names {
		if n == name {
			return
		}
	}
	u.names = append(u.names, name)
}

func (u *toolsUsed) list() []string {
	return append([]string(nil), u.names...)
}
