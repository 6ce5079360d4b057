package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float64
}

func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string, temperature float64) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model, temperature: temperature}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, &Error{Provider: "gemini", Message: "build contents", Err: err}
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if c.temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(c.temperature))
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, geminiError(err)
	}
	return fromGeminiResponse(resp)
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	out := &Response{}
	calls := resp.FunctionCalls()
	for _, fc := range calls {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, &Error{Provider: "gemini", Message: "encode function args", Err: err}
		}
		if fc.Args == nil {
			args = json.RawMessage("{}")
		}
		id := fc.ID
		if id == "" {
			id = uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: fc.Name, Arguments: args})
	}
	if len(calls) == 0 {
		out.Content = resp.Text()
	}
	return out, nil
}

// toGeminiContents folds consecutive tool results into a single user turn.
func toGeminiContents(msgs []Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	var pending *genai.Content

	flush := func() {
		if pending != nil {
			contents = append(contents, pending)
			pending = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleTool:
			var result map[string]any
			if err := json.Unmarshal([]byte(m.Content), &result); err != nil {
				result = map[string]any{"output": m.Content}
			}
			if pending == nil {
				pending = &genai.Content{Role: string(genai.RoleUser)}
			}
			pending.Parts = append(pending.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Name: m.Name, Response: result},
			})
		case RoleAssistant:
			flush()
			c := &genai.Content{Role: string(genai.RoleModel)}
			if m.Content != "" {
				c.Parts = append(c.Parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if len(tc.Arguments) > 0 {
					if err := json.Unmarshal(tc.Arguments, &args); err != nil {
						return nil, fmt.Errorf("tool call %s arguments: %w", tc.ID, err)
					}
				}
				c.Parts = append(c.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			contents = append(contents, c)
		default:
			flush()
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	flush()
	return contents, nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Provider: "gemini", Status: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	return &Error{Provider: "gemini", Message: "generate content", Err: err}
}
