package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIClient struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	http        *http.Client
}

func NewOpenAIClient(apiKey, model, baseURL string, temperature float64) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		// Deadlines come from the caller's context.
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   *string          `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	body := openAIRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(req),
		Temperature: c.temperature,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, openAITool{
			Type:     "function",
			Function: openAIFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: "openai", Message: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &Error{Provider: "openai", Message: "create request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: "openai", Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &Error{Provider: "openai", Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		var eb openAIErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return nil, &Error{Provider: "openai", Status: resp.StatusCode, Message: msg}
	}

	var oaiResp openAIResponse
	if err := json.Unmarshal(raw, &oaiResp); err != nil {
		return nil, &Error{Provider: "openai", Message: "decode response", Err: err}
	}
	if len(oaiResp.Choices) == 0 {
		return nil, &Error{Provider: "openai", Message: "empty choices in response"}
	}

	choice := oaiResp.Choices[0].Message
	out := &Response{}
	if choice.Content != nil {
		out.Content = *choice.Content
	}
	for _, tc := range choice.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if strings.TrimSpace(tc.Function.Arguments) == "" {
			args = json.RawMessage("{}")
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

func toOpenAIMessages(req Request) []openAIMessage {
	msgs := make([]openAIMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: strPtr(req.System)})
	}
	for _, m := range req.Messages {
		om := openAIMessage{Role: string(m.Role), ToolCallID: m.ToolCallID}
		switch {
		case len(m.ToolCalls) > 0:
			// content must be null alongside tool_calls.
			if m.Content != "" {
				om.Content = strPtr(m.Content)
			}
			for _, tc := range m.ToolCalls {
				oc := openAIToolCall{ID: tc.ID, Type: "function"}
				oc.Function.Name = tc.Name
				oc.Function.Arguments = string(tc.Arguments)
				om.ToolCalls = append(om.ToolCalls, oc)
			}
		default:
			om.Content = strPtr(m.Content)
		}
		msgs = append(msgs, om)
	}
	return msgs
}

func strPtr(s string) *string { return &s }

func (c *OpenAIClient) String() string {
	return fmt.Sprintf("openai(%s)", c.model)
}
