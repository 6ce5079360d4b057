package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGeminiContentsGroupsToolResults(t *testing.T) {
	contents, err := toGeminiContents([]Message{
		{Role: RoleUser, Content: "add two tasks"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "add_task", Arguments: json.RawMessage(`{"title":"one"}`)},
			{ID: "b", Name: "add_task", Arguments: json.RawMessage(`{"title":"two"}`)},
		}},
		{Role: RoleTool, ToolCallID: "a", Name: "add_task", Content: `{"success":true}`},
		{Role: RoleTool, ToolCallID: "b", Name: "add_task", Content: `not json`},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)

	model := contents[1]
	assert.Equal(t, "model", model.Role)
	require.Len(t, model.Parts, 2)
	assert.Equal(t, "one", model.Parts[0].FunctionCall.Args["title"])

	results := contents[2]
	assert.Equal(t, "user", results.Role)
	require.Len(t, results.Parts, 2)
	assert.Equal(t, "a", results.Parts[0].FunctionResponse.ID)
	assert.Equal(t, true, results.Parts[0].FunctionResponse.Response["success"])
	assert.Equal(t, "not json", results.Parts[1].FunctionResponse.Response["output"])
}

func TestFromGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: "model", Parts: []*genai.Part{
			{FunctionCall: &genai.FunctionCall{Name: "delete_task", Args: map[string]any{"task_id": 999.0}}},
		}},
	}}}

	out, err := fromGeminiResponse(resp)
	require.NoError(t, err)
	require.Len(t, out.ToolCalls, 1)
	assert.NotEmpty(t, out.ToolCalls[0].ID)
	assert.Equal(t, "delete_task", out.ToolCalls[0].Name)
	assert.JSONEq(t, `{"task_id":999}`, string(out.ToolCalls[0].Arguments))

	text := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText("Task 999 was not found.", genai.RoleModel),
	}}}
	out, err = fromGeminiResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "Task 999 was not found.", out.Content)
	assert.Empty(t, out.ToolCalls)
}

func TestGeminiErrorMapping(t *testing.T) {
	err := geminiError(genai.APIError{Code: 429, Message: "quota"})
	aiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.True(t, aiErr.RateLimited())
	assert.Equal(t, "gemini", aiErr.Provider)
}
