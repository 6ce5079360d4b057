// Package backend is the authenticated HTTP client for the Phase II todo API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"todochat/internal/credential"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("backend"),
	}
}

func (c *Client) CreateTask(ctx context.Context, cred credential.Credential, in CreateTaskInput) (*Task, error) {
	var t Task
	if err := c.do(ctx, cred, http.MethodPost, "/api/todos", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ListTasks(ctx context.Context, cred credential.Credential) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, cred, http.MethodGet, "/api/todos", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (c *Client) UpdateTask(ctx context.Context, cred credential.Credential, id int64, in UpdateTaskInput) (*Task, error) {
	var t Task
	if err := c.do(ctx, cred, http.MethodPut, taskPath(id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CompleteTask(ctx context.Context, cred credential.Credential, id int64) (*Task, error) {
	done := true
	return c.UpdateTask(ctx, cred, id, UpdateTaskInput{IsCompleted: &done})
}

func (c *Client) DeleteTask(ctx context.Context, cred credential.Credential, id int64) error {
	return c.do(ctx, cred, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id int64) string {
	return "/api/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, cred credential.Credential, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", cred.Bearer())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The transport error only carries method and URL, never headers.
		c.logger.Warn("backend unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		detail := "connection failed"
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "timed out"
		}
		return &Error{Status: StatusUnreachable, Message: "todo service unreachable", Detail: detail}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Status:  resp.StatusCode,
			Message: errorMessage(raw, resp.StatusCode),
			Detail:  http.StatusText(resp.StatusCode),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "invalid response from todo service", Detail: err.Error()}
	}
	return nil
}

// errorMessage pulls a human message out of common error body shapes:
// {"detail": "..."}, {"message": "..."}, {"error": "..."}, or plain text.
func errorMessage(raw []byte, status int) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var detail string
		if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 300 {
		return text
	}
	return http.StatusText(status)
}
