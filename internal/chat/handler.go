// Package chat is the HTTP surface of the assistant: it checks the shape of
// an inbound chat request, runs one turn and renders the answer or error.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"todochat/internal/agent"
	"todochat/internal/apperr"
	"todochat/internal/credential"
	"todochat/internal/respond"
)

const (
	DefaultMaxMessageLength = 4000
	maxBodyBytes            = 1 << 20
)

type Runner interface {
	Run(ctx context.Context, message string, cred credential.Credential) (*agent.Output, error)
}

type request struct {
	Message      json.RawMessage `json:"message"`
	SessionToken json.RawMessage `json:"session_token"`
}

type response struct {
	Response  string   `json:"response"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
}

// Input is a chat request that passed shape validation.
type Input struct {
	Message    string
	Credential credential.Credential
}

// ParseRequest validates a raw request body. maxLen bounds the message in
// characters.
func ParseRequest(body []byte, maxLen int) (*Input, error) {
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperr.Wrap(apperr.KindCallerInput, "Request body must be a JSON object.", err)
	}

	msg, err := parseMessage(req.Message, maxLen)
	if err != nil {
		return nil, err
	}

	cred, err := parseCredential(req.SessionToken)
	if err != nil {
		return nil, err
	}
	return &Input{Message: msg, Credential: cred}, nil
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func parseMessage(raw json.RawMessage, maxLen int) (string, error) {
	if isAbsent(raw) {
		return "", apperr.CallerInput("message is required.")
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", apperr.CallerInput("message must be a string.")
	}
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		return "", apperr.CallerInput("message cannot be empty.")
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return "", apperr.CallerInput(fmt.Sprintf("message must be at most %d characters.", maxLen))
	}
	return msg, nil
}

func parseCredential(raw json.RawMessage) (credential.Credential, error) {
	var v any
	if !isAbsent(raw) {
		if err := json.Unmarshal(raw, &v); err != nil {
			return credential.Credential{}, apperr.CallerInput("session_token must be a string.")
		}
	}
	cred, err := credential.FromValue(v)
	switch {
	case errors.Is(err, credential.ErrNotText):
		return credential.Credential{}, apperr.CallerInput("session_token must be a string.")
	case errors.Is(err, credential.ErrMalformed):
		return credential.Credential{}, apperr.Authentication("The session token is not valid. Please sign in again.")
	case err != nil:
		return credential.Credential{}, apperr.Authentication("A session token is required. Please sign in.")
	}
	return cred, nil
}

// Handler serves POST /api/chat.
func Handler(runner Runner, maxLen int, logger *zap.Logger) http.HandlerFunc {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

		body, err := readBody(w, r)
		if err != nil {
			apperr.Write(w, err)
			return
		}

		in, err := ParseRequest(body, maxLen)
		if err != nil {
			log.Info("chat request rejected", zap.Stringer("kind", apperr.KindOf(err)))
			apperr.Write(w, err)
			return
		}

		out, err := runner.Run(r.Context(), in.Message, in.Credential)
		if err != nil {
			e, ok := apperr.As(err)
			if !ok || e.StatusCode() >= http.StatusInternalServerError {
				log.Error("chat turn failed", zap.Error(err), credential.Field(in.Credential))
			} else {
				log.Info("chat turn failed", zap.Stringer("kind", e.Kind))
			}
			apperr.Write(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, response{Response: out.Response, ToolsUsed: out.ToolsUsed})
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxBodyBytes)); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperr.CallerInput("Request body is too large.")
		}
		return nil, apperr.Wrap(apperr.KindCallerInput, "Could not read request body.", err)
	}
	return buf.Bytes(), nil
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
