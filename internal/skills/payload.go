package skills

import (
	"encoding/json"
	"errors"

	"todochat/internal/apperr"
)

// Payload renders an invocation outcome as the JSON tool result handed back
// to the reasoning engine.
func Payload(res *Result, err error) string {
	var body map[string]any
	if err != nil {
		body = failure(err)
	} else {
		body = success(res)
	}
	b, mErr := json.Marshal(body)
	if mErr != nil {
		return `{"success":false,"error":{"type":"InternalError","message":"could not encode tool result"}}`
	}
	return string(b)
}

func success(res *Result) map[string]any {
	body := map[string]any{"success": true}
	switch res.Skill {
	case ListTasks:
		body["tasks"] = res.Tasks
		body["count"] = len(res.Tasks)
	case DeleteTask:
		body["message"] = res.Message
	default:
		body["task"] = res.Task
	}
	return body
}

func failure(err error) map[string]any {
	detail := map[string]any{}
	if e, ok := apperr.As(err); ok {
		detail["type"] = e.Kind.String()
		detail["message"] = e.Message
		if e.Retryable {
			detail["retryable"] = true
		}
	} else {
		detail["type"] = apperr.KindInternal.String()
		detail["message"] = "The operation failed unexpectedly."
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.Field != "" {
			detail["field"] = verr.Field
		}
		detail["code"] = string(verr.Code)
	}
	return map[string]any{"success": false, "error": detail}
}
