package skills

import (
	"errors"
	"fmt"
	"net/http"

	"todochat/internal/apperr"
	"todochat/internal/backend"
)

// mapBackendError turns a gateway failure into the error taxonomy. taskID is
// zero for calls that do not reference a task.
func mapBackendError(err error, taskID int64) error {
	var berr *backend.Error
	if !errors.As(err, &berr) {
		return apperr.Wrap(apperr.KindInternal, "The todo request failed unexpectedly.", err)
	}

	switch berr.Status {
	case backend.StatusUnreachable:
		e := apperr.Wrap(apperr.KindBackendUnavailable,
			"Could not reach the todo service. Please check your connection and try again.", berr)
		e.Retryable = true
		return e
	case http.StatusBadRequest:
		return apperr.Wrap(apperr.KindCallerInput, "The todo service rejected the request: "+berr.Message, berr)
	case http.StatusUnauthorized:
		return apperr.Wrap(apperr.KindAuthentication,
			"Your session is invalid or has expired. Please sign in again.", berr)
	case http.StatusNotFound:
		msg := "The requested task was not found. Use list_tasks to see your tasks and their IDs."
		if taskID > 0 {
			msg = fmt.Sprintf("Task %d not found. Use list_tasks to see your tasks and their IDs.", taskID)
		}
		return apperr.Wrap(apperr.KindNotFound, msg, berr)
	case http.StatusInternalServerError:
		return apperr.Wrap(apperr.KindBackendInternal,
			"The todo service ran into a problem. Please try again later.", berr)
	default:
		msg := "The todo request failed."
		if berr.Message != "" {
			msg = "The todo request failed: " + berr.Message
		}
		return apperr.Wrap(apperr.KindInternal, msg, berr)
	}
}
