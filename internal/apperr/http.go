package apperr

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const internalMessage = "An unexpected error occurred. Please try again later."

// Payload is the wire shape of every chat API error.
type Payload struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// PayloadFor maps any error to its wire payload. Errors outside the taxonomy
// and internal kinds never expose their text.
func PayloadFor(err error) Payload {
	e, ok := As(err)
	if !ok || e.Kind == KindInternal {
		return Payload{
			Error:      http.StatusText(http.StatusInternalServerError),
			Message:    internalMessage,
			StatusCode: http.StatusInternalServerError,
		}
	}

	status := e.StatusCode()
	msg := e.Message
	if msg == "" || status == http.StatusInternalServerError {
		msg = internalMessage
	}
	return Payload{
		Error:      http.StatusText(status),
		Message:    msg,
		StatusCode: status,
	}
}

// Write sends err as a JSON error response.
func Write(w http.ResponseWriter, err error) {
	p := PayloadFor(err)
	if e, ok := As(err); ok && e.Retryable {
		w.Header().Set("Retry-After", strconv.Itoa(5))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.StatusCode)
	_ = json.NewEncoder(w).Encode(p)
}
