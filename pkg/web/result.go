package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorKind classifies a failed outcome for API clients.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindPaymentFailed ErrorKind = "payment_failed"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindForbidden     ErrorKind = "forbidden"
	KindInternal      ErrorKind = "internal"
)

// Status returns the HTTP status code used for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	case KindPaymentFailed:
		return http.StatusPaymentRequired
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Result is the response envelope. A successful result carries Data, a failed one carries
// Kind and, for validation failures, the offending Fields.
type Result[T any] struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Kind    ErrorKind         `json:"kind,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    T                 `json:"data,omitempty"`
}

// Ok builds a successful result.
func Ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

// Fail builds a failed result.
func Fail(kind ErrorKind, message string, fields map[string]string) Result[any] {
	return Result[any]{Success: false, Kind: kind, Message: message, Fields: fields}
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondOk writes a successful envelope.
func RespondOk[T any](w http.ResponseWriter, logger *slog.Logger, status int, message string, data T) {
	RespondJSON(w, logger, status, Ok(data, message))
}

// RespondFail writes a failed envelope with the status derived from kind.
func RespondFail(w http.ResponseWriter, logger *slog.Logger, kind ErrorKind, message string, fields map[string]string) {
	RespondJSON(w, logger, kind.Status(), Fail(kind, message, fields))
}
