package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskhub-io/taskhub/internal/auth"
	"github.com/taskhub-io/taskhub/internal/store"
	"github.com/taskhub-io/taskhub/internal/validator"
)

const maxBodyBytes = 1 << 20

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// envelope is the body of every JSON response
type envelope struct {
	Success bool                `json:"success"`
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Count   *int                `json:"count,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Token   string              `json:"token,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Status: statusSuccess, Message: message, Data: data})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	n := len(items)
	writeJSON(w, http.StatusOK, envelope{Success: true, Status: statusSuccess, Count: &n, Data: items})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Status: statusFail, Message: message})
}

// handleError maps a domain error to a response. notFound is the message
// used for store.ErrNotFound.
func handleError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *validator.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{
			Success: false,
			Status:  statusFail,
			Message: "The given data was invalid.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, store.ErrNotFound):
		writeFail(w, http.StatusNotFound, notFound)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeFail(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeFail(w, http.StatusUnauthorized, "Unauthenticated.")
	default:
		log.Printf("[API] %s %s failed (request %s): %v",
			r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Status:  statusError,
			Message: "Internal server error",
		})
	}
}

// decodeJSON reads a JSON body into dst and answers the request itself on
// failure: 422 for a field of the wrong type, 400 for anything unparseable.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			handleError(w, r, validator.FieldError(typeErr.Field, "is invalid"), "")
			return false
		}
		if errors.Is(err, io.EOF) {
			writeFail(w, http.StatusBadRequest, "Request body must not be empty")
			return false
		}
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
