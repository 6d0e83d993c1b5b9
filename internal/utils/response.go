package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-events/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, ErrorBody{Error: message})
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, MessageBody{Message: message})
}

// StatusFor maps the apperr kinds to HTTP status codes. Anything else is a 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err with the status StatusFor picks and returns that
// status. Clients only see apperr.Message; server errors get a fixed text.
func WriteAppError(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	message := apperr.Message(err)
	if status == http.StatusInternalServerError || message == "" {
		message = "Internal server error"
	}
	WriteError(w, status, message)
	return status
}

// DecodeJSON reads r's body into dst. Malformed bodies are apperr.ErrValidation.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Errorf(apperr.ErrValidation, "invalid request body: %v", err)
	}
	return nil
}
