// Package shared centralizes JSON envelope and error translation for all
// feature handlers so transport responses stay consistent.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "stepway/pkg/domain-errors"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a coded domain error into a JSON error envelope.
// Non-coded errors are reported as internal faults without leaking detail.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)
	message := "internal error"

	var de *dErrors.Error
	if errors.As(err, &de) {
		status = dErrors.ToHTTPStatus(de.Code)
		code = string(de.Code)
		message = de.Message
	}
	WriteJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
