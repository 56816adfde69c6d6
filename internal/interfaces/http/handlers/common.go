// Package handlers contains the HTTP handlers for the annotation API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/annolens/annolens/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeAppError maps application errors onto HTTP responses using the error
// code table.  Internal errors are masked.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{
		Code:      string(code),
		Message:   err.Error(),
		Retryable: errors.IsRetryable(err),
	}
	if status >= http.StatusInternalServerError && !resp.Retryable {
		resp.Message = errors.DefaultMessageForCode(errors.ErrCodeInternal)
	}
	writeJSON(w, status, resp)
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidParam("malformed request body: " + err.Error())
	}
	return nil
}
