package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"taskboard/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON value into dst. Unknown fields, trailing
// data and oversized bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError(map[string]string{"body": "request body is required"})
		}
		return common.NewValidationError(map[string]string{"body": "invalid JSON payload: " + err.Error()})
	}
	if dec.More() {
		return common.NewValidationError(map[string]string{"body": "request body must contain a single JSON value"})
	}
	return nil
}
