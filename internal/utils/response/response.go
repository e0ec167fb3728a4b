// Package response provides helpers for reading JSON requests and writing
// consistent JSON responses.
//
// Service results are written as-is: the types.Result envelope already
// carries success, data, error, code and field errors. Errors that happen
// before a service is reached (bad JSON, bad query parameters) use the
// same shape through GeneralError, so clients always see
//
//	{ "success": false, "error": "...", "code": "validation" }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aanand-mishra/activity-registry/internal/types"
)

// ErrEmptyBody is returned by ReadJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// WriteJSON writes data as JSON with the given status code.
//
// Order matters: headers, then WriteHeader, then the body.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps err in a failed envelope with code.
func GeneralError(code string, err error) types.Result[any] {
	return types.Fail[any](code, err.Error())
}

// StatusFor maps a failure code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case types.CodeValidation:
		return http.StatusBadRequest
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteResult writes a service result, using okStatus on success and the
// code's status on failure.
func WriteResult[T any](w http.ResponseWriter, okStatus int, res types.Result[T]) error {
	if !res.Success {
		return WriteJSON(w, StatusFor(res.Code), res)
	}
	return WriteJSON(w, okStatus, res)
}

// ReadJSON decodes the request body into dst. Unknown fields are
// rejected.
func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
