// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// ErrBodyTooLarge indicates the request body exceeded the decode limit.
var ErrBodyTooLarge = errors.New("request body too large")

// DecodeJSON decodes a JSON request body into the target struct. Bodies
// larger than 1 MiB are rejected; unknown fields are tolerated so the
// gateway can attach envelope metadata.
func DecodeJSON(r *http.Request, target any) error {
	limited := http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		return err
	}
	return nil
}
