// Package respond holds the JSON envelope shared by every HTTP handler.
//
// Success: {"status":"success", ...payload}
// Error:   {"status":"error","message":"..."}
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	svcErr "github.com/oggyb/tinderito/internal/errors"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 1 << 20

// M is a response payload merged into the success envelope.
type M map[string]any

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope with payload merged in.
func OK(w http.ResponseWriter, payload M) {
	body := M{"status": "success"}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Error maps err to its HTTP status and writes the error envelope.
// 5xx causes are logged; the client only sees the safe message.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code := svcErr.HTTPStatus(err)
	if code >= http.StatusInternalServerError && log != nil {
		log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	JSON(w, code, M{"status": "error", "message": svcErr.Message(err)})
}

// Decode reads a JSON body into v. Unknown fields are ignored; malformed
// JSON is a validation error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return svcErr.InvalidArgument("request body too large")
		case errors.Is(err, io.EOF):
			return svcErr.InvalidArgument("request body is required")
		default:
			return svcErr.InvalidArgument("invalid json")
		}
	}
	return nil
}

// QueryID parses a positive integer id from the query string.
// A missing value yields 0 so services report it as a missing field.
func QueryID(r *http.Request, name string) (uint64, error) {
	return ParseID(name, r.URL.Query().Get(name))
}

// ParseID parses a positive integer id; empty input yields 0.
func ParseID(name, raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// ID is a user/match id in a JSON body. Clients send it either as a number
// or as a numeric string; anything else fails decoding.
type ID uint64

// UnmarshalJSON accepts 12, "12" and null (left as 0).
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*id = ID(n)
	return nil
}
