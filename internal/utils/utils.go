package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

var errTrailingData = errors.New("unexpected data after JSON body")

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError writes {"error": <status text>, "message": msg} plus any
// extra fields.
func WriteError(w http.ResponseWriter, status int, msg string, extra ...any) {
	body := map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, ok := extra[i].(string); ok {
			body[k] = extra[i+1]
		}
	}
	WriteJSON(w, status, body)
}

// DecodeJSON reads a single JSON value from r into v, rejecting trailing
// data.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
