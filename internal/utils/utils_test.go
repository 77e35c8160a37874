package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, map[string]string{"key": "value"})

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusCreated, []int{1, 2})

		var got []int
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if len(got) != 2 || got[1] != 2 {
			t.Errorf("body = %v; want [1 2]", got)
		}
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		msg    string
		extra  []any
		want   map[string]any
	}{
		{
			name:   "plain",
			status: http.StatusBadRequest,
			msg:    "invalid input",
			want:   map[string]any{"error": "Bad Request", "message": "invalid input"},
		},
		{
			name:   "extra fields",
			status: http.StatusUnprocessableEntity,
			msg:    "truncated frame",
			extra:  []any{"reason", "truncated_frame", "offset", 8},
			want:   map[string]any{"error": "Unprocessable Entity", "message": "truncated frame", "reason": "truncated_frame", "offset": float64(8)},
		},
		{
			name:   "odd extra ignored",
			status: http.StatusNotFound,
			msg:    "nope",
			extra:  []any{"dangling"},
			want:   map[string]any{"error": "Not Found", "message": "nope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.status, tt.msg, tt.extra...)

			if w.Code != tt.status {
				t.Errorf("Code = %d; want %d", w.Code, tt.status)
			}
			var got map[string]any
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("body is not valid JSON: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Errorf("body = %v; want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v; want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"a":1}`, false},
		{"trailing whitespace", "{\"a\":1}\n", false},
		{"trailing value", `{"a":1}{"a":2}`, true},
		{"broken", `{"a":`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v map[string]int
			err := DecodeJSON(r, &v)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeJSON error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
