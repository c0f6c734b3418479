package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutExceptStreams(t *testing.T) {
	handler := timeoutExceptStreams(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			w.Header().Set("X-Deadline", "yes")
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		method   string
		target   string
		deadline bool
	}{
		{http.MethodGet, "/manga", true},
		{http.MethodPost, "/manga/0b6a/upload", true},
		{http.MethodGet, "/manga/0b6a/pages", true},
		{http.MethodGet, "/manga/0b6a/pages?fileId=abc", false},
		{http.MethodGet, "/manga/0b6a/cover", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.deadline, w.Header().Get("X-Deadline") == "yes")
		})
	}
}
