package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusConflict, "username already exists", map[string]any{"field": "username"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["title"])
	assert.Equal(t, float64(409), body["status"])
	assert.Equal(t, "username already exists", body["detail"])
	assert.Equal(t, "username", body["field"])
}

func TestProblemTypeFallback(t *testing.T) {
	assert.Equal(t, "about:blank", problemType(http.StatusTeapot))
	assert.Contains(t, problemType(http.StatusTooManyRequests), "rfc6585")
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value string
		want  int64
		ok    bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.SetPathValue("id", tt.value)
		got, err := PathID(r, "id")
		if tt.ok {
			require.NoError(t, err, tt.value)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.value)
		}
	}
}

func TestParseJSONRejectsOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	var dest map[string]string
	assert.Error(t, ParseJSON(httptest.NewRecorder(), r, &dest))
}
