// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestRespondJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to encode response"}`, rec.Body.String())
}

func TestRespondErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorBody(rec, http.StatusRequestEntityTooLarge, ErrorBody{
		Error:   "too big",
		Reason:  "file_too_large",
		Details: []string{"a.png"},
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too big", body["error"])
	assert.Equal(t, "file_too_large", body["reason"])
	assert.Equal(t, []any{"a.png"}, body["details"])

	rec = httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "nope")
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}
