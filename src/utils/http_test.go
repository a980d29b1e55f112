package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONError(rec, "day 32 is out of range", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "day 32 is out of range"}`, rec.Body.String())
}

func TestSendJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSON(rec, map[string]int{"count": 3}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"count": 3}`, rec.Body.String())
}
