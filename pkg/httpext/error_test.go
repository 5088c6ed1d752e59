package httpext

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonError(t *testing.T) {
	tests := []struct {
		name    string
		message string
		code    int
	}{
		{"Basic error", "Something went wrong", http.StatusBadRequest},
		{"Internal server error", "Internal error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JsonError(w, tt.message, tt.code)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.message, response.Error)
			assert.Empty(t, response.ErrorDescription)
		})
	}
}

func TestJsonErrorWithDetails(t *testing.T) {
	tests := []struct {
		name string
		body ErrorResponse
		code int
	}{
		{
			name: "Error with description",
			body: ErrorResponse{Error: "invalid_request", ErrorDescription: "text is required"},
			code: http.StatusBadRequest,
		},
		{
			name: "Error without description",
			body: ErrorResponse{Error: "unauthorized"},
			code: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JsonErrorWithDetails(w, tt.code, tt.body)

			assert.Equal(t, tt.code, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.body, response)
		})
	}
}

func TestJsonResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JsonResponse(w, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"abc"}`, w.Body.String())
}
