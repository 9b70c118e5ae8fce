package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		status int
		code   ErrorCode
	}{
		{"not found", NotFound("community"), http.StatusNotFound, ErrNotFound},
		{"unauthorized", Unauthorized("login required"), http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("admins only"), http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("last admin"), http.StatusConflict, ErrConflict},
		{"validation", ValidationError("file_name", "required"), http.StatusBadRequest, ErrValidation},
		{"bad request", BadRequest("bad json"), http.StatusBadRequest, ErrBadRequest},
		{"internal", InternalError(""), http.StatusInternalServerError, ErrInternalError},
		{"rate limited", RateLimited(""), http.StatusTooManyRequests, ErrRateLimited},
		{"unavailable", ServiceUnavailable("storage"), http.StatusServiceUnavailable, ErrServiceUnavail},
		{"not configured", NotConfigured("google oauth"), http.StatusServiceUnavailable, ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAPIErrorJSONShape(t *testing.T) {
	body, err := json.Marshal(ValidationError("upload_id", "must be a uuid"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "must be a uuid", decoded["error"])
	assert.Equal(t, "VALIDATION_ERROR", decoded["code"])
	assert.Equal(t, "upload_id", decoded["field"])
	assert.NotContains(t, decoded, "Status")
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: user not found", NotFound("user").Error())
	assert.Equal(t, "VALIDATION_ERROR: bad (field: x)", ValidationError("x", "bad").Error())
}

func TestUnknownCodeDefaultsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("NOPE").StatusCode())
}
