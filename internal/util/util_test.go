package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", handler)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondOKEnvelope(t *testing.T) {
	w := perform(func(c *gin.Context) {
		RespondOK(c, gin.H{"id": "n1"}, "done")
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["message"])
	assert.Equal(t, "n1", body["data"].(map[string]any)["id"])
}

func TestRespondErrorPassesAPIErrorThrough(t *testing.T) {
	w := perform(func(c *gin.Context) {
		RespondError(c, fmt.Errorf("wrapped: %w", errors.Forbidden("admins only")))
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "admins only", decode(t, w)["error"])
}

func TestRespondErrorRedactsInfrastructureErrors(t *testing.T) {
	w := perform(func(c *gin.Context) {
		RespondError(c, fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestHandleDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(func(c *gin.Context) {
				assert.True(t, HandleDBError(c, tt.err, "community"))
			})
			assert.Equal(t, tt.code, w.Code)
		})
	}

	w := perform(func(c *gin.Context) {
		assert.False(t, HandleDBError(c, nil, "community"))
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	w := perform(func(c *gin.Context) {
		_, ok := GetUserIDFromContext(c)
		assert.False(t, ok)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(func(c *gin.Context) {
		c.Set(ContextUserIDKey, "u1")
		id, ok := GetUserIDFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, "u1", id)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit("", 20, 100))
	assert.Equal(t, 20, ClampLimit("-5", 20, 100))
	assert.Equal(t, 50, ClampLimit("50", 20, 100))
	assert.Equal(t, 100, ClampLimit("5000", 20, 100))
	assert.Equal(t, 20, ClampLimit("abc", 20, 100))
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, SplitCSV("  "))
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, SplitCSV(" a@x.com, ,b@y.com "))
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("photo.jpg"))
	assert.Error(t, ValidateFilename(""))
	assert.Error(t, ValidateFilename("../etc/passwd"))
	assert.Error(t, ValidateFilename(`a\b.png`))
	assert.Error(t, ValidateFilename(".."))
}

func TestValidateFolder(t *testing.T) {
	assert.NoError(t, ValidateFolder(""))
	assert.NoError(t, ValidateFolder("events/2026"))
	assert.Error(t, ValidateFolder("../secrets"))
	assert.Error(t, ValidateFolder("Events"))
	assert.Error(t, ValidateFolder("a//b"))
	assert.Error(t, ValidateFolder("/abs"))
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("5f1c2a3e-8c1d-4d7e-9a5b-0a1b2c3d4e5f"))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID("{5f1c2a3e-8c1d-4d7e-9a5b-0a1b2c3d4e5f}"))
}
