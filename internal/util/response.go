package util

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"go.uber.org/zap"
)

// SuccessResponse is the envelope for every 2xx JSON body
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// RespondOK sends 200 with the success envelope
func RespondOK(c *gin.Context, data any, message ...string) {
	respondSuccess(c, http.StatusOK, data, message...)
}

// RespondCreated sends 201 with the success envelope
func RespondCreated(c *gin.Context, data any, message ...string) {
	respondSuccess(c, http.StatusCreated, data, message...)
}

func respondSuccess(c *gin.Context, status int, data any, message ...string) {
	resp := SuccessResponse{Success: true, Data: data}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.JSON(status, resp)
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.String("path", c.Request.URL.Path),
	}
	if apiErr.Field != "" {
		fields = append(fields, zap.String("field", apiErr.Field))
	}
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else {
		logger.Log.Debug("API error", fields...)
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// RespondError sends err to the client. APIErrors pass through untouched;
// anything else is logged in full and answered with a redacted 500.
func RespondError(c *gin.Context, err error) {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		RespondWithAPIError(c, apiErr)
		return
	}
	logger.Log.Error("Unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	RespondWithAPIError(c, errors.InternalError(""))
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondForbidden sends a 403 Forbidden response
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Forbidden(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondValidationError sends a 400 response naming the offending field
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
