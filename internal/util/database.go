package util

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"gorm.io/gorm"
)

// HandleDBError sends the HTTP response for a database error.
// Returns true if a response was sent.
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	switch {
	case err == nil:
		return false
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		RespondNotFound(c, resourceName)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		RespondWithAPIError(c, errors.Conflict(resourceName+" already exists"))
	default:
		RespondError(c, err)
	}
	return true
}
