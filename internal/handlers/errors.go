package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/auth"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/discovery"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/media"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/permissions"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/uploads"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"gorm.io/gorm"
)

// toAPIError maps domain sentinels to client errors. Anything unmapped is
// returned as is and becomes a redacted 500 in util.RespondError.
func toAPIError(err error) error {
	var verr *auth.ValidationError
	switch {
	case stderrors.As(err, &verr):
		return errors.ValidationError(verr.Field, verr.Message)

	case stderrors.Is(err, notifications.ErrUnauthenticated),
		stderrors.Is(err, auth.ErrInvalidToken):
		return errors.Unauthorized("user not authenticated")
	case stderrors.Is(err, auth.ErrInvalidCredentials):
		return errors.Unauthorized("invalid credentials")
	case stderrors.Is(err, auth.ErrOAuthNotConfigured):
		return errors.NotConfigured("google oauth")

	case stderrors.Is(err, auth.ErrUserExists):
		return errors.Conflict("an account with this email already exists")
	case stderrors.Is(err, auth.ErrHandleTaken):
		return errors.Conflict("could not allocate a handle, try again")
	case stderrors.Is(err, repository.ErrAlreadyMember):
		return errors.Conflict("already a member of this community")
	case stderrors.Is(err, permissions.ErrLastAdmin):
		return errors.Conflict("cannot remove the last admin of a community")
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Conflict("resource already exists")

	case stderrors.Is(err, notifications.ErrNotFound):
		return errors.NotFound("notification")
	case stderrors.Is(err, repository.ErrCommunityNotFound):
		return errors.NotFound("community")
	case stderrors.Is(err, repository.ErrUserNotFound):
		return errors.NotFound("user")
	case stderrors.Is(err, permissions.ErrNotMember):
		return errors.NotFound("membership")
	case stderrors.Is(err, uploads.ErrSessionNotFound):
		return errors.NotFound("upload session")

	case stderrors.Is(err, uploads.ErrNotSessionOwner):
		return errors.Forbidden("upload session belongs to another user")
	case stderrors.Is(err, discovery.ErrDisallowed):
		return errors.Forbidden("the site does not allow fetching this page")

	case stderrors.Is(err, notifications.ErrInvalidCursor):
		return errors.ValidationError("cursor", "invalid cursor")
	case stderrors.Is(err, notifications.ErrInvalidInput),
		stderrors.Is(err, repository.ErrInvalidInput):
		return errors.BadRequest(err.Error())
	case stderrors.Is(err, uploads.ErrInvalidUploadID):
		return errors.ValidationError("upload_id", "must be a uuid")
	case stderrors.Is(err, uploads.ErrInvalidFileName):
		return errors.ValidationError("file_name", err.Error())
	case stderrors.Is(err, uploads.ErrInvalidFolder):
		return errors.ValidationError("folder", err.Error())
	case stderrors.Is(err, uploads.ErrInvalidChunk):
		return errors.ValidationError("index", "must be between 0 and 9999")
	case stderrors.Is(err, uploads.ErrEmptyChunk),
		stderrors.Is(err, uploads.ErrChunkTooLarge):
		return errors.ValidationError("chunk", err.Error())
	case stderrors.Is(err, uploads.ErrNoChunks),
		stderrors.Is(err, uploads.ErrFileTooLarge),
		stderrors.Is(err, media.ErrUnsupportedType):
		return errors.BadRequest(err.Error())

	case stderrors.Is(err, discovery.ErrFetch):
		return errors.ServiceUnavailable("article source")
	}
	return err
}

func respondDomainError(c *gin.Context, err error) {
	util.RespondError(c, toAPIError(err))
}
