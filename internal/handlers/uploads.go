package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/uploads"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.uber.org/zap"
)

// StartUpload opens a chunked upload session
// POST /api/uploads
func (h *Handlers) StartUpload(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	session, err := h.uploads.Start(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondCreated(c, session)
}

// PutUploadChunk stores one fragment; the body is the raw chunk bytes
// PUT /api/uploads/:id/chunks/:index
func (h *Handlers) PutUploadChunk(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		util.RespondValidationError(c, "index", "must be an integer")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, int64(h.uploads.MaxChunkBytes())))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDomainError(c, uploads.ErrChunkTooLarge)
			return
		}
		util.RespondBadRequest(c, "failed to read chunk")
		return
	}

	if err := h.uploads.PutChunk(c.Request.Context(), c.Param("id"), userID, index, data); err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"upload_id": c.Param("id"), "index": index, "size": len(data)})
}

// CompleteUpload reassembles the fragments and processes the file
// POST /api/uploads/:id/complete
func (h *Handlers) CompleteUpload(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		FileName string `json:"file_name" binding:"required"`
		Folder   string `json:"folder"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "file_name", "file_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.uploadCompleteTimeout)
	defer cancel()

	result, err := h.uploads.Complete(ctx, uploads.CompleteRequest{
		UploadID: c.Param("id"),
		FileName: req.FileName,
		Folder:   req.Folder,
		UserID:   userID,
	})
	if err != nil {
		logger.Log.Warn("Upload completion failed",
			logger.WithUploadID(c.Param("id")),
			logger.WithUserID(userID),
			zap.Error(err),
		)
		respondDomainError(c, err)
		return
	}
	util.RespondCreated(c, result, "upload complete")
}

// AbortUpload discards a session and its fragments
// DELETE /api/uploads/:id
func (h *Handlers) AbortUpload(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.uploads.Abort(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, nil, "upload aborted")
}
