// Package uploads reassembles files that clients send as numbered fragments.
//
// A session is a marker object at tmp-uploads/{uploadId} holding the owner's
// user id, plus fragments at tmp-uploads/{uploadId}/{index:04d}. Zero padding
// makes lexicographic key order equal upload order.
//
// Completion takes no lock against fragment uploads still in flight for the
// same session; the outcome of that race is undefined.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/media"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/storage"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/telemetry"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// TempPrefix is where sessions and fragments live until completion
	TempPrefix = "tmp-uploads/"
	// MaxChunkIndex is the highest fragment index a 4-digit name can hold
	MaxChunkIndex = 9999

	DefaultMaxChunkBytes = 5 << 20
	DefaultMaxFileBytes  = 200 << 20
)

var (
	ErrNoChunks        = errors.New("no chunks found")
	ErrInvalidUploadID = errors.New("upload id must be a uuid")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrInvalidFolder   = errors.New("invalid folder")
	ErrInvalidChunk    = errors.New("chunk index out of range")
	ErrEmptyChunk      = errors.New("chunk is empty")
	ErrChunkTooLarge   = errors.New("chunk exceeds maximum size")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrSessionNotFound = errors.New("upload session not found")
	ErrNotSessionOwner = errors.New("upload session belongs to another user")
)

// Processor turns a reassembled file into stored media
type Processor interface {
	Process(ctx context.Context, file media.File, folder string) (*media.ProcessedMedia, error)
}

// Session is returned by Start
type Session struct {
	UploadID      string    `json:"upload_id"`
	MaxChunkBytes int       `json:"max_chunk_bytes"`
	MaxChunks     int       `json:"max_chunks"`
	CreatedAt     time.Time `json:"created_at"`
}

// CompleteRequest identifies the session to finalize
type CompleteRequest struct {
	UploadID string
	FileName string
	Folder   string
	UserID   string
}

// Options bounds fragment and file sizes
type Options struct {
	MaxChunkBytes int
	MaxFileBytes  int
}

// Service runs the upload session lifecycle against an object store
type Service struct {
	store     storage.ObjectStore
	processor Processor
	opts      Options
	now       func() time.Time
}

// NewService creates a service. Zero options take the package defaults.
func NewService(store storage.ObjectStore, processor Processor, opts Options) *Service {
	if opts.MaxChunkBytes <= 0 {
		opts.MaxChunkBytes = DefaultMaxChunkBytes
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Service{store: store, processor: processor, opts: opts, now: time.Now}
}

// MaxChunkBytes is the largest fragment PutChunk accepts
func (s *Service) MaxChunkBytes() int {
	return s.opts.MaxChunkBytes
}

// MarkerKey is the session marker object for uploadID
func MarkerKey(uploadID string) string {
	return TempPrefix + uploadID
}

// ChunkPrefix is the listing prefix for uploadID's fragments
func ChunkPrefix(uploadID string) string {
	return TempPrefix + uploadID + "/"
}

// ChunkKey is the object name of one fragment
func ChunkKey(uploadID string, index int) string {
	return fmt.Sprintf("%s%04d", ChunkPrefix(uploadID), index)
}

// Start opens a session owned by userID
func (s *Service) Start(ctx context.Context, userID string) (*Session, error) {
	uploadID := uuid.NewString()
	if err := s.store.Upload(ctx, MarkerKey(uploadID), []byte(userID), "text/plain"); err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	logger.Log.Debug("Upload session started", logger.WithUploadID(uploadID), logger.WithUserID(userID))
	return &Session{
		UploadID:      uploadID,
		MaxChunkBytes: s.opts.MaxChunkBytes,
		MaxChunks:     MaxChunkIndex + 1,
		CreatedAt:     s.now().UTC(),
	}, nil
}

// PutChunk stores one fragment. Re-sending an index overwrites it.
func (s *Service) PutChunk(ctx context.Context, uploadID, userID string, index int, data []byte) error {
	if !util.IsUUID(uploadID) {
		return ErrInvalidUploadID
	}
	if index < 0 || index > MaxChunkIndex {
		return ErrInvalidChunk
	}
	if len(data) == 0 {
		return ErrEmptyChunk
	}
	if len(data) > s.opts.MaxChunkBytes {
		return ErrChunkTooLarge
	}
	if err := s.checkOwner(ctx, uploadID, userID, true); err != nil {
		return err
	}

	if err := s.store.Upload(ctx, ChunkKey(uploadID, index), data, "application/octet-stream"); err != nil {
		return fmt.Errorf("failed to store chunk %d: %w", index, err)
	}
	return nil
}

// Complete reassembles the fragments in key order, hands the file to the
// processor and removes the session. Any failure after listing triggers a
// best-effort cleanup whose errors never replace the original one.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (_ *media.ProcessedMedia, err error) {
	ctx, span := telemetry.StartSpan(ctx, "uploads.complete",
		attribute.String("upload.id", req.UploadID),
		attribute.String("upload.folder", req.Folder),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if !util.IsUUID(req.UploadID) {
		return nil, ErrInvalidUploadID
	}
	if err := util.ValidateFilename(req.FileName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileName, err)
	}
	if err := util.ValidateFolder(req.Folder); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFolder, err)
	}
	if err := s.checkOwner(ctx, req.UploadID, req.UserID, false); err != nil {
		return nil, err
	}

	keys, err := s.store.List(ctx, ChunkPrefix(req.UploadID))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(keys) == 0 {
		s.recordOutcome("no_chunks")
		return nil, ErrNoChunks
	}
	sort.Strings(keys)
	span.SetAttributes(attribute.Int("upload.chunks", len(keys)))

	result, err := s.assembleAndProcess(ctx, req, keys)
	if err != nil {
		s.cleanup(ctx, req.UploadID, keys)
		s.recordOutcome("failed")
		return nil, err
	}

	if err := s.store.Delete(ctx, append(keys, MarkerKey(req.UploadID))...); err != nil {
		logger.Log.Warn("Failed to remove upload fragments after completion",
			logger.WithUploadID(req.UploadID),
			zap.Error(err),
		)
	}
	s.recordOutcome("completed")
	return result, nil
}

func (s *Service) assembleAndProcess(ctx context.Context, req CompleteRequest, keys []string) (*media.ProcessedMedia, error) {
	var data []byte
	for _, key := range keys {
		chunk, err := s.store.Download(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", path.Base(key), err)
		}
		if len(data)+len(chunk) > s.opts.MaxFileBytes {
			return nil, ErrFileTooLarge
		}
		data = append(data, chunk...)
	}

	m := metrics.Get()
	m.UploadChunkCount.Observe(float64(len(keys)))
	m.UploadAssembledBytes.Observe(float64(len(data)))

	file := media.File{
		Name:        req.FileName,
		Data:        data,
		ContentType: mime.TypeByExtension(path.Ext(req.FileName)),
	}
	result, err := s.processor.Process(ctx, file, req.Folder)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", req.FileName, err)
	}
	return result, nil
}

// Abort deletes a session and everything uploaded to it
func (s *Service) Abort(ctx context.Context, uploadID, userID string) error {
	if !util.IsUUID(uploadID) {
		return ErrInvalidUploadID
	}
	if err := s.checkOwner(ctx, uploadID, userID, true); err != nil {
		return err
	}
	keys, err := s.store.List(ctx, ChunkPrefix(uploadID))
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}
	if err := s.store.Delete(ctx, append(keys, MarkerKey(uploadID))...); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	s.recordOutcome("aborted")
	return nil
}

// cleanup removes every fragment of uploadID that it can find. The listing
// is repeated so fragments that arrived after the first listing also go.
func (s *Service) cleanup(ctx context.Context, uploadID string, known []string) {
	// The request context may be the reason we failed.
	ctx = context.WithoutCancel(ctx)

	keys := append([]string(nil), known...)
	if listed, err := s.store.List(ctx, ChunkPrefix(uploadID)); err == nil {
		keys = mergeKeys(keys, listed)
	}
	keys = append(keys, MarkerKey(uploadID))

	if err := s.store.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("Upload cleanup failed",
			logger.WithUploadID(uploadID),
			zap.Int("keys", len(keys)),
			zap.Error(err),
		)
	}
}

// checkOwner compares the marker's owner with userID. A missing marker is
// an error only when required is set.
func (s *Service) checkOwner(ctx context.Context, uploadID, userID string, required bool) error {
	owner, err := s.store.Download(ctx, MarkerKey(uploadID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		if required {
			return ErrSessionNotFound
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read upload session: %w", err)
	}
	if len(owner) > 0 && string(owner) != userID {
		return ErrNotSessionOwner
	}
	return nil
}

func (s *Service) recordOutcome(outcome string) {
	metrics.Get().UploadsCompletedTotal.WithLabelValues(outcome).Inc()
}

func mergeKeys(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, k := range list {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
