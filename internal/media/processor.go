// Package media stores uploaded files and derives their display variants.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultFolder is used when the caller does not name one
	DefaultFolder = "media"
	// ThumbnailMaxSide bounds the longer edge of generated thumbnails
	ThumbnailMaxSide = 320
	// Images above this many pixels are stored without a thumbnail
	maxDecodePixels = 40_000_000
)

var ErrUnsupportedType = errors.New("unsupported media type")

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var allowedTypes = append([]string{
	"video/mp4", "video/webm", "video/quicktime",
	"audio/mpeg", "audio/mp4", "audio/ogg", "audio/wav",
	"application/pdf",
}, imageTypes...)

// File is an in-memory upload ready for processing
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// Variant is one stored rendition of a file
type Variant struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ProcessedMedia describes what was stored for one upload
type ProcessedMedia struct {
	ID          string   `json:"id"`
	FileName    string   `json:"file_name"`
	ContentType string   `json:"content_type"`
	Size        int64    `json:"size"`
	Original    Variant  `json:"original"`
	Thumbnail   *Variant `json:"thumbnail,omitempty"`
}

// Uploader is the write side of storage.ObjectStore
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Processor uploads originals and their thumbnails
type Processor struct {
	store Uploader
	url   func(key string) string
}

// NewProcessor creates a processor. url maps a stored key to its public address.
func NewProcessor(store Uploader, url func(key string) string) *Processor {
	if url == nil {
		url = func(key string) string { return "/" + key }
	}
	return &Processor{store: store, url: url}
}

// Process sniffs the file type, stores the original under folder and, for
// raster images, a JPEG thumbnail next to it.
func (p *Processor) Process(ctx context.Context, file File, folder string) (*ProcessedMedia, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%s: empty file", file.Name)
	}

	detected := mimetype.Detect(file.Data)
	if !mimetype.EqualsAny(detected.String(), allowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}
	contentType := baseType(detected.String())

	if folder == "" {
		folder = DefaultFolder
	}
	id := uuid.NewString()
	originalKey := path.Join(folder, id+detected.Extension())

	if err := p.store.Upload(ctx, originalKey, file.Data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store original: %w", err)
	}

	result := &ProcessedMedia{
		ID:          id,
		FileName:    file.Name,
		ContentType: contentType,
		Size:        int64(len(file.Data)),
		Original:    Variant{Key: originalKey, URL: p.url(originalKey)},
	}

	if !mimetype.EqualsAny(contentType, imageTypes...) {
		return result, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	result.Original.Width, result.Original.Height = cfg.Width, cfg.Height
	if cfg.Width*cfg.Height > maxDecodePixels {
		logger.Log.Warn("Image too large for thumbnail",
			zap.String("key", originalKey),
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height),
		)
		return result, nil
	}

	thumb, w, h, err := Thumbnail(file.Data, ThumbnailMaxSide)
	if err != nil {
		return nil, fmt.Errorf("failed to generate thumbnail: %w", err)
	}
	thumbKey := path.Join(folder, id+"_thumb.jpg")
	if err := p.store.Upload(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}
	result.Thumbnail = &Variant{Key: thumbKey, URL: p.url(thumbKey), Width: w, Height: h}

	return result, nil
}

// Thumbnail decodes an image and re-encodes it as JPEG with its longer side
// at most maxSide. Smaller images keep their dimensions.
func Thumbnail(data []byte, maxSide int) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}

	w, h := FitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), w, h, nil
}

// FitWithin scales (w, h) down so neither side exceeds maxSide, keeping the
// aspect ratio and never returning a zero dimension.
func FitWithin(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}

func baseType(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(base)
}
