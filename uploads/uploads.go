// Package uploads stores logo and QR code images and returns the URL they are served from.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	MaxSizeBytes int64 = 5 * 1024 * 1024
	// images wider or taller than this are scaled down before they are stored
	maxDimension = 2048
	fieldName    = "file"
)

var imageMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Provider writes an object and returns the URL clients load it from.
type Provider interface {
	Put(ctx context.Context, objectKey, contentType string, data []byte) (string, error)
}

type Service struct {
	provider Provider
	now      func() time.Time
}

func New(provider Provider) *Service {
	return &Service{provider: provider, now: time.Now}
}

// Upload checks that r holds a jpeg, png or webp image of at most MaxSizeBytes,
// stores it and returns its URL. Bad input is a *models.ValidationError.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSizeBytes+1))
	if err != nil {
		return "", models.NewValidationError(fieldName, "could not read upload")
	}
	if len(data) == 0 {
		return "", models.NewValidationError(fieldName, "No file uploaded")
	}
	if int64(len(data)) > MaxSizeBytes {
		return "", models.NewValidationError(fieldName, "file size exceeds 5MB limit")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageMimeTypes[contentType]
	if !ok {
		return "", models.NewValidationError(fieldName, "Invalid file type. Only JPEG, PNG and WEBP are allowed.")
	}

	data, err = normalize(data, contentType)
	if err != nil {
		return "", models.NewValidationError(fieldName, "file is not a valid image")
	}

	url, err := s.provider.Put(ctx, s.objectKey(filename, ext), contentType, data)
	if err != nil {
		return "", models.Internal("store upload", err)
	}
	return url, nil
}

// objectKey follows "file-<millis>-<random><ext>", keeping the client's extension
// when it matches the detected type.
func (s *Service) objectKey(filename, ext string) string {
	if own := strings.ToLower(filepath.Ext(filename)); own == ".jpeg" && ext == ".jpg" {
		ext = own
	}
	return fmt.Sprintf("%s-%d-%s%s", fieldName, s.now().UnixMilli(), uuid.NewString()[:8], ext)
}

// normalize decodes the image to prove it is one and scales oversized jpeg/png
// images down. webp is kept as uploaded since it cannot be re-encoded.
func normalize(data []byte, contentType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if contentType == "image/webp" || (bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension) {
		return data, nil
	}

	format := imaging.JPEG
	if contentType == "image/png" {
		format = imaging.PNG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos), format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
