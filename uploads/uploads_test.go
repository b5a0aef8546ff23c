package uploads

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, A: 255}), format))
	return buf.Bytes()
}

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := NewLocal(dir)
	require.NoError(t, err)
	s := New(local)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s, dir
}

func TestUploadStoresImage(t *testing.T) {
	s, dir := newService(t)

	url, err := s.Upload(context.Background(), "logo.png", bytes.NewReader(encode(t, 40, 20, imaging.PNG)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/file-1700000000000-"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestUploadScalesDownLargeImages(t *testing.T) {
	s, dir := newService(t)

	url, err := s.Upload(context.Background(), "qr.jpeg", bytes.NewReader(encode(t, 3000, 1000, imaging.JPEG)))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpeg"), url)

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, maxDimension, img.Bounds().Dx())
}

func TestUploadRejectsBadInput(t *testing.T) {
	s, dir := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
		msg  string
	}{
		{"empty", nil, "No file uploaded"},
		{"text", []byte("hello, not an image"), "Invalid file type"},
		{"pdf", []byte("%PDF-1.4\n"), "Invalid file type"},
		{"truncated png", encode(t, 10, 10, imaging.PNG)[:40], "not a valid image"},
		{"too large", bytes.Repeat([]byte{0}, int(MaxSizeBytes)+1), "5MB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Upload(ctx, "x.png", bytes.NewReader(tc.data))
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "file", verr.Field)
			assert.Contains(t, verr.Message, tc.msg)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
