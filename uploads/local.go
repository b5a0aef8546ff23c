package uploads

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local writes uploads to a directory that the API serves under URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{Dir: dir, URLPrefix: "/uploads"}, nil
}

func (l *Local) Put(_ context.Context, objectKey, _ string, data []byte) (string, error) {
	name := filepath.Base(objectKey)
	if err := os.WriteFile(filepath.Join(l.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	return path.Join("/", strings.Trim(l.URLPrefix, "/"), name), nil
}
