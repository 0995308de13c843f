package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"messagewall/pkg/logger"
)

// FS publishes objects as files under a root directory. Each Put writes to a
// temp file and renames it over the target, so readers never observe a torn
// document. Serving metadata lives in a sidecar next to the object.
type FS struct {
	root string
}

// NewFS creates the root directory if needed and returns the publisher.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create publish root %s: %w", root, err)
	}
	return &FS{root: root}, nil
}

func (f *FS) Put(_ context.Context, key string, body []byte, meta Meta) error {
	path, err := f.objectPath(key)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, body); err != nil {
		logger.Error("publish_put_failed", "key", key, "error", err)
		return err
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := writeAtomic(path+".meta", mb); err != nil {
		logger.Error("publish_meta_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("object_published", "key", key, "bytes", len(body))
	return nil
}

func (f *FS) Get(key string) ([]byte, Meta, error) {
	path, err := f.objectPath(key)
	if err != nil {
		return nil, Meta{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, Meta{}, err
	}
	var meta Meta
	if mb, merr := os.ReadFile(path + ".meta"); merr == nil {
		_ = json.Unmarshal(mb, &meta)
	}
	return body, meta, nil
}

// objectPath rejects keys that would escape the root.
func (f *FS) objectPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(f.root, key), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".publish-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
