// Package blobsvc stores uploaded media and serves back public URLs.
package blobsvc

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mkundi/kampasi/core"
)

// ErrUpload is returned when a blob cannot be stored. The cause is logged,
// not exposed to callers.
var ErrUpload = errors.New("upload failed")

type (
	// Store saves a blob under a bucket and returns its public URL.
	Store interface {
		Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error)
	}

	// DiskStore keeps blobs on the local filesystem, one directory per
	// bucket, served under a static base URL.
	DiskStore struct {
		root    string
		baseURL string
		logger  core.Logger
	}
)

var _ Store = (*DiskStore)(nil)

func NewDiskStore(root, baseURL string, logger core.Logger) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// Upload writes the blob under a collision-resistant name derived from the
// original filename's extension.
func (s *DiskStore) Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("creating bucket dir", err)
		return "", ErrUpload
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		s.logger.Error("creating blob file", err)
		return "", ErrUpload
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, r); err != nil {
		s.logger.Error("writing blob", err)
		return "", ErrUpload
	}
	if err = ctx.Err(); err != nil {
		return "", ErrUpload
	}
	return s.baseURL + "/" + path.Join(bucket, name), nil
}
