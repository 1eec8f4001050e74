package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vetclinic/internal/domain/service"
	"vetclinic/pkg/errors"
)

// LocalStorage keeps uploads on disk for deployments without a bucket. Files
// are served back under publicPrefix by the HTTP server.
type LocalStorage struct {
	root         string
	publicPrefix string
}

var _ service.FileUploadService = (*LocalStorage)(nil)

func NewLocalStorage(root, publicPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Internal("failed to create upload directory", err)
	}
	return &LocalStorage{
		root:         root,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
	}, nil
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) UploadFile(ctx context.Context, file io.Reader, fileType, folder string) (*service.UploadResult, error) {
	objectName := ObjectName(folder, fileType, time.Now())
	path, err := s.resolve(objectName)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Internal("failed to upload file", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Internal("failed to upload file", err)
	}
	defer f.Close()

	size, err := io.Copy(f, file)
	if err != nil {
		os.Remove(path)
		return nil, errors.Internal("failed to upload file", err)
	}

	return &service.UploadResult{
		URL:        s.publicPrefix + "/" + objectName,
		ObjectName: objectName,
		Size:       size,
	}, nil
}

func (s *LocalStorage) DeleteFile(ctx context.Context, objectName string) error {
	path, err := s.resolve(strings.TrimPrefix(objectName, s.publicPrefix+"/"))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("File", err)
		}
		return errors.Internal("failed to delete file", err)
	}
	return nil
}

func (s *LocalStorage) Close() error {
	return nil
}

func (s *LocalStorage) resolve(objectName string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(objectName))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.BadRequest("invalid object name", err)
	}
	return path, nil
}
