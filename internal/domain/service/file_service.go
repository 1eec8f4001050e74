package service

import (
	"context"
	"io"
)

type UploadResult struct {
	URL        string
	ObjectName string
	Size       int64
}

// FileUploadService stores attachment bytes and hands back a URL that messages reference.
type FileUploadService interface {
	UploadFile(ctx context.Context, file io.Reader, fileType, folder string) (*UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	Close() error
}
