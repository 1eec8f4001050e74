package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"vetclinic/internal/domain/service"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

const gcsPublicHost = "https://storage.googleapis.com/"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

var _ service.FileUploadService = (*CloudStorageClient)(nil)

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	c := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := c.setBucketCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS configuration on %s: %v", bucketName, err)
	}

	return c, nil
}

// setBucketCORS lets browsers load attachment URLs directly from the bucket.
func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}
	if len(attrs.CORS) > 0 {
		return nil
	}

	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          time.Hour,
			Methods:         []string{"GET", "HEAD"},
			Origins:         []string{"*"},
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %v", err)
	}
	return nil
}

func (c *CloudStorageClient) UploadFile(ctx context.Context, file io.Reader, fileType, folder string) (*service.UploadResult, error) {
	objectName := ObjectName(folder, fileType, time.Now())

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = fileType
	wc.CacheControl = "public, max-age=86400"

	size, err := io.Copy(wc, file)
	if err != nil {
		wc.Close()
		return nil, errors.Internal("failed to upload file", err)
	}
	if err := wc.Close(); err != nil {
		return nil, errors.Internal("failed to upload file", err)
	}

	return &service.UploadResult{
		URL:        gcsPublicHost + c.bucketName + "/" + objectName,
		ObjectName: objectName,
		Size:       size,
	}, nil
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	objectName = strings.TrimPrefix(objectName, gcsPublicHost+c.bucketName+"/")
	if err := c.client.Bucket(c.bucketName).Object(objectName).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return errors.NotFound("File", err)
		}
		return errors.Internal("failed to delete file", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

// ObjectName places an upload under folder with a unique name and the
// extension registered for its MIME type.
func ObjectName(folder, fileType string, now time.Time) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}

	ext := ".bin"
	if mt := mimetype.Lookup(fileType); mt != nil && mt.Extension() != "" {
		ext = mt.Extension()
	}

	return fmt.Sprintf("%s/%s-%s%s", folder, uuid.New().String(), now.UTC().Format("20060102150405"), ext)
}
