package handler

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/middleware"
	"vetclinic/internal/domain/entity"
	"vetclinic/internal/domain/repository"
	"vetclinic/internal/domain/service"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
	"vetclinic/pkg/response"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type FileHandler struct {
	fileService      service.FileUploadService
	fileMetadataRepo repository.FileMetadataRepository
	maxFileSize      int64
}

func NewFileHandler(fileService service.FileUploadService, fileMetadataRepo repository.FileMetadataRepository, maxFileSize int64) *FileHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	return &FileHandler{
		fileService:      fileService,
		fileMetadataRepo: fileMetadataRepo,
		maxFileSize:      maxFileSize,
	}
}

// UploadFile stores an image attachment and returns the URL to put in a message's file_url.
// The type is sniffed from the bytes; the client's Content-Type is ignored.
func (h *FileHandler) UploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return response.Error(c, errors.BadRequest("Unable to read file", err))
	}
	fileType := mt.String()
	if i := strings.IndexByte(fileType, ';'); i >= 0 {
		fileType = fileType[:i]
	}
	if !allowedImageTypes[fileType] {
		logger.Warn("Rejected upload of type %s", fileType)
		return response.Error(c, errors.BadRequest("Only JPEG, PNG, GIF and WebP images are allowed", nil))
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}

	userID := middleware.UserID(c)
	result, err := h.fileService.UploadFile(c.Request().Context(), src, fileType, "chat/"+userID)
	if err != nil {
		logger.Error("UploadFile Error: %v", err)
		return response.Error(c, err)
	}

	metadata := &entity.FileMetadata{
		URL:        result.URL,
		ObjectName: result.ObjectName,
		UploadedBy: userID,
		Filename:   file.Filename,
		FileType:   fileType,
		FileSize:   result.Size,
	}
	if err := h.fileMetadataRepo.Create(c.Request().Context(), metadata); err != nil {
		logger.Error("Failed to save file metadata for %s: %v", result.ObjectName, err)
		// an object without a metadata record is unreachable, drop it
		if delErr := h.fileService.DeleteFile(c.Request().Context(), result.ObjectName); delErr != nil {
			logger.Warn("Failed to remove orphaned upload %s: %v", result.ObjectName, delErr)
		}
		return response.Error(c, err)
	}

	return response.Created(c, metadata)
}
