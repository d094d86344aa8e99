package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"annoncia/internal/infrastructure/storage"
	"annoncia/pkg/errors"
	"annoncia/pkg/logger"
	"annoncia/pkg/response"
)

type FileHandler struct {
	storageClient *storage.CloudStorageClient
	maxFileSize   int64
}

func NewFileHandler(storageClient *storage.CloudStorageClient) *FileHandler {
	return &FileHandler{
		storageClient: storageClient,
		maxFileSize:   5 * 1024 * 1024,
	}
}

var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// UploadAttachment stores a chat attachment and returns its URL. The client
// then sends a file message referencing it.
func (h *FileHandler) UploadAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		logger.Error("UploadAttachment Error: Missing file in form: %v", err)
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		logger.Warn("UploadAttachment: File too large: %d bytes", file.Size)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedAttachmentTypes[contentType] {
		logger.Warn("UploadAttachment: Unsupported file type: %s", contentType)
		return response.Error(c, errors.BadRequest("File type not supported", nil))
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("UploadAttachment Error: Unable to open file: %v", err)
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	url, err := h.storageClient.UploadAttachment(c.Request().Context(), src, contentType)
	if err != nil {
		logger.Error("UploadAttachment Error: Storage upload failed: %v", err)
		return response.Error(c, errors.Internal("Failed to upload file", err))
	}

	return response.Created(c, map[string]string{
		"url":       url,
		"file_name": file.Filename,
	})
}
