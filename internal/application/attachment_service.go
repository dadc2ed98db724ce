package application

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

// ObjectUploader stores an object and returns its URL. *helpers.GCSUploader
// implements it.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// AttachmentService validates and uploads mail attachments.
type AttachmentService struct {
	Uploader ObjectUploader // nil: uploads are rejected with ErrUnavailable
	MaxBytes int64
	Logger   *logrus.Logger
}

// NewAttachmentService builds an AttachmentService limited to maxBytes per file.
func NewAttachmentService(uploader ObjectUploader, maxBytes int64, logger *logrus.Logger) *AttachmentService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &AttachmentService{Uploader: uploader, MaxBytes: maxBytes, Logger: logger}
}

// Upload stores r under attachments/<userID>/<uuid><ext>.
func (s *AttachmentService) Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*entity.Attachment, error) {
	if s.Uploader == nil {
		return nil, newError(ErrUnavailable, "Attachment storage is not configured")
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fieldError("file", "file name is required")
	}
	if size > s.MaxBytes {
		return nil, newError(ErrTooLarge, "Attachment exceeds the size limit")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(filepath.Ext(name))
	objectPath := filepath.ToSlash(filepath.Join("attachments", userID, uuid.NewString()+ext))
	url, err := s.Uploader.Upload(ctx, objectPath, contentType, io.LimitReader(r, s.MaxBytes))
	if err != nil {
		s.Logger.WithError(err).WithField("object", objectPath).Error("attachment upload failed")
		return nil, err
	}
	return &entity.Attachment{Filename: name, URL: url, Size: size}, nil
}
