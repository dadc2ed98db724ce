package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/application"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
	"github.com/oksasatya/galactic-postbox/pkg/response"
	"github.com/oksasatya/galactic-postbox/pkg/validation"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

type AttachmentHandler struct {
	Attachments *application.AttachmentService
	Logger      *logrus.Logger
}

func NewAttachmentHandler(attachments *application.AttachmentService, logger *logrus.Logger) *AttachmentHandler {
	return &AttachmentHandler{Attachments: attachments, Logger: logger}
}

// Upload POST /api/attachments (multipart field "file")
func (h *AttachmentHandler) Upload(c *gin.Context) {
	if h.Attachments.Uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, "Attachment storage is not configured", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Attachments.MaxBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Error(c, http.StatusRequestEntityTooLarge, "Attachment exceeds the size limit", nil)
			return
		}
		details := []validation.FieldError{{Field: "file", Message: "file is required"}}
		response.Error(c, http.StatusBadRequest, "file is required", details)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	att, err := h.Attachments.Upload(c.Request.Context(), middleware.UserID(c), fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, response.H{"attachment": att})
}
