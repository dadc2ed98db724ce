package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/application"
	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/interface/middleware"
	"github.com/oksasatya/galactic-postbox/pkg/response"
)

type MailHandler struct {
	Mail   *application.MailService
	Logger *logrus.Logger
}

func NewMailHandler(mail *application.MailService, logger *logrus.Logger) *MailHandler {
	return &MailHandler{Mail: mail, Logger: logger}
}

// listQuery reads page, limit, type and isRead. Unparseable numbers fall
// back to defaults; isRead filters on the literal "true".
func listQuery(c *gin.Context) application.ListQuery {
	q := application.ListQuery{}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.Limit, _ = strconv.Atoi(c.Query("limit"))
	if t := c.Query("type"); t != "" {
		mt := entity.MailType(t)
		q.Type = &mt
	}
	if v, ok := c.GetQuery("isRead"); ok {
		read := v == "true"
		q.IsRead = &read
	}
	return q
}

// List GET /api/mail
func (h *MailHandler) List(c *gin.Context) {
	page, err := h.Mail.ListInbox(c.Request.Context(), middleware.UserID(c), listQuery(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.H{
		"mail":        toMailViews(page.Items),
		"pagination":  toPaginationView(page),
		"unreadCount": page.UnreadCount,
	})
}

// Sent GET /api/mail/sent
func (h *MailHandler) Sent(c *gin.Context) {
	page, err := h.Mail.ListSent(c.Request.Context(), middleware.UserID(c), listQuery(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.H{
		"mail":       toMailViews(page.Items),
		"pagination": toPaginationView(page),
	})
}

// Get GET /api/mail/:id
func (h *MailHandler) Get(c *gin.Context) {
	m, err := h.Mail.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.H{"mail": toMailView(m)})
}

// Send POST /api/mail/send
func (h *MailHandler) Send(c *gin.Context) {
	var in application.SendInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.Mail.Send(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, response.H{"mail": toMailView(m)})
}

// MarkRead PATCH /api/mail/:id/read
func (h *MailHandler) MarkRead(c *gin.Context) {
	m, err := h.Mail.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.H{"mail": toMailView(m)})
}

// Delete DELETE /api/mail/:id
func (h *MailHandler) Delete(c *gin.Context) {
	if err := h.Mail.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, response.H{"message": "Mail deleted successfully"})
}
