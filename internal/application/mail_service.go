package application

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	repo "github.com/oksasatya/galactic-postbox/internal/domain/repository"
	"github.com/oksasatya/galactic-postbox/internal/metrics"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100

	// MaxPage keeps Page.Offset within int for any permitted limit.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// DeliveryNotifier is told about every delivered mail item.
type DeliveryNotifier interface {
	MailDelivered(ctx context.Context, m *entity.Mail, recipientEmail string) error
}

// ListQuery is an inbox or sent-box request. Zero Page/Limit take defaults.
type ListQuery struct {
	Page   int
	Limit  int
	Type   *entity.MailType
	IsRead *bool
}

// MailPage is one page of mail plus pagination totals.
type MailPage struct {
	Items       []entity.Mail
	Page        int
	Limit       int
	Total       int64
	Pages       int64
	UnreadCount int64
}

// SendInput is a request to deliver mail to RecipientAddress. Empty Type and
// Priority default to letter and normal.
type SendInput struct {
	RecipientAddress string              `json:"recipientAddress" binding:"required"`
	Subject          string              `json:"subject" binding:"required,max=200"`
	Content          string              `json:"content" binding:"required,max=10000"`
	Type             entity.MailType     `json:"type" binding:"omitempty,mailtype"`
	Priority         entity.Priority     `json:"priority" binding:"omitempty,priority"`
	Attachments      []entity.Attachment `json:"attachments" binding:"omitempty,max=10,dive"`
}

// MailService sends mail and serves inbox, sent-box and read-state operations.
type MailService struct {
	Users    repo.UserRepository
	Mail     repo.MailRepository
	Notifier DeliveryNotifier // nil: notifications disabled
	Logger   *logrus.Logger
	now      func() time.Time
}

// NewMailService builds a MailService. A nil notifier disables delivery
// notifications.
func NewMailService(users repo.UserRepository, mail repo.MailRepository, notifier DeliveryNotifier, logger *logrus.Logger) *MailService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &MailService{
		Users:    users,
		Mail:     mail,
		Notifier: notifier,
		Logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalizePage(q ListQuery) repo.Page {
	p := repo.Page{Number: q.Page, Limit: q.Limit}
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Number > MaxPage {
		p.Number = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func newMailPage(items []entity.Mail, p repo.Page, total int64) *MailPage {
	limit := int64(p.Limit)
	return &MailPage{
		Items: items,
		Page:  p.Number,
		Limit: p.Limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}

var errMailNotFound = newError(ErrNotFound, "Mail not found")

// mailID rejects malformed ids before they reach the store.
func mailID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", errMailNotFound
	}
	return parsed.String(), nil
}

func mapMailErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errMailNotFound
	}
	return err
}

// ListInbox returns the user's received mail, newest first. UnreadCount
// ignores the type and isRead filters.
func (s *MailService) ListInbox(ctx context.Context, userID string, q ListQuery) (*MailPage, error) {
	p := normalizePage(q)
	items, total, err := s.Mail.ListByRecipient(ctx, userID, repo.MailFilter{Type: q.Type, IsRead: q.IsRead}, p)
	if err != nil {
		return nil, err
	}
	unread, err := s.Mail.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	page := newMailPage(items, p, total)
	page.UnreadCount = unread
	return page, nil
}

func (s *MailService) ListSent(ctx context.Context, userID string, q ListQuery) (*MailPage, error) {
	p := normalizePage(q)
	items, total, err := s.Mail.ListBySender(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return newMailPage(items, p, total), nil
}

func (s *MailService) Get(ctx context.Context, userID, id string) (*entity.Mail, error) {
	id, err := mailID(id)
	if err != nil {
		return nil, err
	}
	m, err := s.Mail.GetVisible(ctx, id, userID)
	if err != nil {
		return nil, mapMailErr(err)
	}
	return m, nil
}

// Send delivers mail from senderID. An unknown recipient address is
// ErrNotFound and nothing is stored.
func (s *MailService) Send(ctx context.Context, senderID string, in SendInput) (*entity.Mail, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if in.Type == "" {
		in.Type = entity.MailTypeLetter
	}
	if in.Priority == "" {
		in.Priority = entity.PriorityNormal
	}

	recipient, err := s.Users.GetByAddress(ctx, in.RecipientAddress)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrNotFound, "No user found with this address")
		}
		return nil, err
	}

	m := &entity.Mail{
		SenderID:         senderID,
		RecipientID:      recipient.ID,
		RecipientAddress: recipient.Address.Address,
		Subject:          in.Subject,
		Content:          in.Content,
		Type:             in.Type,
		Priority:         in.Priority,
		Attachments:      in.Attachments,
	}
	if err := s.Mail.Create(ctx, m); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrAuth, "User not found")
		}
		return nil, err
	}
	metrics.RecordMailSent(string(m.Type))

	if s.Notifier != nil {
		if err := s.Notifier.MailDelivered(ctx, m, recipient.Email); err != nil {
			s.Logger.WithError(err).WithField("mail_id", m.ID).Warn("delivery notification failed")
		}
	}
	return m, nil
}

// MarkRead sets isRead and re-stamps readAt on every call.
func (s *MailService) MarkRead(ctx context.Context, userID, id string) (*entity.Mail, error) {
	id, err := mailID(id)
	if err != nil {
		return nil, err
	}
	m, err := s.Mail.MarkRead(ctx, id, userID, s.now())
	if err != nil {
		return nil, mapMailErr(err)
	}
	metrics.RecordMailRead()
	return m, nil
}

// Delete removes mail received by userID. Senders cannot delete.
func (s *MailService) Delete(ctx context.Context, userID, id string) error {
	id, err := mailID(id)
	if err != nil {
		return err
	}
	return mapMailErr(s.Mail.DeleteForRecipient(ctx, id, userID))
}
