package repository

import (
	"context"
	"time"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
)

// MailFilter narrows an inbox listing. Nil fields are not applied.
type MailFilter struct {
	Type   *entity.MailType
	IsRead *bool
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

// MailRepository persists mail rows. Every read returns rows ordered by
// created_at descending with Sender and Recipient populated.
type MailRepository interface {
	Create(ctx context.Context, m *entity.Mail) error
	ListByRecipient(ctx context.Context, recipientID string, f MailFilter, p Page) ([]entity.Mail, int64, error)
	ListBySender(ctx context.Context, senderID string, p Page) ([]entity.Mail, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// GetVisible returns the mail when userID is its sender or recipient.
	GetVisible(ctx context.Context, id, userID string) (*entity.Mail, error)
	// MarkRead sets is_read and read_at in one conditional update keyed by
	// id and recipient.
	MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*entity.Mail, error)
	DeleteForRecipient(ctx context.Context, id, recipientID string) error
}
