package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/domain/repository"
)

// mailSelect projects a mail row with both parties joined. The FROM clause is
// supplied by the caller so it can be a table or a CTE named m.
const mailSelect = `
	SELECT m.id::text, m.sender_id::text, m.recipient_id::text, m.recipient_address,
		m.subject, m.content, m.type, m.is_read, m.read_at, m.priority, m.attachments,
		m.created_at, m.updated_at,
		s.username, s.address, s.movie, s.address_is_custom,
		r.username, r.address, r.movie, r.address_is_custom
`

const mailJoins = `
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id
`

type MailRepository struct {
	db DB
}

func NewMailRepository(db DB) *MailRepository {
	return &MailRepository{db: db}
}

func scanMail(row pgx.Row) (*entity.Mail, error) {
	var (
		m           entity.Mail
		mailType    string
		priority    string
		attachments []byte
		sender      entity.UserRef
		recipient   entity.UserRef
	)
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.RecipientAddress,
		&m.Subject, &m.Content, &mailType, &m.IsRead, &m.ReadAt, &priority, &attachments,
		&m.CreatedAt, &m.UpdatedAt,
		&sender.Username, &sender.Address.Address, &sender.Address.Movie, &sender.Address.IsCustom,
		&recipient.Username, &recipient.Address.Address, &recipient.Address.Movie, &recipient.Address.IsCustom,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MailType(mailType)
	m.Priority = entity.Priority(priority)
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	sender.ID, recipient.ID = m.SenderID, m.RecipientID
	m.Sender, m.Recipient = &sender, &recipient
	return &m, nil
}

func (r *MailRepository) Create(ctx context.Context, m *entity.Mail) error {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []entity.Attachment{}
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return err
	}
	row := r.db.QueryRow(ctx, `
		WITH m AS (
			INSERT INTO mail (sender_id, recipient_id, recipient_address, subject, content, type, priority, attachments)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
			RETURNING *
		)`+mailSelect+` FROM m`+mailJoins,
		m.SenderID, m.RecipientID, m.RecipientAddress, m.Subject, m.Content,
		string(m.Type), string(m.Priority), string(raw))
	created, err := scanMail(row)
	if err != nil {
		return mapError(err)
	}
	*m = *created
	return nil
}

func (r *MailRepository) list(ctx context.Context, where string, args []any, p repository.Page) ([]entity.Mail, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM mail m WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	n := len(args)
	query := mailSelect + ` FROM mail m` + mailJoins + ` WHERE ` + where +
		fmt.Sprintf(` ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.db.Query(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Mail, 0, p.Limit)
	for rows.Next() {
		m, err := scanMail(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return items, total, nil
}

func (r *MailRepository) ListByRecipient(ctx context.Context, recipientID string, f repository.MailFilter, p repository.Page) ([]entity.Mail, int64, error) {
	conds := []string{"m.recipient_id = $1"}
	args := []any{recipientID}
	if f.Type != nil {
		args = append(args, string(*f.Type))
		conds = append(conds, fmt.Sprintf("m.type = $%d", len(args)))
	}
	if f.IsRead != nil {
		args = append(args, *f.IsRead)
		conds = append(conds, fmt.Sprintf("m.is_read = $%d", len(args)))
	}
	return r.list(ctx, strings.Join(conds, " AND "), args, p)
}

func (r *MailRepository) ListBySender(ctx context.Context, senderID string, p repository.Page) ([]entity.Mail, int64, error) {
	return r.list(ctx, "m.sender_id = $1", []any{senderID}, p)
}

func (r *MailRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM mail WHERE recipient_id = $1 AND is_read = FALSE`, recipientID).Scan(&n)
	return n, mapError(err)
}

func (r *MailRepository) GetVisible(ctx context.Context, id, userID string) (*entity.Mail, error) {
	row := r.db.QueryRow(ctx, mailSelect+` FROM mail m`+mailJoins+
		` WHERE m.id = $1 AND (m.sender_id = $2 OR m.recipient_id = $2)`, id, userID)
	m, err := scanMail(row)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *MailRepository) MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*entity.Mail, error) {
	row := r.db.QueryRow(ctx, `
		WITH m AS (
			UPDATE mail SET is_read = TRUE, read_at = $3, updated_at = $3
			WHERE id = $1 AND recipient_id = $2
			RETURNING *
		)`+mailSelect+` FROM m`+mailJoins, id, recipientID, at)
	m, err := scanMail(row)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *MailRepository) DeleteForRecipient(ctx context.Context, id, recipientID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM mail WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.MailRepository = (*MailRepository)(nil)
