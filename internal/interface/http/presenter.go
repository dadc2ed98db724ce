package handlers

import (
	"time"

	"github.com/oksasatya/galactic-postbox/internal/application"
	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
)

type addressView struct {
	Address  string `json:"address"`
	Movie    string `json:"movie"`
	IsCustom bool   `json:"isCustom"`
}

type userView struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Address   addressView `json:"address"`
	CreatedAt time.Time   `json:"createdAt"`
}

type userRefView struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Address  addressView `json:"address"`
}

type mailView struct {
	ID               string              `json:"id"`
	Sender           *userRefView        `json:"sender"`
	Recipient        *userRefView        `json:"recipient"`
	RecipientAddress string              `json:"recipientAddress"`
	Subject          string              `json:"subject"`
	Content          string              `json:"content"`
	Type             entity.MailType     `json:"type"`
	IsRead           bool                `json:"isRead"`
	ReadAt           *time.Time          `json:"readAt"`
	Priority         entity.Priority     `json:"priority"`
	Attachments      []entity.Attachment `json:"attachments"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type paginationView struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type catalogView struct {
	Address  string `json:"address"`
	Movie    string `json:"movie"`
	IsCustom bool   `json:"isCustom"`
	Taken    bool   `json:"taken"`
}

type directoryView struct {
	Address  string `json:"address"`
	Movie    string `json:"movie"`
	Username string `json:"username"`
	IsCustom bool   `json:"isCustom"`
}

func toAddressView(a entity.UserAddress) addressView {
	return addressView{Address: a.Address, Movie: a.Movie, IsCustom: a.IsCustom}
}

func toUserView(u *entity.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Address:   toAddressView(u.Address),
		CreatedAt: u.CreatedAt,
	}
}

func toUserRefView(r *entity.UserRef) *userRefView {
	if r == nil {
		return nil
	}
	return &userRefView{ID: r.ID, Username: r.Username, Address: toAddressView(r.Address)}
}

func toMailView(m *entity.Mail) mailView {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []entity.Attachment{}
	}
	return mailView{
		ID:               m.ID,
		Sender:           toUserRefView(m.Sender),
		Recipient:        toUserRefView(m.Recipient),
		RecipientAddress: m.RecipientAddress,
		Subject:          m.Subject,
		Content:          m.Content,
		Type:             m.Type,
		IsRead:           m.IsRead,
		ReadAt:           m.ReadAt,
		Priority:         m.Priority,
		Attachments:      attachments,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toMailViews(items []entity.Mail) []mailView {
	out := make([]mailView, 0, len(items))
	for i := range items {
		out = append(out, toMailView(&items[i]))
	}
	return out
}

func toPaginationView(p *application.MailPage) paginationView {
	return paginationView{Page: p.Page, Limit: p.Limit, Total: p.Total, Pages: p.Pages}
}
