package entity

import "time"

// MailType distinguishes letters from postcards.
type MailType string

const (
	MailTypeLetter   MailType = "letter"
	MailTypePostcard MailType = "postcard"
)

// Valid reports whether t is a known mail type.
func (t MailType) Valid() bool {
	return t == MailTypeLetter || t == MailTypePostcard
}

// Priority of a mail item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Attachment references an uploaded object.
type Attachment struct {
	Filename string `json:"filename" binding:"required,max=255"`
	URL      string `json:"url" binding:"required,url"`
	Size     int64  `json:"size" binding:"gte=0"`
}

// UserRef is the populated sender/recipient view on a mail row.
type UserRef struct {
	ID       string
	Username string
	Address  UserAddress
}

// Mail is a letter or postcard with one sender and one recipient.
// RecipientAddress is a snapshot taken at send time and is never re-synced.
type Mail struct {
	ID               string
	SenderID         string
	RecipientID      string
	Sender           *UserRef
	Recipient        *UserRef
	RecipientAddress string
	Subject          string
	Content          string
	Type             MailType
	IsRead           bool
	ReadAt           *time.Time
	Priority         Priority
	Attachments      []Attachment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
