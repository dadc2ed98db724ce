package application

import (
	"context"
	"strings"
	"time"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/metrics"
	"github.com/oksasatya/galactic-postbox/pkg/mailer"
	mailtpl "github.com/oksasatya/galactic-postbox/pkg/mailer/templates"
)

// Publisher puts a JSON message on the notification queue.
// *helpers.RabbitPublisher implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier publishes a mail_delivered NotificationJob per delivery.
type QueueNotifier struct {
	Publisher Publisher
	AppName   string
	AppURL    string
}

func NewQueueNotifier(p Publisher, appName, appURL string) *QueueNotifier {
	return &QueueNotifier{Publisher: p, AppName: appName, AppURL: strings.TrimRight(appURL, "/")}
}

func (n *QueueNotifier) MailDelivered(ctx context.Context, m *entity.Mail, recipientEmail string) error {
	data := mailtpl.DeliveryData{
		AppName:          n.AppName,
		RecipientAddress: m.RecipientAddress,
		Subject:          m.Subject,
		Type:             string(m.Type),
		Priority:         string(m.Priority),
		MailURL:          n.AppURL + "/mail/" + m.ID,
		SentAt:           m.CreatedAt,
	}
	if m.Recipient != nil {
		data.RecipientName = m.Recipient.Username
	}
	if m.Sender != nil {
		data.SenderName = m.Sender.Username
		data.SenderAddress = m.Sender.Address.Address
	}
	job := mailer.NotificationJob{
		To:       recipientEmail,
		Template: mailtpl.MailDelivered,
		Data:     mailtpl.ToMap(data),
	}

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := n.Publisher.PublishJSON(c, job)
	metrics.RecordNotification(err)
	return err
}
