package mailer

// NotificationJob is the JSON payload put on the RabbitMQ queue for a
// delivery notification. Template names an embedded template set; Data
// is rendered into it.
type NotificationJob struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}
