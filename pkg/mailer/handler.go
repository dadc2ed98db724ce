package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/galactic-postbox/pkg/mailer/templates"
)

// ErrMalformedJob marks a job that can never succeed and must not be requeued.
var ErrMalformedJob = errors.New("malformed notification job")

// Handle decodes one queue message, renders it and sends it. Errors wrapping
// ErrMalformedJob should be dropped; any other error is retryable.
func Handle(ctx context.Context, sender Sender, body []byte) error {
	var job NotificationJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrMalformedJob)
	}
	if !mailtpl.Known(job.Template) {
		return fmt.Errorf("%w: unknown template %q", ErrMalformedJob, job.Template)
	}

	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrMalformedJob, err)
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sender.Send(c, job.To, strings.TrimSpace(subject), text, html); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
