package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/loom-field/api/internal/services"
)

// LogMailTransport records send intents through the structured logger instead
// of delivering mail. Deployments that run the mail worker swap in a real
// transport at wiring time.
type LogMailTransport struct {
	logger func(ctx context.Context, event string, fields map[string]any)
}

var _ services.MailTransport = (*LogMailTransport)(nil)

// NewLogMailTransport constructs the logging transport.
func NewLogMailTransport(logger func(ctx context.Context, event string, fields map[string]any)) *LogMailTransport {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &LogMailTransport{logger: logger}
}

// Send logs the delivery intent and reports success.
func (t *LogMailTransport) Send(ctx context.Context, toEmail string, templateRef string, templateContext map[string]any) error {
	if strings.TrimSpace(toEmail) == "" {
		return errors.New("mail: recipient email is required")
	}
	if strings.TrimSpace(templateRef) == "" {
		return errors.New("mail: template reference is required")
	}
	t.logger(ctx, "mail.queued", map[string]any{
		"to":       toEmail,
		"template": templateRef,
		"context":  templateContext,
	})
	return nil
}
