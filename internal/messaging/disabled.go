package messaging

import (
	"context"

	"github.com/loom-field/api/internal/services"
)

// DisabledTransport satisfies the messaging contract when outbound messaging
// is switched off. Sends are logged and dropped.
type DisabledTransport struct {
	logger func(ctx context.Context, event string, fields map[string]any)
}

var _ services.MessagingTransport = (*DisabledTransport)(nil)

// NewDisabledTransport constructs the no-op transport.
func NewDisabledTransport(logger func(ctx context.Context, event string, fields map[string]any)) *DisabledTransport {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &DisabledTransport{logger: logger}
}

// Send drops the message after logging the skip.
func (t *DisabledTransport) Send(ctx context.Context, msg services.TemplateMessage) error {
	t.logger(ctx, "messaging.disabled", map[string]any{
		"template": msg.TemplateName,
	})
	return nil
}
