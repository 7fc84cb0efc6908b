package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/loom-field/api/internal/domain"
	"github.com/loom-field/api/internal/repositories"
)

const (
	settingNotificationsActive = "whatsapp_notifications_active"
	settingToken               = "whatsapp_token"
	settingPhoneNumberID       = "whatsapp_phone_number_id"
	settingLanguageCode        = "whatsapp_language_code"

	statusActiveKeyPrefix   = "whatsapp_order_"
	statusActiveKeySuffix   = "_active"
	statusTemplateKeyPrefix = "whatsapp_template_orders_"

	defaultLanguageCode = "tr"
)

var (
	// ErrUnknownOrderStatus signals a status outside the known enumeration was
	// offered for settings-key interpolation.
	ErrUnknownOrderStatus = errors.New("order notifier: unknown order status")
	// ErrNoRecipientPhone signals the order carries no phone on billing address
	// or customer.
	ErrNoRecipientPhone = errors.New("order notifier: no recipient phone")
)

// StatusActiveKey builds the per-status switch key, validating the status
// against the enumeration before interpolation.
func StatusActiveKey(status OrderStatus) (string, error) {
	valid, ok := domain.ParseOrderStatus(string(status))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrderStatus, status)
	}
	return statusActiveKeyPrefix + string(valid) + statusActiveKeySuffix, nil
}

// StatusTemplateKey builds the per-status template-name key, validating the
// status against the enumeration before interpolation.
func StatusTemplateKey(status OrderStatus) (string, error) {
	valid, ok := domain.ParseOrderStatus(string(status))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrderStatus, status)
	}
	return statusTemplateKeyPrefix + string(valid), nil
}

// WhatsAppCredentials carries the messaging transport credentials resolved
// from the settings store.
type WhatsAppCredentials struct {
	Token         string
	PhoneNumberID string
}

// ResolveWhatsAppCredentials reads the messaging credentials from the settings
// store. Missing keys come back empty; the transport decides whether that is
// fatal for a given send.
func ResolveWhatsAppCredentials(ctx context.Context, settings repositories.SettingsRepository) (WhatsAppCredentials, error) {
	if settings == nil {
		return WhatsAppCredentials{}, errors.New("order notifier: settings repository is required")
	}
	values, err := settings.GetAll(ctx, []string{settingToken, settingPhoneNumberID})
	if err != nil {
		return WhatsAppCredentials{}, fmt.Errorf("order notifier: read credentials: %w", err)
	}
	return WhatsAppCredentials{
		Token:         values[settingToken].String(),
		PhoneNumberID: values[settingPhoneNumberID].String(),
	}, nil
}

// OrderNotifierDeps bundles the collaborators required to construct an order
// notifier. Mail is optional; without it only the template message path runs.
type OrderNotifierDeps struct {
	Settings  repositories.SettingsRepository
	Messaging MessagingTransport
	Mail      MailTransport
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type orderNotifier struct {
	settings  repositories.SettingsRepository
	messaging MessagingTransport
	mail      MailTransport
	logger    func(context.Context, string, map[string]any)
}

// NewOrderNotifier wires dependencies into a concrete OrderNotifier.
func NewOrderNotifier(deps OrderNotifierDeps) (OrderNotifier, error) {
	if deps.Settings == nil {
		return nil, errors.New("order notifier: settings repository is required")
	}
	if deps.Messaging == nil {
		return nil, errors.New("order notifier: messaging transport is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderNotifier{
		settings:  deps.Settings,
		messaging: deps.Messaging,
		mail:      deps.Mail,
		logger:    logger,
	}, nil
}

// NotifyStatus delivers the notifications for the order's status transition:
// the status email when the customer carries an address, then the
// settings-gated template message. A disabled switch or missing template is a
// silent no-op; every other failure is returned to the caller for logging,
// never retried here.
func (n *orderNotifier) NotifyStatus(ctx context.Context, order Order, status OrderStatus) error {
	activeKey, err := StatusActiveKey(status)
	if err != nil {
		return err
	}
	templateKey, err := StatusTemplateKey(status)
	if err != nil {
		return err
	}

	if err := n.notifyEmail(ctx, order, status); err != nil {
		return err
	}

	values, err := n.settings.GetAll(ctx, []string{
		settingNotificationsActive,
		activeKey,
		templateKey,
		settingLanguageCode,
	})
	if err != nil {
		return fmt.Errorf("order notifier: read settings: %w", err)
	}

	if !values[settingNotificationsActive].Bool() {
		return nil
	}
	if !values[activeKey].Bool() {
		return nil
	}
	template := values[templateKey].String()
	if template == "" {
		return nil
	}

	recipient := ResolveRecipient(order)
	if strings.TrimSpace(recipient.Phone) == "" {
		n.logger(ctx, "order_notifier.recipient_missing", map[string]any{
			"order_id": order.ID,
			"status":   string(status),
		})
		return ErrNoRecipientPhone
	}

	language := values[settingLanguageCode].String()
	if language == "" {
		language = defaultLanguageCode
	}

	msg := TemplateMessage{
		ToPhone:      DialablePhone(recipient.Phone),
		TemplateName: template,
		LanguageCode: language,
		Parameters:   TemplateParameters(order, status),
	}

	if err := n.messaging.Send(ctx, msg); err != nil {
		return fmt.Errorf("order notifier: send template %s: %w", template, err)
	}

	n.logger(ctx, "order_notifier.sent", map[string]any{
		"order_id": order.ID,
		"status":   string(status),
		"template": template,
	})
	return nil
}

// notifyEmail renders the status email through the mail transport. A missing
// transport or an order without a customer email is a silent no-op.
func (n *orderNotifier) notifyEmail(ctx context.Context, order Order, status OrderStatus) error {
	if n.mail == nil || order.Customer == nil {
		return nil
	}
	email := strings.TrimSpace(order.Customer.Email)
	if email == "" {
		return nil
	}

	content := EmailContentFor(status)
	mailCtx := map[string]any{
		"heading":      content.Heading,
		"message":      content.Message,
		"order_number": order.Number,
		"total":        FormatTotal(order.Total),
	}
	if err := n.mail.Send(ctx, email, content.View, mailCtx); err != nil {
		return fmt.Errorf("order notifier: send mail %s: %w", content.View, err)
	}

	n.logger(ctx, "order_notifier.mail_sent", map[string]any{
		"order_id": order.ID,
		"status":   string(status),
		"view":     content.View,
	})
	return nil
}
