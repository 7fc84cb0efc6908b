package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/loom-field/api/internal/services"
)

const (
	defaultBaseURL    = "https://graph.facebook.com/v19.0"
	defaultTimeout    = 10 * time.Second
	defaultRetryCount = 2
)

// ErrMissingCredentials signals the WhatsApp token or phone number id could
// not be resolved. Callers treat it as a warning, not a fatal error.
var ErrMissingCredentials = errors.New("whatsapp: missing credentials")

// CredentialSource resolves the token and phone number id at send time so
// rotated settings take effect without a restart.
type CredentialSource func(ctx context.Context) (services.WhatsAppCredentials, error)

// StaticCredentials adapts fixed credentials into a CredentialSource.
func StaticCredentials(creds services.WhatsAppCredentials) CredentialSource {
	return func(context.Context) (services.WhatsAppCredentials, error) {
		return creds, nil
	}
}

// WhatsAppClientDeps bundles the collaborators required to construct a
// WhatsApp Cloud API client.
type WhatsAppClientDeps struct {
	Credentials CredentialSource
	BaseURL     string
	Timeout     time.Duration
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// WhatsAppClient sends template messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	http        *resty.Client
	credentials CredentialSource
	logger      func(context.Context, string, map[string]any)
}

var _ services.MessagingTransport = (*WhatsAppClient)(nil)

// NewWhatsAppClient constructs the Cloud API client.
func NewWhatsAppClient(deps WhatsAppClientDeps) (*WhatsAppClient, error) {
	if deps.Credentials == nil {
		return nil, errors.New("whatsapp: credential source is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(defaultRetryCount)

	return &WhatsAppClient{
		http:        http,
		credentials: deps.Credentials,
		logger:      logger,
	}, nil
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templatePayload struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type sendRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers one template message. Missing credentials surface as
// ErrMissingCredentials so the caller can log a warning instead of an error.
func (c *WhatsAppClient) Send(ctx context.Context, msg services.TemplateMessage) error {
	creds, err := c.credentials(ctx)
	if err != nil {
		return fmt.Errorf("whatsapp: resolve credentials: %w", err)
	}
	if strings.TrimSpace(creds.Token) == "" || strings.TrimSpace(creds.PhoneNumberID) == "" {
		return ErrMissingCredentials
	}
	if strings.TrimSpace(msg.ToPhone) == "" {
		return errors.New("whatsapp: recipient phone is required")
	}
	if strings.TrimSpace(msg.TemplateName) == "" {
		return errors.New("whatsapp: template name is required")
	}

	payload := sendRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimSpace(msg.ToPhone),
		Type:             "template",
		Template: templatePayload{
			Name:     msg.TemplateName,
			Language: templateLanguage{Code: msg.LanguageCode},
		},
	}
	if len(msg.Parameters) > 0 {
		parameters := make([]templateParameter, 0, len(msg.Parameters))
		for _, text := range msg.Parameters {
			parameters = append(parameters, templateParameter{Type: "text", Text: text})
		}
		payload.Template.Components = []templateComponent{
			{Type: "body", Parameters: parameters},
		}
	}

	var result sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+creds.Token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&result).
		SetError(&result).
		Post("/" + creds.PhoneNumberID + "/messages")
	if err != nil {
		return fmt.Errorf("whatsapp: send template %s: %w", msg.TemplateName, err)
	}
	if resp.IsError() {
		detail := resp.String()
		if result.Error != nil {
			detail = fmt.Sprintf("code %d: %s", result.Error.Code, result.Error.Message)
		}
		return fmt.Errorf("whatsapp: send template %s failed (status %d): %s", msg.TemplateName, resp.StatusCode(), detail)
	}

	messageID := ""
	if len(result.Messages) > 0 {
		messageID = result.Messages[0].ID
	}
	c.logger(ctx, "whatsapp.sent", map[string]any{
		"template":   msg.TemplateName,
		"message_id": messageID,
	})
	return nil
}
