package services

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	domain "github.com/loom-field/api/internal/domain"
)

const (
	// placeholderRecipient is used when neither billing address nor customer
	// carries a display name.
	placeholderRecipient = "Customer"
	// placeholderMissing stands in for absent carrier or tracking values in
	// shipped-status messages.
	placeholderMissing = "-"

	currencySuffix = " TL"
)

var totalPrinter = message.NewPrinter(language.Turkish)

// EmailContent is the view/heading/message triple the back-in-stock and order
// mail templates render.
type EmailContent struct {
	View    string
	Heading string
	Message string
}

var orderEmailContent = map[OrderStatus]EmailContent{
	domain.OrderStatusPending:    {View: "emails.order-placed", Heading: "Order received", Message: "We have received your order."},
	domain.OrderStatusProcessing: {View: "emails.order-processing", Heading: "Order confirmed", Message: "Your order is being prepared."},
	domain.OrderStatusShipped:    {View: "emails.order-shipped", Heading: "Order shipped", Message: "Your order is on its way."},
	domain.OrderStatusDelivered:  {View: "emails.order-delivered", Heading: "Order delivered", Message: "Your order has been delivered."},
	domain.OrderStatusCancelled:  {View: "emails.order-cancelled", Heading: "Order cancelled", Message: "Your order has been cancelled."},
	domain.OrderStatusRefunded:   {View: "emails.order-refunded", Heading: "Order refunded", Message: "Your order has been refunded."},
}

var defaultEmailContent = EmailContent{
	View:    "emails.order-updated",
	Heading: "Order update",
	Message: "There is an update on your order.",
}

// EmailContentFor selects the email view/heading/message for a status, falling
// back to a generic update entry for unrecognized statuses.
func EmailContentFor(status OrderStatus) EmailContent {
	if content, ok := orderEmailContent[status]; ok {
		return content
	}
	return defaultEmailContent
}

// Recipient is the resolved destination of an order notification.
type Recipient struct {
	Name  string
	Phone string
}

// ResolveRecipient picks the notification target from the order: billing
// address first, then customer, with a generic display-name fallback. The
// phone keeps its leading `+`/`00`; DialablePhone strips it for dispatch.
func ResolveRecipient(order Order) Recipient {
	recipient := Recipient{Name: placeholderRecipient}

	if order.Billing != nil && strings.TrimSpace(order.Billing.Phone) != "" {
		recipient.Phone = strings.TrimSpace(order.Billing.Phone)
		if name := strings.TrimSpace(order.Billing.Name); name != "" {
			recipient.Name = name
		}
		return recipient
	}

	if order.Customer != nil {
		recipient.Phone = strings.TrimSpace(order.Customer.Phone)
		if name := strings.TrimSpace(order.Customer.Name); name != "" {
			recipient.Name = name
		}
	}
	return recipient
}

// DialablePhone strips a single leading `+` or `00` prefix so the messaging
// transport receives the bare country-code form.
func DialablePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if strings.HasPrefix(trimmed, "+") {
		return trimmed[1:]
	}
	if strings.HasPrefix(trimmed, "00") {
		return trimmed[2:]
	}
	return trimmed
}

// TemplateParameters builds the ordered parameter list for the status template.
// Shipped orders carry carrier and tracking details; every other status carries
// the formatted order total.
func TemplateParameters(order Order, status OrderStatus) []string {
	recipient := ResolveRecipient(order)

	if status == domain.OrderStatusShipped {
		carrier := strings.TrimSpace(order.Carrier)
		if carrier == "" {
			carrier = placeholderMissing
		}
		tracking := strings.TrimSpace(order.TrackingNumber)
		if tracking == "" {
			tracking = placeholderMissing
		}
		return []string{recipient.Name, order.Number, carrier, tracking}
	}

	return []string{recipient.Name, order.Number, FormatTotal(order.Total)}
}

// FormatTotal renders an amount with Turkish digit grouping (dot thousands,
// comma decimals) and the fixed currency suffix, e.g. "1.234,56 TL".
func FormatTotal(total string) string {
	value, err := strconv.ParseFloat(strings.TrimSpace(total), 64)
	if err != nil {
		return strings.TrimSpace(total) + currencySuffix
	}
	formatted := totalPrinter.Sprint(number.Decimal(value,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
	return formatted + currencySuffix
}
