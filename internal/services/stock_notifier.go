package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loom-field/api/internal/repositories"
)

const backInStockTemplate = "emails.back-in-stock"

// StockNotifierDeps bundles the collaborators required to construct a stock notifier.
type StockNotifierDeps struct {
	Requests repositories.StockNotifyRepository
	Mail     MailTransport
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type stockNotifier struct {
	requests repositories.StockNotifyRepository
	mail     MailTransport
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewStockNotifier wires dependencies into a concrete StockNotifier.
func NewStockNotifier(deps StockNotifierDeps) (StockNotifier, error) {
	if deps.Requests == nil {
		return nil, errors.New("stock notifier: stock notify repository is required")
	}
	if deps.Mail == nil {
		return nil, errors.New("stock notifier: mail transport is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &stockNotifier{
		requests: deps.Requests,
		mail:     deps.Mail,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// NotifyReplenished emails every address with a pending non-variant-scoped
// request for the product. Requests sharing an email receive one mail; each
// request is marked sent only after that mail succeeds. A failed group is
// logged and skipped, never aborting the remaining groups.
func (s *stockNotifier) NotifyReplenished(ctx context.Context, product Product) error {
	pending, err := s.requests.FindPending(ctx, product.ID, nil)
	if err != nil {
		return fmt.Errorf("stock notifier: find pending for %s: %w", product.ID, err)
	}

	groups := make(map[string][]StockNotifyRequest)
	for _, request := range pending {
		if request.VariantID != nil && strings.TrimSpace(*request.VariantID) != "" {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(request.Email))
		if email == "" {
			continue
		}
		groups[email] = append(groups[email], request)
	}

	emails := make([]string, 0, len(groups))
	for email := range groups {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	for _, email := range emails {
		mailCtx := map[string]any{
			"product_id":   product.ID,
			"product_name": product.Name,
			"product_slug": product.Slug,
		}
		if err := s.mail.Send(ctx, email, backInStockTemplate, mailCtx); err != nil {
			s.logger(ctx, "stock_notifier.send_failed", map[string]any{
				"product_id": product.ID,
				"email":      email,
				"error":      err.Error(),
			})
			continue
		}

		sentAt := s.clock()
		for _, request := range groups[email] {
			if err := s.requests.MarkSent(ctx, request.ID, sentAt); err != nil {
				if errors.Is(err, repositories.ErrNotifyAlreadySent) {
					continue
				}
				s.logger(ctx, "stock_notifier.mark_failed", map[string]any{
					"product_id": product.ID,
					"request_id": request.ID,
					"email":      email,
					"error":      err.Error(),
				})
			}
		}
	}
	return nil
}
