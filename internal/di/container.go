package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loom-field/api/internal/platform/config"
	"github.com/loom-field/api/internal/repositories"
	"github.com/loom-field/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Validator  services.SubmissionValidator
	Dispatcher services.LifecycleDispatcher
	System     services.SystemService
}

// ContainerDeps carries the externally constructed collaborators the container
// wires into services. Events is optional and gated on configuration.
type ContainerDeps struct {
	Config       config.Config
	Repositories repositories.Registry
	Messaging    services.MessagingTransport
	Mail         services.MailTransport
	Events       services.CatalogEventPublisher
	Build        services.BuildInfo
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries and stub transports.
func NewContainer(ctx context.Context, deps ContainerDeps) (*Container, error) {
	if deps.Repositories == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       deps.Config,
		Repositories: deps.Repositories,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, deps ContainerDeps) (Services, error) {
	var svc Services
	reg := deps.Repositories

	unitPolicy, err := services.NewUnitPolicyResolver(services.UnitPolicyDeps{
		Units:  reg.Units(),
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build unit policy resolver: %w", err)
	}

	validator, err := services.NewSubmissionValidator(services.SubmissionValidatorDeps{
		UnitPolicy: unitPolicy,
		Logger:     deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build submission validator: %w", err)
	}
	svc.Validator = validator

	orderNotifier, err := services.NewOrderNotifier(services.OrderNotifierDeps{
		Settings:  reg.Settings(),
		Messaging: deps.Messaging,
		Mail:      deps.Mail,
		Logger:    deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order notifier: %w", err)
	}

	var stockNotifier services.StockNotifier
	if deps.Config.Features.EnableStockNotifications {
		stockNotifier, err = services.NewStockNotifier(services.StockNotifierDeps{
			Requests: reg.StockNotify(),
			Mail:     deps.Mail,
			Clock:    time.Now,
			Logger:   deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build stock notifier: %w", err)
		}
	} else {
		stockNotifier = disabledStockNotifier{logger: deps.Logger}
	}

	dispatcher, err := services.NewLifecycleDispatcher(services.LifecycleDispatcherDeps{
		Redirects: reg.Redirects(),
		Stock:     stockNotifier,
		Orders:    orderNotifier,
		Events:    deps.Events,
		Clock:     time.Now,
		Logger:    deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build lifecycle dispatcher: %w", err)
	}
	svc.Dispatcher = dispatcher

	if healthRepo := reg.Health(); healthRepo != nil {
		build := deps.Build
		if build.Environment == "" {
			build.Environment = deps.Config.Environment
		}
		if build.StartedAt.IsZero() {
			build.StartedAt = time.Now().UTC()
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

// disabledStockNotifier drops replenishment notifications when the feature is
// switched off, logging the skip so operators can see suppressed sends.
type disabledStockNotifier struct {
	logger func(ctx context.Context, event string, fields map[string]any)
}

func (n disabledStockNotifier) NotifyReplenished(ctx context.Context, product services.Product) error {
	if n.logger != nil {
		n.logger(ctx, "stock_notifications.disabled", map[string]any{
			"productId": product.ID,
		})
	}
	return nil
}
