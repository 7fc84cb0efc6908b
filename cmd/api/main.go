package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/loom-field/api/internal/di"
	"github.com/loom-field/api/internal/handlers"
	"github.com/loom-field/api/internal/messaging"
	"github.com/loom-field/api/internal/platform/config"
	pfirestore "github.com/loom-field/api/internal/platform/firestore"
	"github.com/loom-field/api/internal/platform/idempotency"
	"github.com/loom-field/api/internal/platform/jobs"
	"github.com/loom-field/api/internal/platform/observability"
	"github.com/loom-field/api/internal/platform/secrets"
	"github.com/loom-field/api/internal/repositories"
	firestoreRepo "github.com/loom-field/api/internal/repositories/firestore"
	"github.com/loom-field/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
	)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var (
		eventPublisher services.CatalogEventPublisher
		eventTopic     *pubsub.Topic
	)
	if cfg.Features.EnableCatalogEvents {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		eventTopic = pubsubClient.Topic(cfg.PubSub.EventTopic)
		eventPublisher, err = jobs.NewPubSubEventPublisher(eventTopic)
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
	}

	healthRepo, err := newHealthRepository(firestoreClient, eventTopic, fetcher)
	if err != nil {
		logger.Warn("health: dependency checks unavailable", zap.Error(err))
	}

	registry, err := firestoreRepo.NewRegistry(firestoreRepo.RegistryDeps{
		Provider: firestoreProvider,
		Health:   healthRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise repository registry", zap.Error(err))
	}

	messagingTransport := newMessagingTransport(logger, cfg, registry)
	mailTransport := messaging.NewLogMailTransport(zapEventLogger(logger.Named("mail")))

	container, err := di.NewContainer(ctx, di.ContainerDeps{
		Config:       cfg,
		Repositories: registry,
		Messaging:    messagingTransport,
		Mail:         mailTransport,
		Events:       eventPublisher,
		Build:        buildInfo,
		Logger:       zapEventLogger(logger.Named("services")),
	})
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	cleanupTicker := time.NewTicker(10 * time.Minute)
	cleanupWG.Add(1)
	go func() {
		defer cleanupWG.Done()
		cleanupLogger := logger.Named("idempotency")
		for {
			select {
			case <-cleanupTicker.C:
				runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
				removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), 200)
				cancel()
				if err != nil {
					cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
					continue
				}
				if removed > 0 {
					cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(container.Services.System),
	)
	catalogHandlers := handlers.NewCatalogHandlers(container.Services.Validator)
	transitionHandlers := handlers.NewTransitionHandlers(container.Services.Dispatcher)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAdminRoutes(catalogHandlers.Routes),
		handlers.WithInternalRoutes(transitionHandlers.Routes),
		handlers.WithInternalMiddlewares(idempotencyMiddleware),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("loom-field api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	cleanupTicker.Stop()
	cleanupCancel()
	cleanupWG.Wait()

	if eventTopic != nil {
		eventTopic.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := container.Close(closeCtx); err != nil {
		logger.Warn("container close error", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

// newMessagingTransport builds the WhatsApp Cloud API client using credentials
// read from the settings store at send time, falling back to the static
// configuration. When messaging is disabled every send becomes a logged no-op.
func newMessagingTransport(logger *zap.Logger, cfg config.Config, registry repositories.Registry) services.MessagingTransport {
	messagingLogger := logger.Named("whatsapp")
	if !cfg.Features.EnableWhatsAppMessaging {
		return messaging.NewDisabledTransport(zapEventLogger(messagingLogger))
	}

	settings := registry.Settings()
	credentials := messaging.CredentialSource(func(ctx context.Context) (services.WhatsAppCredentials, error) {
		creds, err := services.ResolveWhatsAppCredentials(ctx, settings)
		if err != nil {
			return services.WhatsAppCredentials{}, err
		}
		if strings.TrimSpace(creds.Token) == "" {
			creds.Token = cfg.WhatsApp.Token
		}
		if strings.TrimSpace(creds.PhoneNumberID) == "" {
			creds.PhoneNumberID = cfg.WhatsApp.PhoneNumberID
		}
		return creds, nil
	})

	client, err := messaging.NewWhatsAppClient(messaging.WhatsAppClientDeps{
		Credentials: credentials,
		BaseURL:     cfg.WhatsApp.BaseURL,
		Timeout:     cfg.WhatsApp.Timeout,
		Logger:      zapEventLogger(messagingLogger),
	})
	if err != nil {
		messagingLogger.Warn("whatsapp client init failed; messaging disabled", zap.Error(err))
		return messaging.NewDisabledTransport(zapEventLogger(messagingLogger))
	}
	return client
}

func newHealthRepository(client *firestore.Client, topic *pubsub.Topic, fetcher *secrets.Fetcher) (repositories.HealthRepository, error) {
	checks := make([]repositories.DependencyCheck, 0, 3)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				_, err := t.Exists(ctx)
				return err
			},
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secretManager",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	return repositories.NewDependencyHealthRepository(checks)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		if value, ok := env[key]; ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_GOOGLE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}

func zapEventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service event", zFields...)
	}
}
