package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultEnvironment  = "local"

	defaultWhatsAppBaseURL  = "https://graph.facebook.com/v19.0"
	defaultWhatsAppLanguage = "tr"
	defaultWhatsAppTimeout  = 10 * time.Second

	defaultEventTopic = "catalog-events"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Firestore   FirestoreConfig
	PubSub      PubSubConfig
	WhatsApp    WhatsAppConfig
	Features    FeatureFlags
	Environment string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig controls the catalog event publisher.
type PubSubConfig struct {
	ProjectID  string
	EventTopic string
}

// WhatsAppConfig carries messaging transport defaults. The token and phone
// number id normally live in the settings store; these values act as the
// fallback when the store has no entry.
type WhatsAppConfig struct {
	BaseURL       string
	Token         string
	PhoneNumberID string
	LanguageCode  string
	Timeout       time.Duration
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnableCatalogEvents      bool
	EnableWhatsAppMessaging  bool
	EnableStockNotifications bool
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:  stringWithDefault(lookup, "API_PUBSUB_PROJECT_ID", ""),
			EventTopic: stringWithDefault(lookup, "API_PUBSUB_EVENT_TOPIC", defaultEventTopic),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:       stringWithDefault(lookup, "API_WHATSAPP_BASE_URL", defaultWhatsAppBaseURL),
			Token:         stringWithDefault(lookup, "API_WHATSAPP_TOKEN", ""),
			PhoneNumberID: stringWithDefault(lookup, "API_WHATSAPP_PHONE_NUMBER_ID", ""),
			LanguageCode:  stringWithDefault(lookup, "API_WHATSAPP_LANGUAGE_CODE", defaultWhatsAppLanguage),
			Timeout:       durationWithDefault(lookup, "API_WHATSAPP_TIMEOUT", defaultWhatsAppTimeout),
		},
		Features: FeatureFlags{
			EnableCatalogEvents:      boolWithDefault(lookup, "API_FEATURE_CATALOG_EVENTS", true),
			EnableWhatsAppMessaging:  boolWithDefault(lookup, "API_FEATURE_WHATSAPP", true),
			EnableStockNotifications: boolWithDefault(lookup, "API_FEATURE_STOCK_NOTIFICATIONS", true),
		},
		Environment: strings.ToLower(stringWithDefault(lookup, "API_ENVIRONMENT", defaultEnvironment)),
	}

	// Pub/Sub project defaults to the Firestore project when unspecified.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}

	// The WhatsApp token may reference Secret Manager rather than hold the value inline.
	resolvedToken, err := resolveSecret(ctx, cfg.WhatsApp.Token, options.secret)
	if err != nil {
		return Config{}, err
	}
	cfg.WhatsApp.Token = resolvedToken

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// EnvironmentValues merges the dotenv file, the process environment, and any
// explicit override map into a single key/value view. Later sources win. The
// result feeds components that read raw environment keys, such as the secret
// fetcher bootstrap.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values := make(map[string]string)

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	for key, value := range dotEnvValues {
		values[key] = value
	}

	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				continue
			}
			if !strings.HasPrefix(parts[0], "API_") {
				continue
			}
			values[parts[0]] = parts[1]
		}
	}

	for key, value := range options.envMap {
		values[key] = value
	}

	return values, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" {
		return value, nil
	}
	if !isSecretReference(value) {
		return value, nil
	}
	if resolver == nil {
		normalized := normalizeSecretReference(value)
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	normalized := normalizeSecretReference(value)
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Firestore.ProjectID == "" {
		missing = append(missing, "Firestore.ProjectID")
	}
	if cfg.Features.EnableCatalogEvents && strings.TrimSpace(cfg.PubSub.EventTopic) == "" {
		missing = append(missing, "PubSub.EventTopic")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
