package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "loom-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.PubSub.ProjectID != "loom-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.EventTopic != "catalog-events" {
		t.Errorf("unexpected default event topic: %s", cfg.PubSub.EventTopic)
	}
	if cfg.WhatsApp.BaseURL != "https://graph.facebook.com/v19.0" {
		t.Errorf("unexpected default whatsapp base url: %s", cfg.WhatsApp.BaseURL)
	}
	if cfg.WhatsApp.LanguageCode != "tr" {
		t.Errorf("unexpected default whatsapp language: %s", cfg.WhatsApp.LanguageCode)
	}
	if cfg.WhatsApp.Timeout != 10*time.Second {
		t.Errorf("unexpected default whatsapp timeout: %s", cfg.WhatsApp.Timeout)
	}
	if !cfg.Features.EnableCatalogEvents {
		t.Error("expected catalog events enabled by default")
	}
	if !cfg.Features.EnableWhatsAppMessaging {
		t.Error("expected whatsapp messaging enabled by default")
	}
	if cfg.Environment != "local" {
		t.Errorf("expected default environment local, got %s", cfg.Environment)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":              "9090",
		"API_SERVER_READ_TIMEOUT":      "20s",
		"API_SERVER_WRITE_TIMEOUT":     "25s",
		"API_SERVER_IDLE_TIMEOUT":      "2m",
		"API_FIRESTORE_PROJECT_ID":     "loom-prod",
		"API_PUBSUB_PROJECT_ID":        "loom-events",
		"API_PUBSUB_EVENT_TOPIC":       "storefront-events",
		"API_WHATSAPP_TOKEN":           "secret://whatsapp/token",
		"API_WHATSAPP_PHONE_NUMBER_ID": "5550001111",
		"API_WHATSAPP_LANGUAGE_CODE":   "en_US",
		"API_FEATURE_CATALOG_EVENTS":   "false",
		"API_FEATURE_WHATSAPP":         "true",
		"API_ENVIRONMENT":              "PROD",
	}

	secrets := map[string]string{
		"secret://whatsapp/token": "wa-token",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.PubSub.ProjectID != "loom-events" {
		t.Errorf("unexpected pubsub project %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.EventTopic != "storefront-events" {
		t.Errorf("unexpected event topic %s", cfg.PubSub.EventTopic)
	}
	if cfg.WhatsApp.Token != "wa-token" {
		t.Errorf("expected resolved whatsapp token, got %s", cfg.WhatsApp.Token)
	}
	if cfg.WhatsApp.PhoneNumberID != "5550001111" {
		t.Errorf("unexpected phone number id %s", cfg.WhatsApp.PhoneNumberID)
	}
	if cfg.WhatsApp.LanguageCode != "en_US" {
		t.Errorf("unexpected language code %s", cfg.WhatsApp.LanguageCode)
	}
	if cfg.Features.EnableCatalogEvents {
		t.Error("expected catalog events disabled")
	}
	if cfg.Environment != "prod" {
		t.Errorf("expected environment prod, got %s", cfg.Environment)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_FIRESTORE_PROJECT_ID=loom-dot\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "loom-dot" {
		t.Errorf("expected firestore project from dotenv, got %s", cfg.Firestore.ProjectID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "loom-dev",
		"API_WHATSAPP_TOKEN":       "secret://missing",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret resolution error, got nil")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "loom-dev",
		"API_WHATSAPP_TOKEN":       "sm://whatsapp/token",
	}

	secrets := map[string]string{
		"secret://whatsapp/token": "legacy-token",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errors.New("not found")}
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.WhatsApp.Token != "legacy-token" {
		t.Fatalf("expected legacy secret, got %s", cfg.WhatsApp.Token)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_FIRESTORE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("API_FIRESTORE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	overrides := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "override-project",
		"API_SECRET_VERSION_PINS":  "secret://whatsapp/token=5",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["API_FIRESTORE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["API_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["API_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
	if got := values["API_SECRET_VERSION_PINS"]; got != "secret://whatsapp/token=5" {
		t.Fatalf("expected override version pin, got %s", got)
	}
}
