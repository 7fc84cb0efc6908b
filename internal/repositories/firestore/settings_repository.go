package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/loom-field/api/internal/domain"
	pfirestore "github.com/loom-field/api/internal/platform/firestore"
	"github.com/loom-field/api/internal/repositories"
)

const settingsCollection = "settings"

type settingDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// SettingsRepository implements repositories.SettingsRepository backed by a flat
// key-per-document Firestore collection.
type SettingsRepository struct {
	provider *pfirestore.Provider
	settings *pfirestore.BaseRepository[settingDocument]
}

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[settingDocument](provider, settingsCollection, nil, nil)
	return &SettingsRepository{
		provider: provider,
		settings: base,
	}, nil
}

// Get returns the value stored under key. Missing keys yield a zero SettingValue
// rather than an error so callers can treat unset switches as disabled.
func (r *SettingsRepository) Get(ctx context.Context, key string) (domain.SettingValue, error) {
	if r == nil || r.provider == nil {
		return domain.SettingValue{}, errors.New("settings repository not initialised")
	}
	id := strings.TrimSpace(key)
	if id == "" {
		return domain.SettingValue{}, errors.New("settings repository: key is required")
	}

	doc, err := r.settings.Get(ctx, id)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.SettingValue{}, nil
		}
		return domain.SettingValue{}, err
	}
	return domain.SettingValue{Raw: doc.Data.Value, Exists: true}, nil
}

// GetAll fetches a batch of keys in one round trip. Missing keys come back with
// Exists false.
func (r *SettingsRepository) GetAll(ctx context.Context, keys []string) (map[string]domain.SettingValue, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("settings repository not initialised")
	}

	values := make(map[string]domain.SettingValue, len(keys))
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimSpace(key)
		if id == "" {
			continue
		}
		if _, seen := values[id]; seen {
			continue
		}
		values[id] = domain.SettingValue{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return values, nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	coll := client.Collection(settingsCollection)
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, coll.Doc(id))
	}

	snapshots, err := client.GetAll(ctx, refs)
	if err != nil {
		return nil, pfirestore.WrapError("settings.getall", err)
	}
	for _, snapshot := range snapshots {
		if !snapshot.Exists() {
			continue
		}
		var doc settingDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore settings decode %s: %w", snapshot.Ref.ID, err)
		}
		values[snapshot.Ref.ID] = domain.SettingValue{Raw: doc.Value, Exists: true}
	}
	return values, nil
}

// Set writes the raw value under key, creating the document when absent.
func (r *SettingsRepository) Set(ctx context.Context, key string, raw string) error {
	if r == nil || r.provider == nil {
		return errors.New("settings repository not initialised")
	}
	id := strings.TrimSpace(key)
	if id == "" {
		return errors.New("settings repository: key is required")
	}

	_, err := r.settings.Set(ctx, id, settingDocument{
		Value:     raw,
		UpdatedAt: time.Now().UTC(),
	})
	return err
}
