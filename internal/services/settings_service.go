package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bataan-pgo/go-borrowing-backend/internal/docstore"
	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
)

// SettingsCollection is the top-level collection holding per-key default
// settings documents.
const SettingsCollection = "defaultSettings"

// ErrSettingsNotFound reports that no settings document exists for the key.
var ErrSettingsNotFound = errors.New("settings not found")

// SettingsService is an explicit upsert-by-key store for item and location
// defaults. Documents get auto-generated ids; the logical key lives in the
// userId field, so lookups scan the collection for a matching marker rather
// than addressing by document id.
type SettingsService struct {
	Docs docstore.Store

	// Now stamps updatedAt on writes. Nil means time.Now.
	Now func() time.Time
}

// Get returns the settings stored under key, or ErrSettingsNotFound.
func (s *SettingsService) Get(ctx context.Context, key string) (*domain.Settings, error) {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("settings.key", key)),
	)
	defer span.End()

	doc, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeSettings(doc.Data)
}

// Put stores settings under key. An existing document for the key is patched
// in place; otherwise a new auto-id document is created. The stored userId
// and updatedAt fields are always overwritten by the service.
func (s *SettingsService) Put(ctx context.Context, key string, settings *domain.Settings) error {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "Put",
		trace.WithAttributes(attribute.String("settings.key", key)),
	)
	defer span.End()

	settings.UserID = key
	settings.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	data, err := encodeSettings(settings)
	if err != nil {
		return err
	}

	doc, err := s.find(ctx, key)
	switch {
	case err == nil:
		return s.Docs.UpdateDocument(ctx, data, SettingsCollection, doc.ID)
	case errors.Is(err, ErrSettingsNotFound):
		return s.Docs.WriteDocument(ctx, data, false, SettingsCollection, uuid.NewString())
	default:
		return err
	}
}

func (s *SettingsService) find(ctx context.Context, key string) (*docstore.Document, error) {
	docs, err := s.Docs.ListChildren(ctx, SettingsCollection)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if id, _ := docs[i].Data["userId"].(string); id == key {
			return &docs[i], nil
		}
	}
	return nil, ErrSettingsNotFound
}

func (s *SettingsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func encodeSettings(st *domain.Settings) (map[string]any, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeSettings(data map[string]any) (*domain.Settings, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var st domain.Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
