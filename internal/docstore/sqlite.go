// SQLite-backed Store implementation. Documents are rows in a single table
// keyed by (parent collection path, document id) with the payload serialized
// as JSON. Row-level upserts give the per-document atomicity the Store
// contract promises; there is no cross-document transaction support, by
// contract.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"
)

// documentRow is the persistence shape of one document.
type documentRow struct {
	Parent    string `gorm:"type:varchar(255);not null;primaryKey"`
	DocID     string `gorm:"type:varchar(128);not null;primaryKey"`
	Data      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name for documentRow.
func (documentRow) TableName() string { return "documents" }

// SQLStore implements Store on top of a GORM SQLite handle. It is safe for
// concurrent use to the extent the underlying pool is.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore wraps an already-open GORM handle.
func NewSQLStore(db *gorm.DB) *SQLStore { return &SQLStore{db: db} }

// OpenSQLite opens (or creates) the SQLite database backing the document
// store, applies PRAGMAs and pool settings, and installs the OpenTelemetry
// GORM plugin so document I/O shows up in traces.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early when the parent directory is missing instead of surfacing
	// sqlite's opaque "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates the documents table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&documentRow{})
}

// ListTopLevelChildren implements Store.
func (s *SQLStore) ListTopLevelChildren(ctx context.Context, collection string) ([]string, error) {
	parent, err := collectionPath([]string{collection})
	if err != nil {
		return nil, storeErr("list", []string{collection}, err)
	}
	var ids []string
	err = s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("parent = ?", parent).
		Order("doc_id ASC").
		Pluck("doc_id", &ids).Error
	if err != nil {
		return nil, storeErr("list", []string{collection}, err)
	}
	return ids, nil
}

// ListChildren implements Store.
func (s *SQLStore) ListChildren(ctx context.Context, path ...string) ([]Document, error) {
	parent, err := collectionPath(path)
	if err != nil {
		return nil, storeErr("list", path, err)
	}
	var rows []documentRow
	if err := s.db.WithContext(ctx).
		Where("parent = ?", parent).
		Order("doc_id ASC").
		Find(&rows).Error; err != nil {
		return nil, storeErr("list", path, err)
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		data, err := decodePayload(row.Data)
		if err != nil {
			return nil, storeErr("list", path, err)
		}
		out = append(out, Document{ID: row.DocID, Data: data})
	}
	return out, nil
}

// ReadDocument implements Store.
func (s *SQLStore) ReadDocument(ctx context.Context, path ...string) (map[string]any, error) {
	parent, id, err := splitDocPath(path)
	if err != nil {
		return nil, storeErr("read", path, err)
	}
	var row documentRow
	err = s.db.WithContext(ctx).
		Where("parent = ? AND doc_id = ?", parent, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("read", path, err)
	}
	data, err := decodePayload(row.Data)
	if err != nil {
		return nil, storeErr("read", path, err)
	}
	return data, nil
}

// WriteDocument implements Store.
func (s *SQLStore) WriteDocument(ctx context.Context, data map[string]any, merge bool, path ...string) error {
	parent, id, err := splitDocPath(path)
	if err != nil {
		return storeErr("write", path, err)
	}

	if merge {
		existing, err := s.ReadDocument(ctx, path...)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			for k, v := range data {
				existing[k] = v
			}
			data = existing
		}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return storeErr("write", path, err)
	}
	row := documentRow{Parent: parent, DocID: id, Data: string(payload)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "parent"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	return storeErr("write", path, err)
}

// UpdateDocument implements Store.
func (s *SQLStore) UpdateDocument(ctx context.Context, patch map[string]any, path ...string) error {
	existing, err := s.ReadDocument(ctx, path...)
	if err != nil {
		return err
	}
	for k, v := range patch {
		existing[k] = v
	}
	return s.WriteDocument(ctx, existing, false, path...)
}

// DeleteDocument implements Store.
func (s *SQLStore) DeleteDocument(ctx context.Context, path ...string) error {
	parent, id, err := splitDocPath(path)
	if err != nil {
		return storeErr("delete", path, err)
	}
	err = s.db.WithContext(ctx).
		Where("parent = ? AND doc_id = ?", parent, id).
		Delete(&documentRow{}).Error
	return storeErr("delete", path, err)
}

// decodePayload unmarshals a stored JSON payload.
func decodePayload(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}
