// Package docstore provides a small hierarchical document database: documents
// hold schemaless JSON payloads and live under slash-separated paths that
// alternate collection and document segments
// (collection/doc/subcollection/doc/...). Only the direct children of a known
// collection path can be listed; sub-collections are not enumerable, which is
// what forces the reconciliation strategy in the repo layer.
//
// The production backend is SQLite (see sqlite.go); tests use the same
// backend with an in-memory database.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by ReadDocument and UpdateDocument when no document
// exists at the given path. Callers use it to distinguish "absent" from a
// backend failure; deletes never return it.
var ErrNotFound = errors.New("document not found")

// Document is a listed child document: its id within the parent collection
// and its decoded payload.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the document-database boundary the record and settings stores are
// written against.
//
// Path conventions:
//   - a document path has an even number of segments ("borrowingRecords",
//     "2024-03", "15", "BRW001");
//   - a collection path has an odd number of segments and is what
//     ListChildren accepts.
//
// All operations honor the context and surface backend failures as
// *StoreError values wrapping the underlying error.
type Store interface {
	// ListTopLevelChildren returns the ids of the direct child documents of
	// a top-level collection, in ascending id order.
	ListTopLevelChildren(ctx context.Context, collection string) ([]string, error)

	// ListChildren returns the direct child documents of a collection path,
	// in ascending id order.
	ListChildren(ctx context.Context, path ...string) ([]Document, error)

	// ReadDocument returns the payload of the document at path, or
	// ErrNotFound.
	ReadDocument(ctx context.Context, path ...string) (map[string]any, error)

	// WriteDocument stores data at path. With merge set, existing fields not
	// present in data are preserved and the write is idempotent for a
	// missing document; without it, any existing payload is replaced.
	WriteDocument(ctx context.Context, data map[string]any, merge bool, path ...string) error

	// UpdateDocument applies patch to an existing document, returning
	// ErrNotFound when there is nothing at path to patch.
	UpdateDocument(ctx context.Context, patch map[string]any, path ...string) error

	// DeleteDocument removes the document at path. Deleting an absent
	// document is not an error.
	DeleteDocument(ctx context.Context, path ...string) error
}

// StoreError tags a backend failure with the operation that produced it. The
// underlying error is preserved for errors.Is/As and surfaced verbatim to the
// caller; nothing in this package retries.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// storeErr wraps err for op at path, passing nil through.
func storeErr(op string, path []string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Path: strings.Join(path, "/"), Err: err}
}

// splitDocPath validates a document path (even segment count, no empty
// segments) and splits it into the parent collection path and document id.
func splitDocPath(path []string) (parent, id string, err error) {
	if len(path) == 0 || len(path)%2 != 0 {
		return "", "", fmt.Errorf("invalid document path %q", strings.Join(path, "/"))
	}
	for _, seg := range path {
		if seg == "" {
			return "", "", fmt.Errorf("invalid document path %q: empty segment", strings.Join(path, "/"))
		}
	}
	return strings.Join(path[:len(path)-1], "/"), path[len(path)-1], nil
}

// collectionPath validates a collection path (odd segment count, no empty
// segments) and returns its joined form.
func collectionPath(path []string) (string, error) {
	if len(path) == 0 || len(path)%2 != 1 {
		return "", fmt.Errorf("invalid collection path %q", strings.Join(path, "/"))
	}
	for _, seg := range path {
		if seg == "" {
			return "", fmt.Errorf("invalid collection path %q: empty segment", strings.Join(path, "/"))
		}
	}
	return strings.Join(path, "/"), nil
}
