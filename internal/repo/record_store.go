// Record store over the partitioned document hierarchy.
//
// Layout (the persisted contract):
//
//	borrowingRecords/{YYYY-MM}                 marker document
//	borrowingRecords/{YYYY-MM}/{DD}/{id}       record document
//	borrowingRecords/{id}                      legacy flat layout
//
// The document database cannot enumerate sub-collections, only the direct
// children of a known parent, so a full listing has to be reconciled from
// whatever partition hints exist: marker documents first, a bounded
// generated month range when markers are absent, and finally the flat
// top-level layout older deployments used.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bataan-pgo/go-borrowing-backend/internal/docstore"
	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
)

// RecordsCollection is the top-level collection borrowing records live in.
const RecordsCollection = "borrowingRecords"

// defaultScanMonths bounds the brute-force partition scan when no marker
// documents exist: the last 18 calendar months ending at the current month.
const defaultScanMonths = 18

// ErrRecordNotFound is returned by Update and Delete when neither the
// partition-derived address nor the legacy flat address holds a document.
var ErrRecordNotFound = errors.New("borrowing record not found")

// RecordStore owns create/read/update/delete of borrowing records against
// the injected document store. It performs no retries; backend errors
// surface to the caller unchanged.
type RecordStore struct {
	Docs docstore.Store

	// ScanMonths overrides the generated candidate-month window used when
	// no partition markers exist. Zero means defaultScanMonths.
	ScanMonths int

	// Now is the clock used to anchor the generated month window. Nil means
	// time.Now.
	Now func() time.Time
}

// address is one way of locating a record document, tried in order.
type address struct {
	path []string
}

// Create writes rec under the partition derived from its borrow date and
// returns the storage key (the record id, since the document is addressed by
// it at creation time).
//
// Two independent writes happen: an idempotent merge-write of the year-month
// marker so the partition is discoverable by listing, then the record
// document itself. There is no transaction across the pair; a crash in
// between leaves an orphaned marker, which the listing scan tolerates.
func (s *RecordStore) Create(ctx context.Context, rec *domain.BorrowingRecord) (string, error) {
	part, err := PartitionOf(rec.BorrowDate)
	if err != nil {
		return "", err
	}

	marker := map[string]any{"yearMonth": part.YearMonth}
	if err := s.Docs.WriteDocument(ctx, marker, true, RecordsCollection, part.YearMonth); err != nil {
		return "", err
	}

	if rec.CreatedAt == "" {
		rec.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return "", err
	}
	if err := s.Docs.WriteDocument(ctx, data, false, RecordsCollection, part.YearMonth, part.Day, rec.ID); err != nil {
		return "", err
	}
	rec.StorageKey = rec.ID
	return rec.ID, nil
}

// ListAll assembles the most complete record view the reconciliation
// strategy can produce. It is read-only and idempotent.
//
// Passes, in order:
//  1. Marker-guided: list year-month marker ids; when absent, generate the
//     last ScanMonths calendar months as candidates instead.
//  2. For every candidate month, probe every day value 01..31 as a direct
//     child query, ascending. Days that months don't have simply list empty.
//  3. Only when the nested scan found nothing at all, fall back to reading
//     the top-level collection as a flat record list, keeping documents that
//     structurally resemble a borrowing record.
//
// Results are de-duplicated by storage key across passes. The returned order
// is not meaningful; callers sort for display.
func (s *RecordStore) ListAll(ctx context.Context) ([]domain.BorrowingRecord, error) {
	months, err := s.Docs.ListTopLevelChildren(ctx, RecordsCollection)
	if err != nil {
		return nil, err
	}
	if len(months) == 0 {
		months = lastMonths(s.scanMonths(), s.now())
	}
	sort.Strings(months)

	seen := make(map[string]struct{})
	var out []domain.BorrowingRecord

	for _, ym := range months {
		for day := 1; day <= 31; day++ {
			docs, err := s.Docs.ListChildren(ctx, RecordsCollection, ym, fmt.Sprintf("%02d", day))
			if err != nil {
				return nil, err
			}
			for _, doc := range docs {
				if _, dup := seen[doc.ID]; dup {
					continue
				}
				rec, err := decodeRecord(doc)
				if err != nil {
					return nil, err
				}
				seen[doc.ID] = struct{}{}
				out = append(out, rec)
			}
		}
	}

	if len(out) > 0 {
		return out, nil
	}

	// Legacy flat layout: record documents directly under the collection,
	// intermixed with partition markers. Keep only documents that carry the
	// borrower-name fields.
	flat, err := s.Docs.ListChildren(ctx, RecordsCollection)
	if err != nil {
		return nil, err
	}
	for _, doc := range flat {
		if !looksLikeRecord(doc.Data) {
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		rec, err := decodeRecord(doc)
		if err != nil {
			return nil, err
		}
		seen[doc.ID] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

// Update patches the record document addressed by storageKey. The partition
// is derived from borrowDateHint, the record's original borrow date: the
// partition never moves once a record is created, even when other fields
// change. When the partitioned address misses, the legacy flat address is
// tried; ErrRecordNotFound means both strategies missed.
func (s *RecordStore) Update(ctx context.Context, storageKey string, patch map[string]any, borrowDateHint string) error {
	addrs, err := s.addresses(storageKey, borrowDateHint)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		err := s.Docs.UpdateDocument(ctx, patch, a.path...)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		return err
	}
	return ErrRecordNotFound
}

// Delete removes the record document addressed by storageKey, trying the
// same addressing strategies as Update. Deleting a record that no longer
// exists anywhere is a no-op, not an error.
func (s *RecordStore) Delete(ctx context.Context, storageKey string, borrowDateHint string) error {
	addrs, err := s.addresses(storageKey, borrowDateHint)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		_, err := s.Docs.ReadDocument(ctx, a.path...)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		return s.Docs.DeleteDocument(ctx, a.path...)
	}
	return nil
}

// addresses returns the ordered addressing strategies for a storage key:
// the partition-derived nested path when a borrow-date hint is available,
// then the flat top-level path. An unparseable hint is a caller error.
func (s *RecordStore) addresses(storageKey, borrowDateHint string) ([]address, error) {
	var out []address
	if borrowDateHint != "" {
		part, err := PartitionOf(borrowDateHint)
		if err != nil {
			return nil, err
		}
		out = append(out, address{path: []string{RecordsCollection, part.YearMonth, part.Day, storageKey}})
	}
	out = append(out, address{path: []string{RecordsCollection, storageKey}})
	return out, nil
}

func (s *RecordStore) scanMonths() int {
	if s.ScanMonths > 0 {
		return s.ScanMonths
	}
	return defaultScanMonths
}

func (s *RecordStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// lastMonths generates the n calendar months ending at now's month, in
// ascending year-month order. Stepping happens from the first of the month
// so short months can't skip.
func lastMonths(n int, now time.Time) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, first.AddDate(0, -i, 0).Format("2006-01"))
	}
	return out
}

// looksLikeRecord reports whether a flat-layout document is structurally a
// borrowing record rather than a partition marker or stray metadata.
func looksLikeRecord(data map[string]any) bool {
	_, hasFirst := data["firstName"]
	_, hasLast := data["lastName"]
	return hasFirst && hasLast
}

// encodeRecord converts a record to its document payload. StorageKey is the
// document address, not payload, and is dropped by its json tag handling.
func encodeRecord(rec *domain.BorrowingRecord) (map[string]any, error) {
	clone := *rec
	clone.StorageKey = ""
	raw, err := json.Marshal(&clone)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// decodeRecord converts a listed document back into a record, attaching the
// document id as the storage key.
func decodeRecord(doc docstore.Document) (domain.BorrowingRecord, error) {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return domain.BorrowingRecord{}, err
	}
	var rec domain.BorrowingRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.BorrowingRecord{}, err
	}
	rec.StorageKey = doc.ID
	return rec, nil
}
