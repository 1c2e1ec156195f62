package services

import (
	"testing"

	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
)

func recsWithIDs(ids ...string) []domain.BorrowingRecord {
	out := make([]domain.BorrowingRecord, len(ids))
	for i, id := range ids {
		out[i] = domain.BorrowingRecord{ID: id}
	}
	return out
}

func TestNextRecordID_Empty(t *testing.T) {
	if got := NextRecordID(nil); got != "BRW001" {
		t.Fatalf("got %q, want BRW001", got)
	}
}

func TestNextRecordID_UsesMaxNotCount(t *testing.T) {
	// A partial reload may only surface a late record; the next id must
	// still clear it.
	got := NextRecordID(recsWithIDs("BRW042"))
	if got != "BRW043" {
		t.Fatalf("got %q, want BRW043", got)
	}
}

func TestNextRecordID_IgnoresForeignIDs(t *testing.T) {
	got := NextRecordID(recsWithIDs("BRW002", "legacy-doc", "XYZ9", ""))
	if got != "BRW003" {
		t.Fatalf("got %q, want BRW003", got)
	}
}

func TestNextRecordID_DuplicatesDoNotBreak(t *testing.T) {
	got := NextRecordID(recsWithIDs("BRW005", "BRW005", "BRW001"))
	if got != "BRW006" {
		t.Fatalf("got %q, want BRW006", got)
	}
}

func TestNextRecordID_GrowsPastPadding(t *testing.T) {
	got := NextRecordID(recsWithIDs("BRW999"))
	if got != "BRW1000" {
		t.Fatalf("got %q, want BRW1000", got)
	}
}

func TestNextRecordID_Monotonic(t *testing.T) {
	recs := recsWithIDs("BRW001", "BRW007", "BRW003")
	first := NextRecordID(recs)
	recs = append(recs, domain.BorrowingRecord{ID: first})
	second := NextRecordID(recs)
	if first != "BRW008" || second != "BRW009" {
		t.Fatalf("sequence = %q, %q; want BRW008, BRW009", first, second)
	}
}
