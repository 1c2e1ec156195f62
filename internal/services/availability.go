package services

import (
	"strings"
	"time"

	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
)

// IsAvailable reports whether itemName can be borrowed on borrowDate given
// the current record set. An item is taken when any *other* record for the
// same item has the same calendar borrow date and has not been returned.
// excludeID carries the id of the record being edited so it does not block
// itself; pass "" when creating.
//
// This is a validation-time gate only: the record store itself does not
// reject a conflicting write.
func IsAvailable(records []domain.BorrowingRecord, itemName, borrowDate, excludeID string) bool {
	target := dateOnly(borrowDate)
	for i := range records {
		r := &records[i]
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(r.ItemName), strings.TrimSpace(itemName)) {
			continue
		}
		if r.Returned() {
			continue
		}
		if dateOnly(r.BorrowDate) == target {
			return false
		}
	}
	return true
}

// UnavailableItems returns the item names that cannot be borrowed on the
// given date. The creation form recomputes this set whenever the chosen
// date changes.
func UnavailableItems(records []domain.BorrowingRecord, borrowDate string) []string {
	target := dateOnly(borrowDate)
	seen := make(map[string]struct{})
	var out []string
	for i := range records {
		r := &records[i]
		if r.Returned() || dateOnly(r.BorrowDate) != target {
			continue
		}
		name := strings.TrimSpace(r.ItemName)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// dateOnly reduces a date string to its calendar-date portion so that plain
// dates and full timestamps compare equal on the same day.
func dateOnly(s string) string {
	for _, layout := range []string{domain.DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.In(time.Local).Format(domain.DateLayout)
		}
	}
	return s
}
