package services

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
)

// recordIDPattern matches the sequential record id format: "BRW" followed by
// a zero-padded number.
var recordIDPattern = regexp.MustCompile(`^BRW(\d+)$`)

// NextRecordID derives the next sequential record id from the current record
// set: one past the maximum numeric suffix found, zero-padded to three
// digits.
//
// The record *count* is deliberately not used. After a reload the in-memory
// set can be a partial view of partitioned storage, and a count-based id
// would silently overwrite an existing document at the same address. Taking
// the max of what is visible can at worst skip numbers, never reuse one that
// is present. Non-matching ids are ignored; duplicates collapse into the
// same max.
func NextRecordID(records []domain.BorrowingRecord) string {
	max := 0
	for _, r := range records {
		m := recordIDPattern.FindStringSubmatch(r.ID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("BRW%03d", max+1)
}
