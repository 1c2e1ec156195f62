// Package repo implements the persistence layer for borrowing records on top
// of the hierarchical document store. Records are partitioned by the calendar
// date they were borrowed on: collection -> year-month document -> day
// sub-collection -> record document.
package repo

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when a date string cannot be parsed into a
// storage partition. It is a caller error and is never retried.
var ErrInvalidDate = errors.New("invalid date format")

// partitionLayouts are the accepted date-string formats, tried in order.
var partitionLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Partition is the storage address derived from a borrow date: the
// year-month document id and the day sub-collection id.
type Partition struct {
	YearMonth string // "YYYY-MM"
	Day       string // "DD"
}

// PartitionOf maps a date string to its storage partition. Plain calendar
// dates partition to the literal date; timestamps are first converted to the
// process-local time zone, so the same instant can resolve to a different
// partition on hosts in different zones. That matches the system this layout
// was inherited from and is deliberately left as-is.
func PartitionOf(dateString string) (Partition, error) {
	var t time.Time
	var err error
	for _, layout := range partitionLayouts {
		t, err = time.ParseInLocation(layout, dateString, time.Local)
		if err == nil {
			break
		}
	}
	if err != nil {
		return Partition{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateString)
	}
	t = t.In(time.Local)
	return Partition{
		YearMonth: t.Format("2006-01"),
		Day:       t.Format("02"),
	}, nil
}
