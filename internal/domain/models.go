// Package domain defines the core data types of the borrowing tracker: the
// borrowing record with its lifecycle states, and the default-settings
// catalog. Records are persisted as schemaless documents (see the docstore
// package), so these types carry JSON tags matching the stored field names
// rather than relational column mappings.
package domain

import (
	"strings"
	"time"
)

// Borrowing record lifecycle states.
//
// StatusOverdue is special: it is almost never written to storage. A record
// stays "active" in the store and is *displayed* as overdue once its due date
// has passed (see DeriveStatus). StatusReturned is terminal.
const (
	StatusActive   = "active"
	StatusOverdue  = "overdue"
	StatusReturned = "returned"
)

// DateLayout is the calendar-date format used for borrow and due dates.
const DateLayout = "2006-01-02"

// BorrowingRecord represents one checked-out item.
//
// Fields:
//   - ID: human-readable sequential identifier ("BRW" + zero-padded number),
//     unique across the whole record set and immutable after creation.
//   - StorageKey: the document address assigned by the store at creation,
//     used for all subsequent update/delete addressing. For records created
//     by this system it equals ID; legacy flat-layout records may carry an
//     arbitrary document id here.
//   - BorrowDate / DueDate: ISO calendar dates (YYYY-MM-DD). BorrowDate is
//     immutable after creation because the storage partition is derived
//     from it.
//   - Location: one or more comma-joined location names.
//   - ReturnedAt / ReturnedBy: set exactly once, when the record reaches
//     StatusReturned.
type BorrowingRecord struct {
	ID         string `json:"id"`
	StorageKey string `json:"docId,omitempty"`
	ItemName   string `json:"itemName"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Department string `json:"department"`
	Location   string `json:"location"`
	Purpose    string `json:"purpose"`
	BorrowDate string `json:"borrowDate"`
	DueDate    string `json:"dueDate"`
	Status     string `json:"status"`
	ReturnedAt string `json:"returnedAt,omitempty"`
	ReturnedBy string `json:"returnedBy,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// BorrowerName returns the borrower's full name, used as the default value
// for ReturnedBy when the person handing the item back is not named.
func (r *BorrowingRecord) BorrowerName() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Returned reports whether the record has reached its terminal state.
func (r *BorrowingRecord) Returned() bool { return r.Status == StatusReturned }

// DeriveStatus computes the display status of a record at the given instant.
// A stored "active" record whose due date lies in the past is reported as
// overdue without rewriting the stored value; the stored status only ever
// changes through an explicit return.
//
// The due date is interpreted in now's location, consistent with how storage
// partitions are derived from calendar dates in local time.
func DeriveStatus(r *BorrowingRecord, now time.Time) string {
	if r.Status == StatusReturned {
		return StatusReturned
	}
	if r.Status == StatusOverdue {
		return StatusOverdue
	}
	due, err := time.ParseInLocation(DateLayout, r.DueDate, now.Location())
	if err != nil {
		return r.Status
	}
	if due.Before(now) {
		return StatusOverdue
	}
	return r.Status
}

// CustomItem is a catalog entry for a borrowable item. The image URL is
// optional and only used by the UI.
type CustomItem struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Settings is the per-tenant catalog of items, locations, and departments,
// plus the scalar defaults the creation form is pre-filled with. A single
// "default" tenant key is in use today.
type Settings struct {
	DefaultItemName   string       `json:"defaultItemName"`
	DefaultLocation   string       `json:"defaultLocation"`
	DefaultDepartment string       `json:"defaultDepartment"`
	CustomItems       []CustomItem `json:"customItems"`
	CustomLocations   []string     `json:"customLocations"`
	CustomDepartments []string     `json:"customDepartments"`
	UserID            string       `json:"userId,omitempty"`
	UpdatedAt         string       `json:"updatedAt,omitempty"`
}
