// Package services – BorrowingService
//
// This file implements BorrowingService, the component that owns the
// lifecycle of borrowing records: create with availability gating and
// sequential id assignment, due-date extension, return, edit, and delete.
// All mutations are validated before any I/O and applied through the record
// store's dual-addressing update path; nothing is committed to the caller's
// view until the store confirms success.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the record id where one is in play.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
	"github.com/bataan-pgo/go-borrowing-backend/internal/repo"
)

// BorrowingService coordinates record lifecycle operations over the
// partitioned record store.
type BorrowingService struct {
	Store *repo.RecordStore

	// Now is the clock used for returnedAt stamps and overdue derivation.
	// Nil means time.Now.
	Now func() time.Time
}

// CreateBorrowingInput carries the fields of a new borrowing. All fields are
// required; BorrowDate and DueDate are ISO calendar dates.
type CreateBorrowingInput struct {
	ItemName   string
	FirstName  string
	LastName   string
	Department string
	Location   string
	Purpose    string
	BorrowDate string
	DueDate    string
}

// EditBorrowingInput carries the editable fields of an existing borrowing.
// The borrow date is deliberately absent: the storage partition is derived
// from it and never moves.
type EditBorrowingInput struct {
	ItemName   string
	FirstName  string
	LastName   string
	Department string
	Location   string
	Purpose    string
	DueDate    string
}

// Stats summarizes the record set for the dashboard, with overdue derived
// from due dates at call time.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Overdue  int `json:"overdue"`
	Returned int `json:"returned"`
}

// List returns every discoverable record, most recent first. Ordering is
// applied here because the store's reconciliation scan makes no ordering
// promise.
func (s *BorrowingService) List(ctx context.Context) ([]domain.BorrowingRecord, error) {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	records, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Stats counts records per display status.
func (s *BorrowingService) Stats(ctx context.Context) (Stats, error) {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	records, err := s.Store.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	now := s.now()
	st := Stats{Total: len(records)}
	for i := range records {
		switch domain.DeriveStatus(&records[i], now) {
		case domain.StatusReturned:
			st.Returned++
		case domain.StatusOverdue:
			st.Overdue++
		default:
			st.Active++
		}
	}
	return st, nil
}

// Create validates the input, checks availability, assigns the next
// sequential id, and persists the record with status active.
func (s *BorrowingService) Create(ctx context.Context, in CreateBorrowingInput) (*domain.BorrowingRecord, error) {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("item.name", in.ItemName)),
	)
	defer span.End()

	if err := validateFields(map[string]string{
		"itemName":   in.ItemName,
		"firstName":  in.FirstName,
		"lastName":   in.LastName,
		"department": in.Department,
		"location":   in.Location,
		"purpose":    in.Purpose,
	}); err != nil {
		return nil, err
	}
	borrow, err := parseDateField("borrowDate", in.BorrowDate)
	if err != nil {
		return nil, err
	}
	due, err := parseDateField("dueDate", in.DueDate)
	if err != nil {
		return nil, err
	}
	if !due.After(borrow) {
		return nil, invalid("dueDate", "due date must be after borrow date")
	}

	// Availability and the next id both derive from the full current record
	// view; one reconciliation pass serves both.
	records, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if !IsAvailable(records, in.ItemName, in.BorrowDate, "") {
		return nil, invalid("itemName", "item is already borrowed on this date")
	}

	rec := &domain.BorrowingRecord{
		ID:         NextRecordID(records),
		ItemName:   strings.TrimSpace(in.ItemName),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Department: strings.TrimSpace(in.Department),
		Location:   strings.TrimSpace(in.Location),
		Purpose:    strings.TrimSpace(in.Purpose),
		BorrowDate: strings.TrimSpace(in.BorrowDate),
		DueDate:    strings.TrimSpace(in.DueDate),
		Status:     domain.StatusActive,
	}
	if _, err := s.Store.Create(ctx, rec); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("record.id", rec.ID))
	return rec, nil
}

// Return marks the record as returned, stamping returnedAt and returnedBy.
// An empty returnedBy defaults to the borrower's full name. Returned is
// terminal: returning twice fails with ErrRecordReturned.
func (s *BorrowingService) Return(ctx context.Context, id, returnedBy string) (*domain.BorrowingRecord, error) {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "Return",
		trace.WithAttributes(attribute.String("record.id", id)),
	)
	defer span.End()

	rec, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Returned() {
		return nil, ErrRecordReturned
	}

	returnedBy = strings.TrimSpace(returnedBy)
	if returnedBy == "" {
		returnedBy = rec.BorrowerName()
	}
	returnedAt := s.now().Format(time.RFC3339)

	patch := map[string]any{
		"status":     domain.StatusReturned,
		"returnedAt": returnedAt,
		"returnedBy": returnedBy,
	}
	if err := s.applyPatch(ctx, rec, patch); err != nil {
		return nil, err
	}
	rec.Status = domain.StatusReturned
	rec.ReturnedAt = returnedAt
	rec.ReturnedBy = returnedBy
	return rec, nil
}

// Extend moves the due date forward. The new due date must be strictly
// after the *current* due date, not the borrow date; an extension that
// shortens or keeps the period fails validation.
func (s *BorrowingService) Extend(ctx context.Context, id, newDueDate string) (*domain.BorrowingRecord, error) {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "Extend",
		trace.WithAttributes(attribute.String("record.id", id)),
	)
	defer span.End()

	rec, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Returned() {
		return nil, ErrRecordReturned
	}

	newDue, err := parseDateField("dueDate", newDueDate)
	if err != nil {
		return nil, err
	}
	current, err := parseDateField("dueDate", rec.DueDate)
	if err != nil {
		return nil, err
	}
	if !newDue.After(current) {
		return nil, invalid("dueDate", "new due date must be after the current due date")
	}

	newDueDate = strings.TrimSpace(newDueDate)
	if err := s.applyPatch(ctx, rec, map[string]any{"dueDate": newDueDate}); err != nil {
		return nil, err
	}
	// Stored status is untouched: an overdue-looking record becomes current
	// again purely through derivation once the new due date is ahead.
	rec.DueDate = newDueDate
	return rec, nil
}

// Edit updates the descriptive fields and due date of an unreturned record.
// The due date is re-validated against the record's original, unchanged
// borrow date.
func (s *BorrowingService) Edit(ctx context.Context, id string, in EditBorrowingInput) (*domain.BorrowingRecord, error) {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "Edit",
		trace.WithAttributes(attribute.String("record.id", id)),
	)
	defer span.End()

	rec, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Returned() {
		return nil, ErrRecordReturned
	}

	if err := validateFields(map[string]string{
		"itemName":   in.ItemName,
		"firstName":  in.FirstName,
		"lastName":   in.LastName,
		"department": in.Department,
		"location":   in.Location,
		"purpose":    in.Purpose,
	}); err != nil {
		return nil, err
	}
	due, err := parseDateField("dueDate", in.DueDate)
	if err != nil {
		return nil, err
	}
	borrow, err := parseDateField("borrowDate", rec.BorrowDate)
	if err != nil {
		return nil, err
	}
	if !due.After(borrow) {
		return nil, invalid("dueDate", "due date must be after borrow date")
	}

	patch := map[string]any{
		"itemName":   strings.TrimSpace(in.ItemName),
		"firstName":  strings.TrimSpace(in.FirstName),
		"lastName":   strings.TrimSpace(in.LastName),
		"department": strings.TrimSpace(in.Department),
		"location":   strings.TrimSpace(in.Location),
		"purpose":    strings.TrimSpace(in.Purpose),
		"dueDate":    strings.TrimSpace(in.DueDate),
	}
	if err := s.applyPatch(ctx, rec, patch); err != nil {
		return nil, err
	}
	rec.ItemName = patch["itemName"].(string)
	rec.FirstName = patch["firstName"].(string)
	rec.LastName = patch["lastName"].(string)
	rec.Department = patch["department"].(string)
	rec.Location = patch["location"].(string)
	rec.Purpose = patch["purpose"].(string)
	rec.DueDate = patch["dueDate"].(string)
	return rec, nil
}

// Delete removes the record unconditionally, regardless of status. It is
// not reversible.
func (s *BorrowingService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/BorrowingService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("record.id", id)),
	)
	defer span.End()

	rec, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	return s.Store.Delete(ctx, rec.StorageKey, rec.BorrowDate)
}

// findByID resolves a record id against the reconciled record view.
func (s *BorrowingService) findByID(ctx context.Context, id string) (*domain.BorrowingRecord, error) {
	records, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, ErrRecordNotFound
}

// applyPatch routes a field patch through the store's dual addressing, using
// the record's original borrow date as the partition hint.
func (s *BorrowingService) applyPatch(ctx context.Context, rec *domain.BorrowingRecord, patch map[string]any) error {
	err := s.Store.Update(ctx, rec.StorageKey, patch, rec.BorrowDate)
	if errors.Is(err, repo.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func (s *BorrowingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// validateFields checks required string fields, reporting the first empty
// one in a stable order.
func validateFields(fields map[string]string) error {
	order := []string{"itemName", "firstName", "lastName", "department", "location", "purpose"}
	for _, name := range order {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			return invalid(name, name+" is required")
		}
	}
	return nil
}

// parseDateField parses an ISO calendar date, reporting failures against the
// given field name.
func parseDateField(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, invalid(field, "must be a valid date (YYYY-MM-DD)")
	}
	return t, nil
}
