package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bataan-pgo/go-borrowing-backend/internal/docstore"
	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
	"github.com/bataan-pgo/go-borrowing-backend/internal/repo"
)

var fixedNow = time.Date(2024, 3, 16, 10, 0, 0, 0, time.Local)

func newBorrowingService(t *testing.T) *BorrowingService {
	t.Helper()
	dsn := fmt.Sprintf("file:borrsvc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := docstore.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	svc := &BorrowingService{Now: func() time.Time { return fixedNow }}
	// The store stamps createdAt; share the service clock so tests that
	// reassign svc.Now control both.
	svc.Store = &repo.RecordStore{
		Docs: docstore.NewSQLStore(db),
		Now:  func() time.Time { return svc.now() },
	}
	return svc
}

func validCreateInput() CreateBorrowingInput {
	return CreateBorrowingInput{
		ItemName:   "Projector",
		FirstName:  "Juan",
		LastName:   "Dela Cruz",
		Department: "IT",
		Location:   "Main Office",
		Purpose:    "Meeting",
		BorrowDate: "2024-03-15",
		DueDate:    "2024-03-20",
	}
}

func TestCreate_AssignsSequentialIDsAndActiveStatus(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != "BRW001" {
		t.Fatalf("id = %q, want BRW001", rec.ID)
	}
	if rec.Status != domain.StatusActive {
		t.Fatalf("status = %q, want %q", rec.Status, domain.StatusActive)
	}
	if rec.CreatedAt == "" {
		t.Fatal("createdAt not set")
	}

	in := validCreateInput()
	in.ItemName = "Laptop"
	rec2, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if rec2.ID != "BRW002" {
		t.Fatalf("second id = %q, want BRW002", rec2.ID)
	}
}

func TestCreate_RejectsMissingFields(t *testing.T) {
	svc := newBorrowingService(t)
	in := validCreateInput()
	in.FirstName = "   "

	_, err := svc.Create(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "firstName" {
		t.Fatalf("field = %q, want firstName", verr.Field)
	}
}

func TestCreate_RejectsBadDates(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	in := validCreateInput()
	in.BorrowDate = "15/03/2024"
	if _, err := svc.Create(ctx, in); err == nil {
		t.Fatal("expected error for malformed borrow date")
	}

	in = validCreateInput()
	in.DueDate = in.BorrowDate // not strictly after
	_, err := svc.Create(ctx, in)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "dueDate" {
		t.Fatalf("err = %v, want ValidationError on dueDate", err)
	}
}

func TestCreate_RejectsUnavailableItem(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	in := validCreateInput()
	in.ItemName = "projector" // case-insensitive match
	_, err := svc.Create(ctx, in)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "itemName" {
		t.Fatalf("err = %v, want ValidationError on itemName", err)
	}
}

func TestReturn_StampsFieldsAndIsTerminal(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Return(ctx, rec.ID, "")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if got.Status != domain.StatusReturned {
		t.Fatalf("status = %q, want returned", got.Status)
	}
	if got.ReturnedBy != "Juan Dela Cruz" {
		t.Fatalf("returnedBy = %q, want borrower name default", got.ReturnedBy)
	}
	if got.ReturnedAt != fixedNow.Format(time.RFC3339) {
		t.Fatalf("returnedAt = %q", got.ReturnedAt)
	}

	if _, err := svc.Return(ctx, rec.ID, "Someone"); !errors.Is(err, ErrRecordReturned) {
		t.Fatalf("second return err = %v, want ErrRecordReturned", err)
	}

	// Persisted, not just echoed back.
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != domain.StatusReturned {
		t.Fatalf("persisted state = %+v", list)
	}
}

func TestReturn_UnknownID(t *testing.T) {
	svc := newBorrowingService(t)
	if _, err := svc.Return(context.Background(), "BRW999", ""); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestExtend_RequiresLaterDueDate(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Equal to current due date: rejected even though it is after the
	// borrow date.
	_, err = svc.Extend(ctx, rec.ID, "2024-03-20")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "dueDate" {
		t.Fatalf("err = %v, want ValidationError on dueDate", err)
	}

	got, err := svc.Extend(ctx, rec.ID, "2024-03-25")
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if got.DueDate != "2024-03-25" {
		t.Fatalf("dueDate = %q", got.DueDate)
	}
	if got.Status != domain.StatusActive {
		t.Fatalf("status = %q, extend must not touch status", got.Status)
	}
}

func TestExtend_ReturnedRecord(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, _ := svc.Create(ctx, validCreateInput())
	if _, err := svc.Return(ctx, rec.ID, ""); err != nil {
		t.Fatalf("return: %v", err)
	}
	if _, err := svc.Extend(ctx, rec.ID, "2024-04-01"); !errors.Is(err, ErrRecordReturned) {
		t.Fatalf("err = %v, want ErrRecordReturned", err)
	}
}

func TestEdit_UpdatesFieldsKeepsBorrowDate(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Edit(ctx, rec.ID, EditBorrowingInput{
		ItemName:   "Laptop",
		FirstName:  "Maria",
		LastName:   "Santos",
		Department: "HR",
		Location:   "Annex",
		Purpose:    "Training",
		DueDate:    "2024-03-22",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.ItemName != "Laptop" || got.FirstName != "Maria" {
		t.Fatalf("edit not applied: %+v", got)
	}
	if got.BorrowDate != "2024-03-15" {
		t.Fatalf("borrowDate changed to %q", got.BorrowDate)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].DueDate != "2024-03-22" {
		t.Fatalf("persisted dueDate = %q", list[0].DueDate)
	}
}

func TestEdit_DueDateMustFollowOriginalBorrowDate(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, _ := svc.Create(ctx, validCreateInput())
	_, err := svc.Edit(ctx, rec.ID, EditBorrowingInput{
		ItemName:   "Projector",
		FirstName:  "Juan",
		LastName:   "Dela Cruz",
		Department: "IT",
		Location:   "Main Office",
		Purpose:    "Meeting",
		DueDate:    "2024-03-15", // equal to borrow date
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "dueDate" {
		t.Fatalf("err = %v, want ValidationError on dueDate", err)
	}
}

func TestDelete_RemovesRecord(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	rec, _ := svc.Create(ctx, validCreateInput())
	if err := svc.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("records after delete = %d", len(list))
	}

	if err := svc.Delete(ctx, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("second delete err = %v, want ErrRecordNotFound", err)
	}
}

func TestList_MostRecentFirst(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	// Distinct createdAt stamps via the injected clock.
	base := fixedNow
	svc.Now = func() time.Time { return base }
	first, _ := svc.Create(ctx, validCreateInput())

	in := validCreateInput()
	in.ItemName = "Laptop"
	base = base.Add(time.Hour)
	second, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("order = [%s, %s], want newest first", list[0].ID, list[1].ID)
	}
}

func TestStats_DerivesOverdue(t *testing.T) {
	svc := newBorrowingService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	in := validCreateInput()
	in.ItemName = "Laptop"
	rec2, _ := svc.Create(ctx, in)
	if _, err := svc.Return(ctx, rec2.ID, ""); err != nil {
		t.Fatalf("return: %v", err)
	}

	// Clock past the due date: the active record reads as overdue without
	// any stored-status rewrite.
	svc.Now = func() time.Time {
		return time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local)
	}
	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Stats{Total: 2, Active: 0, Overdue: 1, Returned: 1}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
}
