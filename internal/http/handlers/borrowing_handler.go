// Borrowing HTTP handlers.
//
// This file exposes REST endpoints for borrowing records:
//   - POST   /borrowings              (create)
//   - GET    /borrowings              (list, filterable)
//   - GET    /borrowings/stats        (dashboard counters)
//   - POST   /borrowings/{id}/return  (mark returned)
//   - POST   /borrowings/{id}/extend  (move due date)
//   - PUT    /borrowings/{id}         (edit)
//   - DELETE /borrowings/{id}         (delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Record status in responses is
// always the derived display status, never the raw stored value.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
	"github.com/bataan-pgo/go-borrowing-backend/internal/services"
	"github.com/bataan-pgo/go-borrowing-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// BorrowingService defines record lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BorrowingService interface {
	// List returns every discoverable record, most recent first.
	List(ctx context.Context) ([]domain.BorrowingRecord, error)
	// Stats summarizes the record set with derived overdue counts.
	Stats(ctx context.Context) (services.Stats, error)
	// Create validates, checks availability, and persists a new record.
	Create(ctx context.Context, in services.CreateBorrowingInput) (*domain.BorrowingRecord, error)
	// Return marks a record returned; returnedBy defaults to the borrower.
	Return(ctx context.Context, id, returnedBy string) (*domain.BorrowingRecord, error)
	// Extend moves the due date strictly forward.
	Extend(ctx context.Context, id, newDueDate string) (*domain.BorrowingRecord, error)
	// Edit updates descriptive fields and the due date.
	Edit(ctx context.Context, id string, in services.EditBorrowingInput) (*domain.BorrowingRecord, error)
	// Delete removes a record unconditionally.
	Delete(ctx context.Context, id string) error
}

// SettingsService defines the default-settings store consumed by HTTP
// handlers.
type SettingsService interface {
	Get(ctx context.Context, key string) (*domain.Settings, error)
	Put(ctx context.Context, key string, settings *domain.Settings) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for borrowings and settings.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	borrowSvc   BorrowingService
	settingsSvc SettingsService

	// now drives derived status in responses; nil means time.Now.
	now func() time.Time
}

// New constructs and returns a Handlers instance bound to the given services.
func New(borrowSvc BorrowingService, settingsSvc SettingsService) *Handlers {
	return &Handlers{borrowSvc: borrowSvc, settingsSvc: settingsSvc}
}

func (h *Handlers) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// userID extracts the caller identity from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "default", the shared-tenant key. It never touches c.Request
// if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "default"
}

//
// DTOs
//

// CreateBorrowingRequest is the JSON payload for creating a borrowing record.
type CreateBorrowingRequest struct {
	ItemName   string `json:"itemName" binding:"required" example:"Projector"`
	FirstName  string `json:"firstName" binding:"required" example:"Juan"`
	LastName   string `json:"lastName" binding:"required" example:"Dela Cruz"`
	Department string `json:"department" binding:"required" example:"IT"`
	Location   string `json:"location" binding:"required" example:"Main Office"`
	Purpose    string `json:"purpose" binding:"required" example:"Quarterly meeting"`
	BorrowDate string `json:"borrowDate" binding:"required" example:"2024-03-15"`
	DueDate    string `json:"dueDate" binding:"required" example:"2024-03-20"`
}

// EditBorrowingRequest is the JSON payload for editing a record. The borrow
// date is not accepted; it is immutable after creation.
type EditBorrowingRequest struct {
	ItemName   string `json:"itemName" binding:"required" example:"Projector"`
	FirstName  string `json:"firstName" binding:"required" example:"Juan"`
	LastName   string `json:"lastName" binding:"required" example:"Dela Cruz"`
	Department string `json:"department" binding:"required" example:"IT"`
	Location   string `json:"location" binding:"required" example:"Main Office"`
	Purpose    string `json:"purpose" binding:"required" example:"Quarterly meeting"`
	DueDate    string `json:"dueDate" binding:"required" example:"2024-03-22"`
}

// ReturnBorrowingRequest is the JSON payload for marking a record returned.
type ReturnBorrowingRequest struct {
	// ReturnedBy optionally names who returned the item; defaults to the
	// borrower's full name.
	ReturnedBy string `json:"returnedBy" example:"Juan Dela Cruz"`
}

// ExtendBorrowingRequest is the JSON payload for extending a due date.
type ExtendBorrowingRequest struct {
	// NewDueDate must be strictly after the record's current due date.
	NewDueDate string `json:"newDueDate" binding:"required" example:"2024-03-25"`
}

// ListBorrowingsResponse wraps the record list and its total count before
// any limit was applied.
type ListBorrowingsResponse struct {
	Borrowings []domain.BorrowingRecord `json:"borrowings"`
	Total      int                      `json:"total"`
}

//
// Helpers
//

// withDerivedStatus returns a copy of the records with Status replaced by the
// derived display status. Stored data is left untouched.
func (h *Handlers) withDerivedStatus(records []domain.BorrowingRecord) []domain.BorrowingRecord {
	now := h.clock()
	out := make([]domain.BorrowingRecord, len(records))
	for i := range records {
		out[i] = records[i]
		out[i].Status = domain.DeriveStatus(&records[i], now)
	}
	return out
}

// svcFail maps service errors to HTTP responses, using fallbackCode for
// anything unrecognized.
func svcFail(c *gin.Context, err error, fallbackCode string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		failField(c, http.StatusBadRequest, ErrCodeValidationFailed, verr.Message, verr.Field)
	case errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "borrowing record not found")
	case errors.Is(err, services.ErrRecordReturned):
		fail(c, http.StatusConflict, ErrCodeConflict, "record already returned")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

// matchesQuery reports whether the record matches a free-text search over
// item, borrower, department, and id.
func matchesQuery(r *domain.BorrowingRecord, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, s := range []string{r.ID, r.ItemName, r.BorrowerName(), r.Department, r.Location} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

//
// Handlers
//

// CreateBorrowing godoc
// @ID          createBorrowing
// @Summary     Create a borrowing record
// @Description Creates a record with the next sequential id after checking the item is free on the borrow date.
// @Tags        Borrowings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(default)
// @Param       body       body    handlers.CreateBorrowingRequest  true  "Create borrowing payload"
//
// @Success     201  {object}  domain.BorrowingRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /borrowings [post]
func (h *Handlers) CreateBorrowing(c *gin.Context) {
	var req CreateBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.borrowSvc.Create(c.Request.Context(), services.CreateBorrowingInput{
		ItemName:   req.ItemName,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Location:   req.Location,
		Purpose:    req.Purpose,
		BorrowDate: req.BorrowDate,
		DueDate:    req.DueDate,
	})
	if err != nil {
		svcFail(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// ListBorrowings godoc
// @ID          listBorrowings
// @Summary     List borrowing records
// @Description Returns all records, most recent first, with display status derived from due dates. Supports status filter, free-text search, and a result limit.
// @Tags        Borrowings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(default)
// @Param       status     query   string  false "Filter by display status"  Enums(active, overdue, returned)
// @Param       q          query   string  false "Free-text search over item, borrower, department, id"
// @Param       limit      query   int     false "Cap the number of records returned"  minimum(1)
//
// @Success     200  {object} handlers.ListBorrowingsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /borrowings [get]
func (h *Handlers) ListBorrowings(c *gin.Context) {
	records, err := h.borrowSvc.List(c.Request.Context())
	if err != nil {
		svcFail(c, err, ErrCodeListFailed)
		return
	}
	records = h.withDerivedStatus(records)

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	q := c.Query("q")
	filtered := records[:0:0]
	for i := range records {
		if status != "" && records[i].Status != status {
			continue
		}
		if !matchesQuery(&records[i], q) {
			continue
		}
		filtered = append(filtered, records[i])
	}

	total := len(filtered)
	if limit := utils.AtoiDefault(c.Query("limit"), 0); limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	if filtered == nil {
		filtered = []domain.BorrowingRecord{}
	}
	ok(c, http.StatusOK, ListBorrowingsResponse{Borrowings: filtered, Total: total})
}

// BorrowingStats godoc
// @ID          borrowingStats
// @Summary     Record counters for the dashboard
// @Tags        Borrowings
// @Produce     json
//
// @Success     200  {object} services.Stats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /borrowings/stats [get]
func (h *Handlers) BorrowingStats(c *gin.Context) {
	st, err := h.borrowSvc.Stats(c.Request.Context())
	if err != nil {
		svcFail(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, st)
}

// ReturnBorrowing godoc
// @ID          returnBorrowing
// @Summary     Mark a record returned
// @Description Stamps returnedAt and returnedBy and sets the terminal returned status. Returning twice conflicts.
// @Tags        Borrowings
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Record ID"  example(BRW001)
// @Param       body  body  handlers.ReturnBorrowingRequest  false  "Return payload"
//
// @Success     200  {object} domain.BorrowingRecord
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     409  {object} handlers.ErrorResponse "Already returned"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /borrowings/{id}/return [post]
func (h *Handlers) ReturnBorrowing(c *gin.Context) {
	var req ReturnBorrowingRequest
	// Body is optional; ignore bind errors from an empty body.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	rec, err := h.borrowSvc.Return(c.Request.Context(), c.Param("id"), req.ReturnedBy)
	if err != nil {
		svcFail(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, rec)
}

// ExtendBorrowing godoc
// @ID          extendBorrowing
// @Summary     Extend a record's due date
// @Description Moves the due date strictly forward. The stored status is untouched; an overdue record reads as active again once the new due date is ahead.
// @Tags        Borrowings
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Record ID"  example(BRW001)
// @Param       body  body  handlers.ExtendBorrowingRequest  true  "Extension payload"
//
// @Success     200  {object} domain.BorrowingRecord
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     409  {object} handlers.ErrorResponse "Already returned"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /borrowings/{id}/extend [post]
func (h *Handlers) ExtendBorrowing(c *gin.Context) {
	var req ExtendBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.borrowSvc.Extend(c.Request.Context(), c.Param("id"), req.NewDueDate)
	if err != nil {
		svcFail(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, rec)
}

// EditBorrowing godoc
// @ID          editBorrowing
// @Summary     Edit a record
// @Description Updates descriptive fields and the due date. The borrow date, and with it the storage partition, never changes.
// @Tags        Borrowings
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Record ID"  example(BRW001)
// @Param       body  body  handlers.EditBorrowingRequest  true  "Edit payload"
//
// @Success     200  {object} domain.BorrowingRecord
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     409  {object} handlers.ErrorResponse "Already returned"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /borrowings/{id} [put]
func (h *Handlers) EditBorrowing(c *gin.Context) {
	var req EditBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.borrowSvc.Edit(c.Request.Context(), c.Param("id"), services.EditBorrowingInput{
		ItemName:   req.ItemName,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Location:   req.Location,
		Purpose:    req.Purpose,
		DueDate:    req.DueDate,
	})
	if err != nil {
		svcFail(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, rec)
}

// DeleteBorrowing godoc
// @ID          deleteBorrowing
// @Summary     Delete a record
// @Description Removes the record permanently, whatever its status.
// @Tags        Borrowings
// @Produce     json
//
// @Param       id  path  string  true  "Record ID"  example(BRW001)
//
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /borrowings/{id} [delete]
func (h *Handlers) DeleteBorrowing(c *gin.Context) {
	if err := h.borrowSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		svcFail(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
