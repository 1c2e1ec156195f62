// Settings HTTP handlers.
//
// Exposes the default-settings resource used to pre-fill the borrowing form:
//   - GET /settings (read, 404 when never saved)
//   - PUT /settings (upsert)
//
// Settings are keyed by the caller identity; without an X-User-ID header the
// shared "default" tenant is used.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bataan-pgo/go-borrowing-backend/internal/domain"
	"github.com/bataan-pgo/go-borrowing-backend/internal/services"
)

// UpdateSettingsRequest is the JSON payload for saving default settings.
type UpdateSettingsRequest struct {
	DefaultItemName   string              `json:"defaultItemName" example:"Projector"`
	DefaultLocation   string              `json:"defaultLocation" example:"Main Office"`
	DefaultDepartment string              `json:"defaultDepartment" example:"IT"`
	CustomItems       []domain.CustomItem `json:"customItems"`
	CustomLocations   []string            `json:"customLocations"`
	CustomDepartments []string            `json:"customDepartments"`
}

// GetSettings godoc
// @ID          getSettings
// @Summary     Read default settings
// @Tags        Settings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(default)
//
// @Success     200  {object} domain.Settings
// @Failure     404  {object} handlers.ErrorResponse "Never saved"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	st, err := h.settingsSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrSettingsNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "settings not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Save default settings
// @Description Creates or replaces the settings document for the caller.
// @Tags        Settings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(default)
// @Param       body       body    handlers.UpdateSettingsRequest  true  "Settings payload"
//
// @Success     200  {object} domain.Settings
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /settings [put]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	st := &domain.Settings{
		DefaultItemName:   req.DefaultItemName,
		DefaultLocation:   req.DefaultLocation,
		DefaultDepartment: req.DefaultDepartment,
		CustomItems:       req.CustomItems,
		CustomLocations:   req.CustomLocations,
		CustomDepartments: req.CustomDepartments,
	}
	if err := h.settingsSvc.Put(c.Request.Context(), userID(c), st); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}
