package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/service"
	"github.com/noah-isme/tasktrack-api/pkg/response"
)

// RecordHandler exposes record endpoints.
type RecordHandler struct {
	service *service.RecordService
}

// NewRecordHandler constructs a record handler.
func NewRecordHandler(svc *service.RecordService) *RecordHandler {
	return &RecordHandler{service: svc}
}

// Create godoc
// @Summary Create record
// @Tags Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateRecordRequest true "Record payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	record, err := h.service.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List records
// @Description Administrators see every record, everyone else only their own
// @Tags Records
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "OPEN, IN_PROGRESS or DONE"
// @Param owner_id query string false "Owner filter (administrators only)"
// @Success 200 {object} response.Envelope
// @Router /records [get]
func (h *RecordHandler) List(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.RecordFilter{
		OwnerID: strings.TrimSpace(c.Query("owner_id")),
		Status:  models.RecordStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	filter.Page, filter.PageSize = paging(c)

	records, pagination, err := h.service.List(c.Request.Context(), principal, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get record
// @Tags Records
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Update godoc
// @Summary Update record
// @Tags Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param payload body models.UpdateRecordRequest true "Record payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	record, err := h.service.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete record
// @Description Records still OPEN cannot be deleted
// @Tags Records
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
