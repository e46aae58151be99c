package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/service"
	"github.com/noah-isme/tasktrack-api/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

func auditFilter(c *gin.Context) models.AuditFilter {
	filter := models.AuditFilter{
		ActorID: strings.TrimSpace(c.Query("actor_id")),
		Entity:  strings.ToLower(strings.TrimSpace(c.Query("entity"))),
		Action:  strings.ToUpper(strings.TrimSpace(c.Query("action"))),
	}
	filter.Page, filter.PageSize = paging(c)
	return filter
}

// List godoc
// @Summary List audit logs
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param actor_id query string false "Acting user"
// @Param entity query string false "record, role, user or session"
// @Param action query string false "CREATE, UPDATE, DELETE, LOGIN, REFRESH or LOGOUT"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	logs, pagination, err := h.service.List(c.Request.Context(), auditFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Export godoc
// @Summary Export audit logs
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param actor_id query string false "Acting user"
// @Param entity query string false "Entity"
// @Param action query string false "Action"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /audit-logs/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), auditFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
