package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
	"github.com/noah-isme/tasktrack-api/pkg/export"
	"github.com/noah-isme/tasktrack-api/pkg/middleware/requestid"
)

const maxExportRows = 5000

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry) (*models.AuditLog, error)
}

type requestMetaKey struct{}

// WithRequestMeta attaches transport metadata to ctx for the audit recorder.
func WithRequestMeta(ctx context.Context, meta models.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the metadata attached by WithRequestMeta.
func RequestMetaFrom(ctx context.Context) models.RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(models.RequestMeta)
	if meta.RequestID == "" {
		meta.RequestID = requestid.FromContext(ctx)
	}
	return meta
}

// ExportFile is a rendered audit export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AuditService appends and reads the audit trail.
type AuditService struct {
	repo    auditRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs an audit service.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Record appends an audit entry. A missing actor is a validation error. A
// failed write is logged, counted and returned as ErrAuditFailed.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) (*models.AuditLog, error) {
	if strings.TrimSpace(entry.ActorID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audit actor is required")
	}
	if entry.Action == "" || entry.Entity == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audit action and entity are required")
	}

	detail := []byte(`{}`)
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return nil, appErrors.Validation(err, "audit detail must be JSON encodable")
		}
		detail = raw
	}

	meta := entry.Meta
	if meta == (models.RequestMeta{}) {
		meta = RequestMetaFrom(ctx)
	}

	log := &models.AuditLog{
		UserID:    entry.ActorID,
		Action:    entry.Action,
		Entity:    entry.Entity,
		Detail:    detail,
		RequestID: meta.RequestID,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: s.now(),
	}
	if entry.EntityID != "" {
		entityID := entry.EntityID
		log.EntityID = &entityID
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.metrics.RecordAuditFailure(entry.Entity, entry.Action)
		s.logger.Error("audit write failed after mutation",
			zap.String("actor_id", entry.ActorID),
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.String("entity_id", entry.EntityID),
			zap.String("request_id", meta.RequestID),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrAuditFailed.Code, appErrors.ErrAuditFailed.Status, appErrors.ErrAuditFailed.Message)
	}
	return log, nil
}

// List returns audit entries and pagination metadata.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Unavailable(err, "failed to list audit logs")
	}
	return logs, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Export renders the entries matching filter as CSV or PDF.
func (s *AuditService) Export(ctx context.Context, filter models.AuditFilter, format string) (*ExportFile, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv or pdf")
	}
	renderer, err := export.For(parsed)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv or pdf")
	}

	dataset := export.Dataset{Headers: []string{"id", "created_at", "actor_id", "action", "entity", "entity_id", "request_id", "detail"}}
	filter.PageSize = 100
	for page := 1; len(dataset.Rows) < maxExportRows; page++ {
		filter.Page = page
		logs, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Unavailable(err, "failed to load audit logs")
		}
		for _, l := range logs {
			entityID := ""
			if l.EntityID != nil {
				entityID = *l.EntityID
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"id":         l.ID,
				"created_at": l.CreatedAt.UTC().Format(time.RFC3339),
				"actor_id":   l.UserID,
				"action":     l.Action,
				"entity":     l.Entity,
				"entity_id":  entityID,
				"request_id": l.RequestID,
				"detail":     string(l.Detail),
			})
		}
		if len(logs) == 0 || page*filter.PageSize >= total {
			break
		}
	}

	body, err := renderer.Render(dataset, "Audit log")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("audit-logs-%s.%s", s.now().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
