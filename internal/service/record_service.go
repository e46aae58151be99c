package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/internal/models"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

type recordRepository interface {
	FindByID(ctx context.Context, id string) (*models.Record, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.Record, int, error)
	Create(ctx context.Context, record *models.Record) error
	Update(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, id string) error
}

// RecordService implements record use cases behind the ownership guard.
type RecordService struct {
	repo      recordRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordService constructs a record service.
func NewRecordService(repo recordRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RecordService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Create stores a new OPEN record owned by the principal.
func (s *RecordService) Create(ctx context.Context, principal *models.Principal, req models.CreateRecordRequest) (*models.Record, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid record payload")
	}

	record := &models.Record{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.RecordStatusOpen,
		UserID:      principal.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Unavailable(err, "failed to create record")
	}

	_, err := s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionCreate,
		Entity:   models.AuditEntityRecord,
		EntityID: record.ID,
		Detail:   map[string]interface{}{"title": record.Title},
	})
	return record, err
}

// List returns every record for administrative principals and only owned
// records for everyone else.
func (s *RecordService) List(ctx context.Context, principal *models.Principal, filter models.RecordFilter) ([]models.Record, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown record status")
	}
	if !principal.Administrative {
		filter.OwnerID = principal.UserID
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Unavailable(err, "failed to list records")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a record the principal owns or administers.
func (s *RecordService) Get(ctx context.Context, principal *models.Principal, id string) (*models.Record, error) {
	return AuthorizeOwnership(ctx, principal, "record", s.loader(id))
}

// Update changes title, description or status of a record.
func (s *RecordService) Update(ctx context.Context, principal *models.Principal, id string, req models.UpdateRecordRequest) (*models.Record, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid record payload")
	}
	record, err := AuthorizeOwnership(ctx, principal, "record", s.loader(id))
	if err != nil {
		return nil, err
	}

	detail := map[string]interface{}{}
	if req.Title != nil {
		record.Title = *req.Title
		detail["title"] = record.Title
	}
	if req.Description != nil {
		record.Description = *req.Description
		detail["description"] = record.Description
	}
	if req.Status != nil {
		detail["status"] = map[string]string{"from": string(record.Status), "to": string(*req.Status)}
		record.Status = *req.Status
	}

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Unavailable(err, "failed to update record")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionUpdate,
		Entity:   models.AuditEntityRecord,
		EntityID: record.ID,
		Detail:   detail,
	})
	return record, err
}

// Delete removes a record. Records still in their initial OPEN state cannot be deleted.
func (s *RecordService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	record, err := AuthorizeOwnership(ctx, principal, "record", s.loader(id))
	if err != nil {
		return err
	}
	if record.Status == models.RecordStatusOpen {
		return appErrors.Clone(appErrors.ErrValidation, "open records cannot be deleted")
	}

	if err := s.repo.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return appErrors.Unavailable(err, "failed to delete record")
	}

	_, err = s.audit.Record(ctx, models.AuditEntry{
		ActorID:  principal.UserID,
		Action:   models.AuditActionDelete,
		Entity:   models.AuditEntityRecord,
		EntityID: record.ID,
		Detail:   map[string]interface{}{"title": record.Title, "status": string(record.Status)},
	})
	return err
}

func (s *RecordService) loader(id string) func(context.Context) (*models.Record, error) {
	return func(ctx context.Context) (*models.Record, error) {
		return s.repo.FindByID(ctx, id)
	}
}
