package services

import (
	"gorm.io/gorm"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
)

// auditService handles the activity audit trail.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record stores an activity entry. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Record(ownerID, activityType, description string) {
	if ownerID == "" || activityType == "" {
		logger.Get().Warnw("skipping activity entry without owner or type",
			"owner_id", ownerID,
			"activity_type", activityType,
		)
		return
	}

	entry := &models.ActivityLog{
		OwnerID:      ownerID,
		ActivityType: activityType,
		Description:  description,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create activity log entry",
			"error", err,
			"owner_id", ownerID,
			"activity_type", activityType,
		)
	}
}

// List returns the owner's activity, newest first.
func (s *auditService) List(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.ActivityLog{}).Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.ActivityLog
	if err := s.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &resp, nil
}
