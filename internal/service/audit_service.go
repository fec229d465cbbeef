package service

import (
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records an audit trail of state-changing operations.
// Failures to write the trail are logged and swallowed so auditing never
// blocks the operation being audited.
type AuditService interface {
	LogAction(db *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON)
	LogChange(db *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{})
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) LogAction(db *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) {
	auditLog := &entity.AuditLog{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(db, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log for action %s: %+v", action, err)
	}
}

// LogChange records an entity mutation with before/after snapshots.
func (s *auditService) LogChange(db *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) {
	s.LogAction(db, userID, action, entity.JSON{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": newValue,
	})
}
