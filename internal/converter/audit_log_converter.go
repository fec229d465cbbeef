package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
)

// AuditLogToResponse converts an AuditLog entity to AuditLogResponse DTO
func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	response := &dto.AuditLogResponse{
		ID:        log.ID,
		UserID:    log.UserID,
		Action:    log.Action,
		Metadata:  log.Metadata,
		CreatedAt: log.CreatedAt,
	}

	if log.User != nil {
		response.UserEmail = log.User.Email
	}

	return response
}

// AuditLogsToResponses converts a slice of AuditLog entities to response DTOs
func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i, log := range logs {
		resp := AuditLogToResponse(&log)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
