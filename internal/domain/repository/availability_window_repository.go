package repository

import (
	"time"

	"clinic-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityWindowRepository interface {
	Create(db *gorm.DB, window *entity.AvailabilityWindow) error
	Update(db *gorm.DB, window *entity.AvailabilityWindow) error
	Delete(db *gorm.DB, id int) (int64, error)
	FindByID(db *gorm.DB, id int) (*entity.AvailabilityWindow, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.AvailabilityWindow, error)
	FindByDoctorAndDay(db *gorm.DB, doctorID uuid.UUID, day time.Weekday) (*entity.AvailabilityWindow, error)
}
