package entity

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityWindow is a doctor-declared weekly recurring open interval.
// A doctor has at most one window per weekday (enforced by a unique index),
// and both times are "HH:MM" inside clinic hours with StartTime < EndTime.
type AvailabilityWindow struct {
	ID        int          `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_doctor_weekday" json:"doctor_id"`
	DayOfWeek time.Weekday `gorm:"not null;uniqueIndex:uniq_doctor_weekday" json:"day_of_week"`
	StartTime string       `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string       `gorm:"type:varchar(5);not null" json:"end_time"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (AvailabilityWindow) TableName() string {
	return "availability_windows"
}
