package model

import (
	"time"

	"github.com/google/uuid"
)

// Grievance status constants
const (
	GrievanceStatusOpen       = "OPEN"
	GrievanceStatusInProgress = "IN_PROGRESS"
	GrievanceStatusResolved   = "RESOLVED"
	GrievanceStatusClosed     = "CLOSED"
	GrievanceStatusEscalated  = "ESCALATED"
)

// Grievance priority constants — assigned once at creation by the classifier
const (
	GrievancePriorityCritical = "CRITICAL"
	GrievancePriorityHigh     = "HIGH"
	GrievancePriorityMedium   = "MEDIUM"
	GrievancePriorityLow      = "LOW"
)

// Grievance represents an issue raised by a victim against one of their cases.
// Priority is immutable after creation; resolved_at/resolved_by are set
// exactly when status enters RESOLVED or CLOSED.
type Grievance struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GrievanceNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"grievance_number"`

	CaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	Case   *Case     `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE;" json:"case,omitempty"`

	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"type:varchar(100);not null" json:"category"`

	Priority string `gorm:"type:varchar(20);not null;index" json:"priority"`
	Status   string `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`

	ContactName  string `gorm:"type:varchar(100);not null" json:"contact_name"`
	ContactPhone string `gorm:"type:varchar(15);not null" json:"contact_phone"`
	ContactEmail string `gorm:"type:varchar(100)" json:"contact_email"`

	ResolutionNotes string     `gorm:"type:text" json:"resolution_notes"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ResolvedBy      string     `gorm:"type:varchar(100)" json:"resolved_by"`
	IsEscalated     bool       `gorm:"not null;default:false" json:"is_escalated"`

	CreatedByUserID *uuid.UUID `gorm:"type:uuid;index" json:"created_by_user_id"`
	Creator         *User      `gorm:"foreignKey:CreatedByUserID" json:"creator,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
