package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionRegisterCase       = "REGISTER_CASE"
	ActionCaseStatusChange   = "CASE_STATUS_CHANGE"
	ActionAdvanceCaseStage   = "ADVANCE_CASE_STAGE"
	ActionAssignOfficer      = "ASSIGN_OFFICER"
	ActionDeleteCase         = "DELETE_CASE"
	ActionUploadDocument     = "UPLOAD_DOCUMENT"
	ActionCreateGrievance    = "CREATE_GRIEVANCE"
	ActionUpdateGrievance    = "UPDATE_GRIEVANCE"
	ActionEscalateGrievance  = "ESCALATE_GRIEVANCE"
	ActionDeleteGrievance    = "DELETE_GRIEVANCE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/case number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
