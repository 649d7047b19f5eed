package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Case status constants — disbursement/administrative workflow state
const (
	CaseStatusPending           = "PENDING"
	CaseStatusUnderReview       = "UNDER_REVIEW"
	CaseStatusApproved          = "APPROVED"
	CaseStatusRejected          = "REJECTED"
	CaseStatusPaymentProcessing = "PAYMENT_PROCESSING"
	CaseStatusCompleted         = "COMPLETED"
)

// Case stage constants — legal-process milestone, independent of status
const (
	CaseStageFIR         = "FIR"
	CaseStageChargesheet = "CHARGESHEET"
	CaseStageConviction  = "CONVICTION"
)

// Case represents a compensation claim registered by a victim.
// case_number is system-generated and immutable; status is mutated only
// through validated workflow transitions.
type Case struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"case_number"`

	// Victim details
	VictimName    string `gorm:"type:varchar(100);not null" json:"victim_name"`
	VictimAadhaar string `gorm:"type:varchar(12);not null" json:"victim_aadhaar"`
	VictimPhone   string `gorm:"type:varchar(15);not null;index" json:"victim_phone"`
	VictimEmail   string `gorm:"type:varchar(100)" json:"victim_email"`

	// Incident details
	IncidentDescription string    `gorm:"type:text;not null" json:"incident_description"`
	IncidentDate        time.Time `gorm:"not null" json:"incident_date"`
	IncidentLocation    string    `gorm:"type:varchar(255);not null" json:"incident_location"`

	// Workflow
	Stage  string `gorm:"type:varchar(20);not null;default:'FIR'" json:"stage"`
	Status string `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	// Disbursement details
	CompensationAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"compensation_amount"`
	DisbursedAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"disbursed_amount"`
	BankAccountNumber  string          `gorm:"type:varchar(20);not null" json:"bank_account_number"`
	IFSCCode           string          `gorm:"type:varchar(11);not null" json:"ifsc_code"`

	// Ownership and assignment
	CreatedByUserID       *uuid.UUID `gorm:"type:uuid;index" json:"created_by_user_id"`
	Creator               *User      `gorm:"foreignKey:CreatedByUserID" json:"creator,omitempty"`
	AssignedOfficerUserID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_officer_user_id"`
	AssignedOfficer       *User      `gorm:"foreignKey:AssignedOfficerUserID" json:"assigned_officer,omitempty"`

	Remarks   string    `gorm:"type:text" json:"remarks"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CaseDocument verification status constants
const (
	DocVerificationPending  = "PENDING"
	DocVerificationVerified = "VERIFIED"
	DocVerificationFailed   = "FAILED"
)

// CaseDocument records an uploaded supporting document for a case.
// Verification itself (OCR/QR) runs in an external agent; only the
// bookkeeping lives here.
type CaseDocument struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	Case               *Case      `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE;" json:"-"`
	DocumentType       string     `gorm:"type:varchar(50);not null" json:"document_type"` // aadhaar, caste_certificate, income_certificate, fir_copy
	OriginalFilename   string     `gorm:"type:varchar(255);not null" json:"original_filename"`
	StoragePath        string     `gorm:"type:varchar(512);not null" json:"storage_path"`
	SizeBytes          int64      `gorm:"not null" json:"size_bytes"`
	VerificationStatus string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"verification_status"`
	UploadedByUserID   *uuid.UUID `gorm:"type:uuid" json:"uploaded_by_user_id"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
