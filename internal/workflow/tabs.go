package workflow

import "backend/internal/model"

// Dashboard tab names. Every case status maps to exactly one tab.
const (
	TabVerification = "verification"
	TabFunds        = "funds"
	TabAudit        = "audit"
)

// Tab buckets a case status into its dashboard tab. Records predating the
// status column carry legacy lifecycle tags ("FIR"/"fir_stage") in the
// status field; those bucket to verification.
func Tab(status string) string {
	switch status {
	case model.CaseStatusPending, model.CaseStatusUnderReview:
		return TabVerification
	case model.CaseStatusApproved, model.CaseStatusPaymentProcessing:
		return TabFunds
	case model.CaseStatusCompleted, model.CaseStatusRejected:
		return TabAudit
	case "FIR", "fir_stage":
		return TabVerification
	default:
		// Unknown values are surfaced in the verification queue rather
		// than dropped from every tab.
		return TabVerification
	}
}

// Tabs lists the dashboard tabs in display order.
func Tabs() []string {
	return []string{TabVerification, TabFunds, TabAudit}
}
