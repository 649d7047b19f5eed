package workflow

import (
	"testing"

	"backend/internal/model"
)

func TestTabBucketing(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{model.CaseStatusPending, TabVerification},
		{model.CaseStatusUnderReview, TabVerification},
		{model.CaseStatusApproved, TabFunds},
		{model.CaseStatusPaymentProcessing, TabFunds},
		{model.CaseStatusCompleted, TabAudit},
		{model.CaseStatusRejected, TabAudit},
		// legacy lifecycle tags from pre-migration records
		{"FIR", TabVerification},
		{"fir_stage", TabVerification},
	}

	for _, tt := range tests {
		if got := Tab(tt.status); got != tt.want {
			t.Errorf("Tab(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTabTotality(t *testing.T) {
	known := map[string]bool{TabVerification: true, TabFunds: true, TabAudit: true}

	for _, status := range Statuses() {
		if !known[Tab(status)] {
			t.Errorf("Tab(%q) = %q is not a dashboard tab", status, Tab(status))
		}
	}

	// Arbitrary junk still lands in a tab instead of disappearing.
	for _, junk := range []string{"", "garbage", "pending", "COMPLETED "} {
		if !known[Tab(junk)] {
			t.Errorf("Tab(%q) = %q is not a dashboard tab", junk, Tab(junk))
		}
	}
}
