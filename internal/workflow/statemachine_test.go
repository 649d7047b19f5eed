package workflow

import (
	"errors"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"
)

func TestValidateTransitionLegalEdges(t *testing.T) {
	legal := []struct{ from, to string }{
		{model.CaseStatusPending, model.CaseStatusUnderReview},
		{model.CaseStatusPending, model.CaseStatusApproved},
		{model.CaseStatusPending, model.CaseStatusRejected},
		{model.CaseStatusUnderReview, model.CaseStatusApproved},
		{model.CaseStatusUnderReview, model.CaseStatusRejected},
		{model.CaseStatusApproved, model.CaseStatusPaymentProcessing},
		{model.CaseStatusApproved, model.CaseStatusCompleted},
		{model.CaseStatusPaymentProcessing, model.CaseStatusCompleted},
	}

	for _, tt := range legal {
		if err := ValidateTransition(tt.from, tt.to, model.RoleOfficial); err != nil {
			t.Errorf("ValidateTransition(%s, %s, official) = %v, want nil", tt.from, tt.to, err)
		}
	}
}

func TestValidateTransitionIllegalEdges(t *testing.T) {
	illegal := []struct{ from, to string }{
		{model.CaseStatusPending, model.CaseStatusPaymentProcessing},
		{model.CaseStatusPending, model.CaseStatusCompleted},
		{model.CaseStatusUnderReview, model.CaseStatusPending},
		{model.CaseStatusUnderReview, model.CaseStatusPaymentProcessing},
		{model.CaseStatusApproved, model.CaseStatusRejected},
		{model.CaseStatusApproved, model.CaseStatusPending},
		{model.CaseStatusPaymentProcessing, model.CaseStatusRejected},
		{model.CaseStatusCompleted, model.CaseStatusPending},
		{model.CaseStatusCompleted, model.CaseStatusApproved},
		{model.CaseStatusRejected, model.CaseStatusUnderReview},
		{model.CaseStatusRejected, model.CaseStatusApproved},
	}

	for _, tt := range illegal {
		err := ValidateTransition(tt.from, tt.to, model.RoleOfficial)
		var transitionErr *InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Errorf("ValidateTransition(%s, %s, official) = %v, want InvalidTransitionError", tt.from, tt.to, err)
			continue
		}
		if transitionErr.From != tt.from || transitionErr.To != tt.to {
			t.Errorf("error carries %s -> %s, want %s -> %s",
				transitionErr.From, transitionErr.To, tt.from, tt.to)
		}
	}
}

func TestValidateTransitionActorRole(t *testing.T) {
	// Victims cannot transition even along a legal edge.
	err := ValidateTransition(model.CaseStatusPending, model.CaseStatusApproved, model.RoleVictim)
	if !apperror.IsKind(err, apperror.ErrPermissionDenied) {
		t.Errorf("victim transition = %v, want ErrPermissionDenied", err)
	}

	// Role check fires before edge validation.
	err = ValidateTransition(model.CaseStatusCompleted, model.CaseStatusPending, "")
	if !apperror.IsKind(err, apperror.ErrPermissionDenied) {
		t.Errorf("anonymous transition = %v, want ErrPermissionDenied", err)
	}

	if err := ValidateTransition(model.CaseStatusPending, model.CaseStatusApproved, model.RoleAdmin); err != nil {
		t.Errorf("admin transition = %v, want nil", err)
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	err := ValidateTransition(model.CaseStatusPending, "ARCHIVED", model.RoleOfficial)
	if !apperror.IsKind(err, apperror.ErrValidation) {
		t.Errorf("unknown target status = %v, want ErrValidation", err)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []string{model.CaseStatusRejected, model.CaseStatusCompleted} {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = false, want true", status)
		}
		for _, next := range Statuses() {
			if CanTransition(status, next) {
				t.Errorf("terminal %s has outgoing edge to %s", status, next)
			}
		}
	}

	for _, status := range []string{
		model.CaseStatusPending, model.CaseStatusUnderReview,
		model.CaseStatusApproved, model.CaseStatusPaymentProcessing,
	} {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = true, want false", status)
		}
	}
}

func TestNextStage(t *testing.T) {
	next, err := NextStage(model.CaseStageFIR)
	if err != nil || next != model.CaseStageChargesheet {
		t.Errorf("NextStage(FIR) = %q, %v; want CHARGESHEET, nil", next, err)
	}

	next, err = NextStage(model.CaseStageChargesheet)
	if err != nil || next != model.CaseStageConviction {
		t.Errorf("NextStage(CHARGESHEET) = %q, %v; want CONVICTION, nil", next, err)
	}

	if _, err := NextStage(model.CaseStageConviction); !apperror.IsKind(err, apperror.ErrValidation) {
		t.Errorf("NextStage(CONVICTION) err = %v, want ErrValidation", err)
	}

	if _, err := NextStage("APPEAL"); !apperror.IsKind(err, apperror.ErrValidation) {
		t.Errorf("NextStage(unknown) err = %v, want ErrValidation", err)
	}
}
