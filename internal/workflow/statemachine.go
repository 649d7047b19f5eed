// Package workflow implements the case status state machine: the legal-edge
// table between disbursement statuses, the actor authorization for
// transitions, and the pure bucketing of statuses into dashboard tabs.
// The package holds no state; persistence applies validated transitions
// with an optimistic guard in the repository layer.
package workflow

import (
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
)

// InvalidTransitionError is returned when a requested status change is not
// in the legal-edge table. The case status is left unchanged.
type InvalidTransitionError struct {
	From string
	To   string
	Role string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s (actor role %s)", e.From, e.To, e.Role)
}

// legalEdges maps each status to the set of statuses reachable from it.
// REJECTED and COMPLETED are terminal and have no outgoing edges.
var legalEdges = map[string][]string{
	model.CaseStatusPending:           {model.CaseStatusUnderReview, model.CaseStatusApproved, model.CaseStatusRejected},
	model.CaseStatusUnderReview:       {model.CaseStatusApproved, model.CaseStatusRejected},
	model.CaseStatusApproved:          {model.CaseStatusPaymentProcessing, model.CaseStatusCompleted},
	model.CaseStatusPaymentProcessing: {model.CaseStatusCompleted},
	model.CaseStatusRejected:          {},
	model.CaseStatusCompleted:         {},
}

// statusOrder lists every status in lifecycle order.
var statusOrder = []string{
	model.CaseStatusPending,
	model.CaseStatusUnderReview,
	model.CaseStatusApproved,
	model.CaseStatusPaymentProcessing,
	model.CaseStatusCompleted,
	model.CaseStatusRejected,
}

// Statuses returns every defined case status in lifecycle order.
func Statuses() []string {
	out := make([]string, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// IsStatus reports whether s is one of the defined case statuses.
func IsStatus(s string) bool {
	_, ok := legalEdges[s]
	return ok
}

// IsTerminal reports whether status has no outgoing transitions.
func IsTerminal(status string) bool {
	edges, ok := legalEdges[status]
	return ok && len(edges) == 0
}

// CanTransition reports whether current -> next is in the legal-edge table,
// ignoring actor authorization.
func CanTransition(current, next string) bool {
	for _, edge := range legalEdges[current] {
		if edge == next {
			return true
		}
	}
	return false
}

// ValidateTransition checks that the actor role may request status changes
// and that current -> next is a legal edge. It never mutates anything;
// callers apply the change only when the returned error is nil.
func ValidateTransition(current, next, actorRole string) error {
	if actorRole != model.RoleOfficial && actorRole != model.RoleAdmin {
		return apperror.Wrap(apperror.ErrPermissionDenied, "case transition",
			fmt.Errorf("role %q may not change case status", actorRole))
	}
	if !IsStatus(next) {
		return apperror.Wrap(apperror.ErrValidation, "case transition",
			fmt.Errorf("unknown status %q", next))
	}
	if !CanTransition(current, next) {
		return &InvalidTransitionError{From: current, To: next, Role: actorRole}
	}
	return nil
}

// stageOrder is the forward-only legal-process ladder.
var stageOrder = []string{model.CaseStageFIR, model.CaseStageChargesheet, model.CaseStageConviction}

// NextStage returns the stage following current in the FIR -> CHARGESHEET ->
// CONVICTION ladder. CONVICTION has no successor.
func NextStage(current string) (string, error) {
	for i, s := range stageOrder {
		if s == current {
			if i == len(stageOrder)-1 {
				return "", apperror.Wrap(apperror.ErrValidation, "advance stage",
					fmt.Errorf("stage %s is final", current))
			}
			return stageOrder[i+1], nil
		}
	}
	return "", apperror.Wrap(apperror.ErrValidation, "advance stage",
		fmt.Errorf("unknown stage %q", current))
}
