package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caseServiceFixture struct {
	caseRepo  *fakeCaseRepo
	docRepo   *fakeDocRepo
	userRepo  *fakeUserRepo
	auditRepo *fakeAuditRepo
	svc       CaseService
}

func newCaseServiceFixture() *caseServiceFixture {
	f := &caseServiceFixture{
		caseRepo:  newFakeCaseRepo(),
		docRepo:   &fakeDocRepo{},
		userRepo:  newFakeUserRepo(),
		auditRepo: &fakeAuditRepo{},
	}
	f.svc = NewCaseService(f.caseRepo, f.docRepo, f.userRepo, f.auditRepo, &fakeTxManager{}, nil)
	return f
}

func (f *caseServiceFixture) victim(t *testing.T) (Actor, *model.User) {
	t.Helper()
	u := f.userRepo.add(&model.User{
		Email:    "victim@example.com",
		Phone:    "9876543210",
		FullName: "Asha Devi",
		Role:     model.RoleVictim,
		IsActive: true,
	})
	return Actor{UserID: u.ID.String(), Role: model.RoleVictim}, u
}

func (f *caseServiceFixture) official(t *testing.T) (Actor, *model.User) {
	t.Helper()
	u := f.userRepo.add(&model.User{
		Email:    "officer@example.com",
		FullName: "Officer Kumar",
		Role:     model.RoleOfficial,
		IsActive: true,
	})
	return Actor{UserID: u.ID.String(), Role: model.RoleOfficial}, u
}

func validRegisterRequest() RegisterCaseRequest {
	return RegisterCaseRequest{
		VictimName:          "Asha Devi",
		VictimAadhaar:       "123412341234",
		VictimPhone:         "9876543210",
		VictimEmail:         "victim@example.com",
		IncidentDescription: "Assault near the market",
		IncidentDate:        "2025-01-10T09:30:00Z",
		IncidentLocation:    "Ward 4",
		CompensationAmount:  "50000.00",
		BankAccountNumber:   "001122334455",
		IFSCCode:            "SBIN0001234",
	}
}

func TestRegisterCase(t *testing.T) {
	f := newCaseServiceFixture()
	actor, _ := f.victim(t)

	got, err := f.svc.RegisterCase(context.Background(), actor, validRegisterRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got.CaseNumber, "FC-"), "case number %q", got.CaseNumber)
	assert.Equal(t, model.CaseStatusPending, got.Status)
	assert.Equal(t, model.CaseStageFIR, got.Stage)
	assert.Equal(t, workflow.TabVerification, got.Tab)
	assert.Equal(t, "50000.00", got.CompensationAmount)
	assert.Equal(t, "0.00", got.DisbursedAmount)
	assert.Equal(t, model.ActionRegisterCase, f.auditRepo.lastAction())
}

func TestRegisterCaseRejectsOfficial(t *testing.T) {
	f := newCaseServiceFixture()
	actor, _ := f.official(t)

	_, err := f.svc.RegisterCase(context.Background(), actor, validRegisterRequest())
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)
}

func TestRegisterCaseValidation(t *testing.T) {
	f := newCaseServiceFixture()
	actor, _ := f.victim(t)

	req := validRegisterRequest()
	req.CompensationAmount = "-100"
	_, err := f.svc.RegisterCase(context.Background(), actor, req)
	assert.True(t, apperror.IsKind(err, apperror.ErrValidation), "negative amount: got %v", err)

	req = validRegisterRequest()
	req.IncidentDate = "10-01-2025"
	_, err = f.svc.RegisterCase(context.Background(), actor, req)
	assert.True(t, apperror.IsKind(err, apperror.ErrValidation), "bad date: got %v", err)
}

func TestUpdateStatusApproval(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, officer := f.official(t)

	c := f.caseRepo.add(&model.Case{
		CaseNumber:            "FC-1",
		Status:                model.CaseStatusPending,
		Stage:                 model.CaseStageFIR,
		CompensationAmount:    decimal.NewFromInt(50000),
		DisbursedAmount:       decimal.Zero,
		AssignedOfficerUserID: &officer.ID,
	})

	got, err := f.svc.UpdateStatus(context.Background(), officialActor, c.ID.String(), UpdateCaseStatusRequest{
		Status:  model.CaseStatusApproved,
		Remarks: "Documents verified",
	})
	require.NoError(t, err)

	assert.Equal(t, model.CaseStatusApproved, got.Status)
	assert.Equal(t, workflow.TabFunds, got.Tab)
	assert.Equal(t, "Documents verified", got.Remarks)
	assert.Equal(t, model.ActionCaseStatusChange, f.auditRepo.lastAction())
}

func TestUpdateStatusIllegalEdge(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, _ := f.official(t)

	c := f.caseRepo.add(&model.Case{
		CaseNumber: "FC-2",
		Status:     model.CaseStatusCompleted,
		Stage:      model.CaseStageConviction,
	})

	_, err := f.svc.UpdateStatus(context.Background(), officialActor, c.ID.String(), UpdateCaseStatusRequest{
		Status: model.CaseStatusPending,
	})

	var transitionErr *workflow.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr), "got %v", err)
	assert.Equal(t, model.CaseStatusCompleted, transitionErr.From)

	// State unchanged on failure, and nothing audited.
	stored, _ := f.caseRepo.FindByID(context.Background(), c.ID)
	assert.Equal(t, model.CaseStatusCompleted, stored.Status)
	assert.Empty(t, f.auditRepo.entries)
}

func TestUpdateStatusVictimDenied(t *testing.T) {
	f := newCaseServiceFixture()
	victimActor, _ := f.victim(t)

	c := f.caseRepo.add(&model.Case{
		CaseNumber:  "FC-3",
		Status:      model.CaseStatusPending,
		VictimPhone: "9876543210",
	})

	_, err := f.svc.UpdateStatus(context.Background(), victimActor, c.ID.String(), UpdateCaseStatusRequest{
		Status: model.CaseStatusApproved,
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)
}

func TestUpdateStatusGuardConflict(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, _ := f.official(t)

	c := f.caseRepo.add(&model.Case{
		CaseNumber: "FC-4",
		Status:     model.CaseStatusPending,
	})
	f.caseRepo.guardMisses = 1 // a racing official won the write

	_, err := f.svc.UpdateStatus(context.Background(), officialActor, c.ID.String(), UpdateCaseStatusRequest{
		Status: model.CaseStatusUnderReview,
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrConflict), "got %v", err)
}

func TestAdvanceStage(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, _ := f.official(t)

	c := f.caseRepo.add(&model.Case{
		CaseNumber: "FC-5",
		Status:     model.CaseStatusUnderReview,
		Stage:      model.CaseStageFIR,
	})

	got, err := f.svc.AdvanceStage(context.Background(), officialActor, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.CaseStageChargesheet, got.Stage)

	got, err = f.svc.AdvanceStage(context.Background(), officialActor, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.CaseStageConviction, got.Stage)

	_, err = f.svc.AdvanceStage(context.Background(), officialActor, c.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.ErrValidation), "past final stage: got %v", err)
}

func TestListCasesRoleScoping(t *testing.T) {
	f := newCaseServiceFixture()
	victimActor, victim := f.victim(t)
	officialActor, officer := f.official(t)
	adminActor := Actor{UserID: uuid.NewString(), Role: model.RoleAdmin}

	f.caseRepo.add(&model.Case{CaseNumber: "FC-A", Status: model.CaseStatusPending, VictimPhone: victim.Phone})
	f.caseRepo.add(&model.Case{CaseNumber: "FC-B", Status: model.CaseStatusPending, AssignedOfficerUserID: &officer.ID, VictimPhone: "0000000000"})
	f.caseRepo.add(&model.Case{CaseNumber: "FC-C", Status: model.CaseStatusPending, VictimPhone: "1111111111"})

	mine, total, err := f.svc.ListCases(context.Background(), victimActor, CaseListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "FC-A", mine[0].CaseNumber)

	assigned, total, err := f.svc.ListCases(context.Background(), officialActor, CaseListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "FC-B", assigned[0].CaseNumber)

	_, total, err = f.svc.ListCases(context.Background(), adminActor, CaseListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestGetCaseVisibility(t *testing.T) {
	f := newCaseServiceFixture()
	victimActor, _ := f.victim(t)

	other := f.caseRepo.add(&model.Case{
		CaseNumber:  "FC-X",
		Status:      model.CaseStatusPending,
		VictimPhone: "1111111111",
	})

	_, err := f.svc.GetCase(context.Background(), victimActor, other.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)
}

func TestAssignOfficer(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, officer := f.official(t)

	c := f.caseRepo.add(&model.Case{CaseNumber: "FC-6", Status: model.CaseStatusPending})

	got, err := f.svc.AssignOfficer(context.Background(), officialActor, c.ID.String(), AssignOfficerRequest{
		OfficerUserID: officer.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, got.AssignedOfficerID)
	assert.Equal(t, officer.ID.String(), *got.AssignedOfficerID)
	assert.Equal(t, model.ActionAssignOfficer, f.auditRepo.lastAction())
}

func TestAssignOfficerRejectsNonOfficial(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, _ := f.official(t)
	_, victim := f.victim(t)

	c := f.caseRepo.add(&model.Case{CaseNumber: "FC-7", Status: model.CaseStatusPending})

	_, err := f.svc.AssignOfficer(context.Background(), officialActor, c.ID.String(), AssignOfficerRequest{
		OfficerUserID: victim.ID.String(),
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrValidation), "got %v", err)
}

func TestDeleteCaseAdminOnly(t *testing.T) {
	f := newCaseServiceFixture()
	officialActor, _ := f.official(t)
	adminActor := Actor{UserID: uuid.NewString(), Role: model.RoleAdmin}

	c := f.caseRepo.add(&model.Case{CaseNumber: "FC-8", Status: model.CaseStatusRejected})

	err := f.svc.DeleteCase(context.Background(), officialActor, c.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)

	require.NoError(t, f.svc.DeleteCase(context.Background(), adminActor, c.ID.String()))
	_, err = f.caseRepo.FindByID(context.Background(), c.ID)
	assert.True(t, apperror.IsKind(err, apperror.ErrNotFound))
}
