package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grievanceServiceFixture struct {
	grievanceRepo *fakeGrievanceRepo
	caseRepo      *fakeCaseRepo
	userRepo      *fakeUserRepo
	auditRepo     *fakeAuditRepo
	notifier      *fakeNotifier
	svc           GrievanceService
}

func newGrievanceServiceFixture() *grievanceServiceFixture {
	f := &grievanceServiceFixture{
		grievanceRepo: newFakeGrievanceRepo(),
		caseRepo:      newFakeCaseRepo(),
		userRepo:      newFakeUserRepo(),
		auditRepo:     &fakeAuditRepo{},
		notifier:      &fakeNotifier{},
	}
	f.svc = NewGrievanceService(f.grievanceRepo, f.caseRepo, f.userRepo, f.auditRepo,
		&fakeTxManager{}, nil, f.notifier, "officer@district.gov.in")
	return f
}

func (f *grievanceServiceFixture) victimWithCase(t *testing.T) (Actor, *model.Case) {
	t.Helper()
	u := f.userRepo.add(&model.User{
		Email:    "victim@example.com",
		Phone:    "9876543210",
		FullName: "Asha Devi",
		Role:     model.RoleVictim,
		IsActive: true,
	})
	c := f.caseRepo.add(&model.Case{
		CaseNumber:  "FC-100",
		Status:      model.CaseStatusPending,
		VictimPhone: u.Phone,
		VictimEmail: u.Email,
	})
	return Actor{UserID: u.ID.String(), Role: model.RoleVictim}, c
}

func TestCreateGrievanceAssignsPriority(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, c := f.victimWithCase(t)

	got, err := f.svc.CreateGrievance(context.Background(), actor, CreateGrievanceRequest{
		CaseID:       c.ID.String(),
		Title:        "Compensation payment delayed",
		Description:  "Approved three months ago, nothing received",
		Category:     "disbursement",
		ContactName:  "Asha Devi",
		ContactPhone: "9876543210",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got.GrievanceNumber, "GR-"), "grievance number %q", got.GrievanceNumber)
	assert.Equal(t, model.GrievancePriorityMedium, got.Priority)
	assert.Equal(t, model.GrievanceStatusOpen, got.Status)
	assert.Equal(t, model.ActionCreateGrievance, f.auditRepo.lastAction())
	assert.Empty(t, f.notifier.sent, "MEDIUM intake must not alert")
}

func TestCreateGrievanceCriticalAlerts(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, c := f.victimWithCase(t)

	got, err := f.svc.CreateGrievance(context.Background(), actor, CreateGrievanceRequest{
		CaseID:       c.ID.String(),
		Title:        "Accused issued death threats",
		Description:  "My family is in danger",
		Category:     "safety",
		ContactName:  "Asha Devi",
		ContactPhone: "9876543210",
	})
	require.NoError(t, err)

	assert.Equal(t, model.GrievancePriorityCritical, got.Priority)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, got.GrievanceNumber, f.notifier.sent[0])
}

func TestCreateGrievanceUnknownCase(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, _ := f.victimWithCase(t)

	_, err := f.svc.CreateGrievance(context.Background(), actor, CreateGrievanceRequest{
		CaseID:       uuid.NewString(),
		Title:        "Some complaint",
		Description:  "Detail text here",
		Category:     "other",
		ContactName:  "Asha Devi",
		ContactPhone: "9876543210",
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrNotFound), "got %v", err)
}

func TestCreateGrievanceForeignCaseDenied(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, _ := f.victimWithCase(t)

	foreign := f.caseRepo.add(&model.Case{
		CaseNumber:  "FC-200",
		Status:      model.CaseStatusPending,
		VictimPhone: "1111111111",
	})

	_, err := f.svc.CreateGrievance(context.Background(), actor, CreateGrievanceRequest{
		CaseID:       foreign.ID.String(),
		Title:        "Some complaint",
		Description:  "Detail text here",
		Category:     "other",
		ContactName:  "Asha Devi",
		ContactPhone: "9876543210",
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)
}

func TestClassifyPreviewIsPure(t *testing.T) {
	f := newGrievanceServiceFixture()

	got := f.svc.ClassifyPreview(ClassifyPreviewRequest{
		Title:       "urgent medical help needed",
		Description: "",
	})
	assert.Equal(t, model.GrievancePriorityHigh, got.Priority)
	assert.Empty(t, f.grievanceRepo.grievances, "preview must not persist")
}

func TestUpdateGrievanceResolveStamps(t *testing.T) {
	f := newGrievanceServiceFixture()
	_, c := f.victimWithCase(t)
	officer := f.userRepo.add(&model.User{
		Email:    "officer@example.com",
		FullName: "Officer Kumar",
		Role:     model.RoleOfficial,
		IsActive: true,
	})
	adminActor := Actor{UserID: officer.ID.String(), Role: model.RoleAdmin}

	g := &model.Grievance{
		GrievanceNumber: "GR-1",
		CaseID:          c.ID,
		Title:           "Payment delayed",
		Priority:        model.GrievancePriorityMedium,
		Status:          model.GrievanceStatusOpen,
	}
	require.NoError(t, f.grievanceRepo.Create(context.Background(), g))

	got, err := f.svc.UpdateGrievance(context.Background(), adminActor, g.ID.String(), UpdateGrievanceRequest{
		Status:          model.GrievanceStatusResolved,
		ResolutionNotes: "Payment released on 2025-02-01",
	})
	require.NoError(t, err)

	assert.Equal(t, model.GrievanceStatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, "Officer Kumar", got.ResolvedBy)
	assert.Equal(t, "Payment released on 2025-02-01", got.ResolutionNotes)
	assert.Equal(t, model.ActionUpdateGrievance, f.auditRepo.lastAction())
}

func TestUpdateGrievanceEscalation(t *testing.T) {
	f := newGrievanceServiceFixture()
	_, c := f.victimWithCase(t)
	adminActor := Actor{UserID: uuid.NewString(), Role: model.RoleAdmin}

	g := &model.Grievance{
		GrievanceNumber: "GR-2",
		CaseID:          c.ID,
		Title:           "No response from office",
		Priority:        model.GrievancePriorityLow,
		Status:          model.GrievanceStatusOpen,
	}
	require.NoError(t, f.grievanceRepo.Create(context.Background(), g))

	got, err := f.svc.UpdateGrievance(context.Background(), adminActor, g.ID.String(), UpdateGrievanceRequest{
		Status: model.GrievanceStatusEscalated,
	})
	require.NoError(t, err)

	assert.True(t, got.IsEscalated)
	assert.Equal(t, model.ActionEscalateGrievance, f.auditRepo.lastAction())
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "GR-2", f.notifier.sent[0])
}

func TestUpdateGrievanceVictimDenied(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, c := f.victimWithCase(t)

	g := &model.Grievance{
		GrievanceNumber: "GR-3",
		CaseID:          c.ID,
		Status:          model.GrievanceStatusOpen,
	}
	require.NoError(t, f.grievanceRepo.Create(context.Background(), g))

	_, err := f.svc.UpdateGrievance(context.Background(), actor, g.ID.String(), UpdateGrievanceRequest{
		Status: model.GrievanceStatusResolved,
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)
}

func TestUpdateGrievanceUnknownStatus(t *testing.T) {
	f := newGrievanceServiceFixture()
	_, c := f.victimWithCase(t)
	adminActor := Actor{UserID: uuid.NewString(), Role: model.RoleAdmin}

	g := &model.Grievance{GrievanceNumber: "GR-4", CaseID: c.ID, Status: model.GrievanceStatusOpen}
	require.NoError(t, f.grievanceRepo.Create(context.Background(), g))

	_, err := f.svc.UpdateGrievance(context.Background(), adminActor, g.ID.String(), UpdateGrievanceRequest{
		Status: "ARCHIVED",
	})
	assert.True(t, apperror.IsKind(err, apperror.ErrValidation), "got %v", err)
}

func TestListGrievancesVictimScoped(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, c := f.victimWithCase(t)

	foreign := f.caseRepo.add(&model.Case{
		CaseNumber:  "FC-300",
		Status:      model.CaseStatusPending,
		VictimPhone: "1111111111",
	})

	require.NoError(t, f.grievanceRepo.Create(context.Background(), &model.Grievance{
		GrievanceNumber: "GR-MINE", CaseID: c.ID, Status: model.GrievanceStatusOpen,
	}))
	require.NoError(t, f.grievanceRepo.Create(context.Background(), &model.Grievance{
		GrievanceNumber: "GR-OTHER", CaseID: foreign.ID, Status: model.GrievanceStatusOpen,
	}))

	got, total, err := f.svc.ListGrievances(context.Background(), actor, GrievanceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "GR-MINE", got[0].GrievanceNumber)
}

func TestDeleteGrievanceAdminOnly(t *testing.T) {
	f := newGrievanceServiceFixture()
	actor, c := f.victimWithCase(t)
	adminActor := Actor{UserID: uuid.NewString(), Role: model.RoleAdmin}

	g := &model.Grievance{GrievanceNumber: "GR-5", CaseID: c.ID, Status: model.GrievanceStatusOpen}
	require.NoError(t, f.grievanceRepo.Create(context.Background(), g))

	err := f.svc.DeleteGrievance(context.Background(), actor, g.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.ErrPermissionDenied), "got %v", err)

	require.NoError(t, f.svc.DeleteGrievance(context.Background(), adminActor, g.ID.String()))
	assert.Empty(t, f.grievanceRepo.grievances)
}
