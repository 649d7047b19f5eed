package service

import (
	"context"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
)

// DashboardStats is the flat shape consumed by the overview page.
type DashboardStats struct {
	TotalCases      int64            `json:"total_cases"`
	TabCounts       map[string]int64 `json:"tab_counts"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`

	FundsAllocated string `json:"funds_allocated"`
	FundsDisbursed string `json:"funds_disbursed"`
	FundsPending   string `json:"funds_pending"`

	TotalGrievances    int64            `json:"total_grievances"`
	GrievanceBreakdown map[string]int64 `json:"grievance_breakdown"`
	HighPriorityOpen   int64            `json:"high_priority_open"`
}

// UserStats summarizes activity for a single caller, scoped by role.
type UserStats struct {
	MyCases         int64            `json:"my_cases"`
	MyGrievances    int64            `json:"my_grievances"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`
}

type DashboardService interface {
	GetStats(ctx context.Context, actor Actor) (*DashboardStats, error)
	GetUserStats(ctx context.Context, actor Actor) (*UserStats, error)
}

type dashboardService struct {
	caseRepo      repository.CaseRepository
	grievanceRepo repository.GrievanceRepository
	userRepo      repository.UserRepository
}

func NewDashboardService(
	caseRepo repository.CaseRepository,
	grievanceRepo repository.GrievanceRepository,
	userRepo repository.UserRepository,
) DashboardService {
	return &dashboardService{
		caseRepo:      caseRepo,
		grievanceRepo: grievanceRepo,
		userRepo:      userRepo,
	}
}

// GetStats aggregates the officer dashboard numbers. The tab counts are
// derived from the status breakdown so both always agree.
func (s *dashboardService) GetStats(ctx context.Context, actor Actor) (*DashboardStats, error) {
	if actor.Role != model.RoleOfficial && actor.Role != model.RoleAdmin {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "dashboard stats",
			fmt.Errorf("role %q may not view dashboard statistics", actor.Role))
	}

	statusCounts, err := s.caseRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count cases by status: %w", err)
	}

	stats := &DashboardStats{
		TabCounts:       map[string]int64{},
		StatusBreakdown: map[string]int64{},
	}
	for _, tab := range workflow.Tabs() {
		stats.TabCounts[tab] = 0
	}
	for _, sc := range statusCounts {
		stats.TotalCases += sc.Count
		stats.StatusBreakdown[sc.Status] = sc.Count
		stats.TabCounts[workflow.Tab(sc.Status)] += sc.Count
	}

	allocated, disbursed, err := s.caseRepo.FundTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum fund totals: %w", err)
	}
	stats.FundsAllocated = allocated.StringFixed(2)
	stats.FundsDisbursed = disbursed.StringFixed(2)
	stats.FundsPending = allocated.Sub(disbursed).StringFixed(2)

	grievanceCounts, err := s.grievanceRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count grievances by status: %w", err)
	}
	stats.GrievanceBreakdown = map[string]int64{}
	for _, gc := range grievanceCounts {
		stats.TotalGrievances += gc.Count
		stats.GrievanceBreakdown[gc.Status] = gc.Count
	}

	critical, err := s.grievanceRepo.CountByPriority(ctx, model.GrievancePriorityCritical)
	if err != nil {
		return nil, fmt.Errorf("failed to count critical grievances: %w", err)
	}
	high, err := s.grievanceRepo.CountByPriority(ctx, model.GrievancePriorityHigh)
	if err != nil {
		return nil, fmt.Errorf("failed to count high-priority grievances: %w", err)
	}
	stats.HighPriorityOpen = critical + high

	return stats, nil
}

func (s *dashboardService) GetUserStats(ctx context.Context, actor Actor) (*UserStats, error) {
	caseFilter := repository.CaseFilter{}
	switch actor.Role {
	case model.RoleAdmin:
		// admins see global counts
	case model.RoleOfficial:
		caseFilter.OfficerUserID = actor.uid()
	case model.RoleVictim:
		user, err := s.userRepo.GetByID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		caseFilter.VictimPhone = user.Phone
		caseFilter.VictimEmail = user.Email
	default:
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "user stats",
			fmt.Errorf("unknown role %q", actor.Role))
	}

	stats := &UserStats{StatusBreakdown: map[string]int64{}}

	for _, status := range workflow.Statuses() {
		filter := caseFilter
		filter.Status = status
		count, err := s.caseRepo.Count(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count cases: %w", err)
		}
		if count > 0 {
			stats.StatusBreakdown[status] = count
		}
		stats.MyCases += count
	}

	grievanceFilter := repository.GrievanceFilter{}
	if actor.Role != model.RoleAdmin {
		ids, err := s.caseRepo.VisibleCaseIDs(ctx, caseFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to scope grievances: %w", err)
		}
		grievanceFilter.CaseIDs = ids
		if len(ids) == 0 {
			stats.MyGrievances = 0
			return stats, nil
		}
	}
	grievanceCount, err := s.grievanceRepo.Count(ctx, grievanceFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count grievances: %w", err)
	}
	stats.MyGrievances = grievanceCount

	return stats, nil
}
