package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backend/internal/apperror"
	"backend/internal/classifier"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateGrievanceRequest struct {
	CaseID       string `json:"case_id" binding:"required"`
	Title        string `json:"title" binding:"required,min=5"`
	Description  string `json:"description" binding:"required,min=10"`
	Category     string `json:"category" binding:"required"`
	ContactName  string `json:"contact_name" binding:"required"`
	ContactPhone string `json:"contact_phone" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

type ClassifyPreviewRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type ClassifyPreviewResponse struct {
	Priority string `json:"priority"`
}

type UpdateGrievanceRequest struct {
	Status          string `json:"status" binding:"required"`
	ResolutionNotes string `json:"resolution_notes"`
}

type GrievanceListFilter struct {
	CaseID   string
	Status   string
	Priority string
	Page     int
	Limit    int
}

type GrievanceResponse struct {
	ID              string  `json:"id"`
	GrievanceNumber string  `json:"grievance_number"`
	CaseID          string  `json:"case_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Priority        string  `json:"priority"`
	Status          string  `json:"status"`
	ContactName     string  `json:"contact_name"`
	ContactPhone    string  `json:"contact_phone"`
	ContactEmail    string  `json:"contact_email,omitempty"`
	ResolutionNotes string  `json:"resolution_notes,omitempty"`
	ResolvedAt      *string `json:"resolved_at"`
	ResolvedBy      string  `json:"resolved_by,omitempty"`
	IsEscalated     bool    `json:"is_escalated"`
	CreatedAt       string  `json:"created_at"`
}

// GrievanceNotifier sends best-effort alerts; a nil notifier disables them.
type GrievanceNotifier interface {
	SendGrievanceAlert(to, grievanceNumber, priority, title string) error
}

// --- Interface ---

type GrievanceService interface {
	CreateGrievance(ctx context.Context, actor Actor, req CreateGrievanceRequest) (*GrievanceResponse, error)
	ClassifyPreview(req ClassifyPreviewRequest) ClassifyPreviewResponse
	ListGrievances(ctx context.Context, actor Actor, filter GrievanceListFilter) ([]GrievanceResponse, int64, error)
	GetGrievance(ctx context.Context, actor Actor, id string) (*GrievanceResponse, error)
	UpdateGrievance(ctx context.Context, actor Actor, id string, req UpdateGrievanceRequest) (*GrievanceResponse, error)
	DeleteGrievance(ctx context.Context, actor Actor, id string) error
}

type grievanceService struct {
	grievanceRepo repository.GrievanceRepository
	caseRepo      repository.CaseRepository
	userRepo      repository.UserRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
	notifier      GrievanceNotifier
	alertEmail    string // officer mailbox for CRITICAL/escalation alerts
}

func NewGrievanceService(
	grievanceRepo repository.GrievanceRepository,
	caseRepo repository.CaseRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	notifier GrievanceNotifier,
	alertEmail string,
) GrievanceService {
	return &grievanceService{
		grievanceRepo: grievanceRepo,
		caseRepo:      caseRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
		notifier:      notifier,
		alertEmail:    alertEmail,
	}
}

// --- Implementation ---

func (s *grievanceService) CreateGrievance(ctx context.Context, actor Actor, req CreateGrievanceRequest) (*GrievanceResponse, error) {
	caseID, err := uuid.Parse(req.CaseID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, "create grievance",
			fmt.Errorf("invalid case_id: %w", err))
	}

	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCaseAccess(ctx, actor, c); err != nil {
		return nil, err
	}

	priority := classifier.Classify(req.Title, req.Description, req.Category)

	g := model.Grievance{
		GrievanceNumber: generateGrievanceNumber(),
		CaseID:          c.ID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Priority:        priority,
		Status:          model.GrievanceStatusOpen,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		ContactEmail:    req.ContactEmail,
		CreatedByUserID: actor.uid(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.grievanceRepo.Create(txCtx, &g); createErr != nil {
			return fmt.Errorf("failed to create grievance: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"grievance_number": g.GrievanceNumber,
			"case_number":      c.CaseNumber,
			"priority":         priority,
		})
		audit := &model.AuditLog{
			UserID:     actor.uid(),
			Action:     model.ActionCreateGrievance,
			EntityID:   g.ID.String(),
			EntityName: g.GrievanceNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("grievance_created", map[string]interface{}{
		"grievance_number": g.GrievanceNumber,
		"case_number":      c.CaseNumber,
		"priority":         priority,
	})

	if priority == model.GrievancePriorityCritical {
		s.alert(g)
	}

	resp := toGrievanceResponse(g)
	return &resp, nil
}

// ClassifyPreview runs the classifier without persisting anything, so the
// form can show the predicted tier before submission.
func (s *grievanceService) ClassifyPreview(req ClassifyPreviewRequest) ClassifyPreviewResponse {
	return ClassifyPreviewResponse{
		Priority: classifier.Classify(req.Title, req.Description, req.Category),
	}
}

func (s *grievanceService) ListGrievances(ctx context.Context, actor Actor, filter GrievanceListFilter) ([]GrievanceResponse, int64, error) {
	repoFilter := repository.GrievanceFilter{
		Status:   filter.Status,
		Priority: filter.Priority,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	if filter.CaseID != "" {
		caseID, err := uuid.Parse(filter.CaseID)
		if err != nil {
			return nil, 0, apperror.Wrap(apperror.ErrValidation, "list grievances",
				fmt.Errorf("invalid case_id: %w", err))
		}
		repoFilter.CaseID = &caseID
	}

	// Non-admin callers only see grievances attached to cases visible to them
	if actor.Role != model.RoleAdmin {
		caseFilter := repository.CaseFilter{}
		switch actor.Role {
		case model.RoleOfficial:
			caseFilter.OfficerUserID = actor.uid()
		case model.RoleVictim:
			user, err := s.userRepo.GetByID(ctx, actor.UserID)
			if err != nil {
				return nil, 0, err
			}
			caseFilter.VictimPhone = user.Phone
			caseFilter.VictimEmail = user.Email
		default:
			return nil, 0, apperror.Wrap(apperror.ErrPermissionDenied, "list grievances",
				fmt.Errorf("unknown role %q", actor.Role))
		}
		ids, err := s.caseRepo.VisibleCaseIDs(ctx, caseFilter)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scope grievances: %w", err)
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		repoFilter.CaseIDs = ids
	}

	grievances, total, err := s.grievanceRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch grievances: %w", err)
	}

	res := make([]GrievanceResponse, 0, len(grievances))
	for _, g := range grievances {
		res = append(res, toGrievanceResponse(g))
	}
	return res, total, nil
}

func (s *grievanceService) GetGrievance(ctx context.Context, actor Actor, id string) (*GrievanceResponse, error) {
	g, err := s.loadVisibleGrievance(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toGrievanceResponse(*g)
	return &resp, nil
}

// UpdateGrievance lets officials and admins move a grievance through its
// lifecycle. Entering RESOLVED or CLOSED stamps resolved_at/resolved_by
// exactly once; ESCALATED flags the record and alerts the officer mailbox.
func (s *grievanceService) UpdateGrievance(ctx context.Context, actor Actor, id string, req UpdateGrievanceRequest) (*GrievanceResponse, error) {
	if actor.Role != model.RoleOfficial && actor.Role != model.RoleAdmin {
		return nil, apperror.Wrap(apperror.ErrPermissionDenied, "update grievance",
			fmt.Errorf("role %q may not update grievances", actor.Role))
	}

	if !isGrievanceStatus(req.Status) {
		return nil, apperror.Wrap(apperror.ErrValidation, "update grievance",
			fmt.Errorf("unknown status %q", req.Status))
	}

	g, err := s.loadVisibleGrievance(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	g.Status = req.Status
	if req.ResolutionNotes != "" {
		g.ResolutionNotes = req.ResolutionNotes
	}

	action := model.ActionUpdateGrievance
	switch req.Status {
	case model.GrievanceStatusResolved, model.GrievanceStatusClosed:
		if g.ResolvedAt == nil {
			now := time.Now()
			g.ResolvedAt = &now
			if user, userErr := s.userRepo.GetByID(ctx, actor.UserID); userErr == nil {
				g.ResolvedBy = user.FullName
			}
		}
	case model.GrievanceStatusEscalated:
		g.IsEscalated = true
		action = model.ActionEscalateGrievance
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updErr := s.grievanceRepo.Update(txCtx, g); updErr != nil {
			return fmt.Errorf("failed to update grievance: %w", updErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"status": req.Status,
			"notes":  req.ResolutionNotes,
		})
		audit := &model.AuditLog{
			UserID:     actor.uid(),
			Action:     action,
			EntityID:   g.ID.String(),
			EntityName: g.GrievanceNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status == model.GrievanceStatusEscalated {
		s.alert(*g)
	}

	resp := toGrievanceResponse(*g)
	return &resp, nil
}

func (s *grievanceService) DeleteGrievance(ctx context.Context, actor Actor, id string) error {
	if actor.Role != model.RoleAdmin {
		return apperror.Wrap(apperror.ErrPermissionDenied, "delete grievance",
			fmt.Errorf("only admins may delete grievances"))
	}

	grievanceID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Wrap(apperror.ErrValidation, "delete grievance",
			fmt.Errorf("invalid grievance id: %w", err))
	}

	g, err := s.grievanceRepo.FindByID(ctx, grievanceID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.grievanceRepo.Delete(txCtx, grievanceID); delErr != nil {
			return fmt.Errorf("failed to delete grievance: %w", delErr)
		}

		audit := &model.AuditLog{
			UserID:     actor.uid(),
			Action:     model.ActionDeleteGrievance,
			EntityID:   g.ID.String(),
			EntityName: g.GrievanceNumber,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

// --- Helpers ---

// checkCaseAccess mirrors the case-visibility rules for grievance writes:
// a grievance may only target a case the submitter can see.
func (s *grievanceService) checkCaseAccess(ctx context.Context, actor Actor, c *model.Case) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleOfficial:
		uid := actor.uid()
		if uid != nil &&
			((c.AssignedOfficerUserID != nil && *c.AssignedOfficerUserID == *uid) ||
				(c.CreatedByUserID != nil && *c.CreatedByUserID == *uid)) {
			return nil
		}
		return apperror.Wrap(apperror.ErrPermissionDenied, "grievance access",
			fmt.Errorf("case %s is not assigned to you", c.CaseNumber))
	case model.RoleVictim:
		user, err := s.userRepo.GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if (user.Phone != "" && c.VictimPhone == user.Phone) ||
			(user.Email != "" && c.VictimEmail == user.Email) {
			return nil
		}
		return apperror.Wrap(apperror.ErrPermissionDenied, "grievance access",
			fmt.Errorf("case %s does not belong to you", c.CaseNumber))
	default:
		return apperror.Wrap(apperror.ErrPermissionDenied, "grievance access",
			fmt.Errorf("unknown role %q", actor.Role))
	}
}

func (s *grievanceService) loadVisibleGrievance(ctx context.Context, actor Actor, id string) (*model.Grievance, error) {
	grievanceID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, "get grievance",
			fmt.Errorf("invalid grievance id: %w", err))
	}

	g, err := s.grievanceRepo.FindByID(ctx, grievanceID)
	if err != nil {
		return nil, err
	}

	c := g.Case
	if c == nil {
		loaded, caseErr := s.caseRepo.FindByID(ctx, g.CaseID)
		if caseErr != nil {
			return nil, caseErr
		}
		c = loaded
	}

	if err := s.checkCaseAccess(ctx, actor, c); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *grievanceService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(CaseEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}

// alert sends a best-effort email; delivery failures never fail the request.
func (s *grievanceService) alert(g model.Grievance) {
	if s.notifier == nil || s.alertEmail == "" {
		return
	}
	if err := s.notifier.SendGrievanceAlert(s.alertEmail, g.GrievanceNumber, g.Priority, g.Title); err != nil {
		log.Printf("grievance alert for %s failed: %v", g.GrievanceNumber, err)
	}
}

func isGrievanceStatus(s string) bool {
	switch s {
	case model.GrievanceStatusOpen, model.GrievanceStatusInProgress,
		model.GrievanceStatusResolved, model.GrievanceStatusClosed,
		model.GrievanceStatusEscalated:
		return true
	}
	return false
}

// generateGrievanceNumber builds a millisecond-resolution number such as
// GR-20250115103045123.
func generateGrievanceNumber() string {
	now := time.Now()
	return fmt.Sprintf("GR-%s%03d", now.Format("20060102150405"), now.Nanosecond()/1e6)
}

func toGrievanceResponse(g model.Grievance) GrievanceResponse {
	resp := GrievanceResponse{
		ID:              g.ID.String(),
		GrievanceNumber: g.GrievanceNumber,
		CaseID:          g.CaseID.String(),
		Title:           g.Title,
		Description:     g.Description,
		Category:        g.Category,
		Priority:        g.Priority,
		Status:          g.Status,
		ContactName:     g.ContactName,
		ContactPhone:    g.ContactPhone,
		ContactEmail:    g.ContactEmail,
		ResolutionNotes: g.ResolutionNotes,
		ResolvedBy:      g.ResolvedBy,
		IsEscalated:     g.IsEscalated,
		CreatedAt:       g.CreatedAt.Format(time.RFC3339),
	}
	if g.ResolvedAt != nil {
		t := g.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &t
	}
	return resp
}
