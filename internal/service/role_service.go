package service

import (
	"context"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	txManager repository.TransactionManager
}

func NewRoleService(repo repository.RoleRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{repo: repo, txManager: txManager}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, "get role",
			fmt.Errorf("invalid role id: %w", err))
	}

	role, err := s.repo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "get role", err)
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	permIDs := make([]uuid.UUID, 0, len(req.Permissions))
	for _, pid := range req.Permissions {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, apperror.Wrap(apperror.ErrValidation, "create role",
				fmt.Errorf("invalid permission id '%s': %w", pid, parseErr))
		}
		permIDs = append(permIDs, parsed)
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, &role); createErr != nil {
			return fmt.Errorf("failed to create role: %w", createErr)
		}
		if len(permIDs) > 0 {
			if assocErr := s.repo.AssociatePermissions(txCtx, role.ID, permIDs); assocErr != nil {
				return fmt.Errorf("failed to assign permissions: %w", assocErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with permissions
	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, "update role",
			fmt.Errorf("invalid role id: %w", err))
	}

	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "update role", err)
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Wrap(apperror.ErrValidation, "delete role",
			fmt.Errorf("invalid role id: %w", err))
	}

	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return apperror.Wrap(apperror.ErrNotFound, "delete role", err)
	}

	if role.IsSystem {
		return apperror.Wrap(apperror.ErrValidation, "delete role",
			fmt.Errorf("cannot delete system role '%s'", role.Name))
	}

	// Drop associations before deleting the role row
	if err := s.repo.UpdatePermissions(ctx, roleID, []uuid.UUID{}); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}

	if err := s.repo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrValidation, "update role permissions",
			fmt.Errorf("invalid role id: %w", err))
	}

	permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, pid := range req.PermissionIDs {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, apperror.Wrap(apperror.ErrValidation, "update role permissions",
				fmt.Errorf("invalid permission id '%s': %w", pid, parseErr))
		}
		permIDs = append(permIDs, parsed)
	}

	if err := s.repo.UpdatePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	return s.GetRole(ctx, roleID)
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.repo.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "role permissions",
			fmt.Errorf("role '%s' not found: %w", roleName, err))
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	defaultPermissions := []model.Permission{
		{Code: "dashboard.read", Name: "View dashboard & statistics", Group: "dashboard"},
		{Code: "cases.read", Name: "View cases", Group: "cases"},
		{Code: "cases.write", Name: "Register & edit cases", Group: "cases"},
		{Code: "cases.approve", Name: "Approve / reject cases", Group: "cases"},
		{Code: "cases.disburse", Name: "Process compensation payments", Group: "cases"},
		{Code: "cases.assign", Name: "Assign investigating officers", Group: "cases"},
		{Code: "cases.delete", Name: "Delete cases", Group: "cases"},
		{Code: "documents.write", Name: "Upload case documents", Group: "cases"},
		{Code: "grievances.read", Name: "View grievances", Group: "grievances"},
		{Code: "grievances.write", Name: "Submit grievances", Group: "grievances"},
		{Code: "grievances.resolve", Name: "Resolve & escalate grievances", Group: "grievances"},
		{Code: "grievances.delete", Name: "Delete grievances", Group: "grievances"},
		{Code: "users.read", Name: "View users", Group: "users"},
		{Code: "users.write", Name: "Manage users", Group: "users"},
		{Code: "users.delete", Name: "Delete users", Group: "users"},
		{Code: "audit.read", Name: "View audit trail", Group: "audit"},
		{Code: "roles.manage", Name: "Manage roles & permissions", Group: "roles"},
	}

	// Upsert permissions
	for i := range defaultPermissions {
		p := &defaultPermissions[i]
		if err := s.repo.FindOrCreatePermission(ctx, p); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
		}
	}

	permByCode := make(map[string]model.Permission)
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	roleDefinitions := []struct {
		Name        string
		Description string
		PermCodes   []string
	}{
		{
			Name:        model.RoleAdmin,
			Description: "Administrator with full system access",
			PermCodes: []string{
				"dashboard.read",
				"cases.read", "cases.write", "cases.approve", "cases.disburse",
				"cases.assign", "cases.delete", "documents.write",
				"grievances.read", "grievances.write", "grievances.resolve", "grievances.delete",
				"users.read", "users.write", "users.delete",
				"audit.read", "roles.manage",
			},
		},
		{
			Name:        model.RoleOfficial,
			Description: "District officer handling verification, approval and disbursement",
			PermCodes: []string{
				"dashboard.read",
				"cases.read", "cases.approve", "cases.disburse", "cases.assign",
				"documents.write",
				"grievances.read", "grievances.resolve",
				"audit.read",
			},
		},
		{
			Name:        model.RoleVictim,
			Description: "Victim registering cases and submitting grievances",
			PermCodes: []string{
				"cases.read", "cases.write", "documents.write",
				"grievances.read", "grievances.write",
			},
		},
	}

	for _, def := range roleDefinitions {
		role, err := s.repo.FindByName(ctx, def.Name)
		if err != nil {
			role = &model.Role{
				Name:        def.Name,
				Description: def.Description,
				IsSystem:    true,
			}
			if createErr := s.repo.Create(ctx, role); createErr != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, createErr)
			}
		}

		permIDs := make([]uuid.UUID, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				permIDs = append(permIDs, p.ID)
			}
		}
		if err := s.repo.UpdatePermissions(ctx, role.ID, permIDs); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
