package service

import (
	"context"
	"fmt"
	"log"

	"storetrack/internal/model"
	"storetrack/internal/repository"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=50"`
	Description string `form:"description" json:"description" binding:"omitempty,max=255"`
}

type UpdateRoleRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=50"`
	Description string `form:"description" json:"description" binding:"omitempty,max=255"`
}

type PermissionResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Permissions []PermissionResponse `json:"permissions"`
}

// RoleService defines business logic for roles and the permission registry.
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id uint) (*RoleResponse, error)
	CreateRole(ctx context.Context, actorID *uint, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actorID *uint, id uint) error

	AddPermission(ctx context.Context, roleID, permissionID uint) (*RoleResponse, error)
	RemovePermission(ctx context.Context, roleID, permissionID uint) (*RoleResponse, error)
	RoleHasPermission(ctx context.Context, roleID uint, name string) (bool, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
}

type roleService struct {
	repo      repository.RoleRepository
	auditRepo repository.AuditRepository
}

func NewRoleService(repo repository.RoleRepository, auditRepo repository.AuditRepository) RoleService {
	return &roleService{repo: repo, auditRepo: auditRepo}
}

// --- Implementation ---

func toPermissionResponse(p model.Permission) PermissionResponse {
	res := PermissionResponse{ID: p.ID, Name: p.Name}
	if p.Description != nil {
		res.Description = *p.Description
	}
	return res
}

func toRoleResponse(r *model.Role) *RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	res := &RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: perms,
	}
	if r.Description != nil {
		res.Description = *r.Description
	}
	return res
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		res = append(res, *toRoleResponse(&roles[i]))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*RoleResponse, error) {
	role, err := s.repo.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, id)
	}
	return toRoleResponse(role), nil
}

func (s *roleService) CreateRole(ctx context.Context, actorID *uint, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		s.auditConflict(ctx, actorID, "role", req.Name)
		return nil, fmt.Errorf("%w: role '%s'", ErrConflict, req.Name)
	}

	role := &model.Role{
		Name:        req.Name,
		Description: optional(req.Description),
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.auditAction(ctx, actorID, model.ActionCreateRole, role.ID, role.Name)
	return toRoleResponse(role), nil
}

func (s *roleService) UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, id)
	}

	if req.Name != role.Name {
		if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
			return nil, fmt.Errorf("%w: role '%s'", ErrConflict, req.Name)
		}
	}

	role.Name = req.Name
	role.Description = optional(req.Description)
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, actorID *uint, id uint) error {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: role %d", ErrNotFound, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.auditAction(ctx, actorID, model.ActionDeleteRole, id, role.Name)
	return nil
}

func (s *roleService) AddPermission(ctx context.Context, roleID, permissionID uint) (*RoleResponse, error) {
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	perm, err := s.repo.FindPermissionByID(ctx, permissionID)
	if err != nil {
		return nil, fmt.Errorf("%w: permission %d", ErrNotFound, permissionID)
	}

	if err := s.repo.AddPermission(ctx, role, perm); err != nil {
		return nil, fmt.Errorf("failed to add permission: %w", err)
	}
	return s.GetRole(ctx, roleID)
}

// RemovePermission detaches a permission from a role. Removing a
// permission the role does not carry is a no-op, not an error.
func (s *roleService) RemovePermission(ctx context.Context, roleID, permissionID uint) (*RoleResponse, error) {
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	perm, err := s.repo.FindPermissionByID(ctx, permissionID)
	if err != nil {
		return nil, fmt.Errorf("%w: permission %d", ErrNotFound, permissionID)
	}

	if err := s.repo.RemovePermission(ctx, role, perm); err != nil {
		return nil, fmt.Errorf("failed to remove permission: %w", err)
	}
	return s.GetRole(ctx, roleID)
}

func (s *roleService) RoleHasPermission(ctx context.Context, roleID uint, name string) (bool, error) {
	role, err := s.repo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return false, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	return role.HasPermission(name), nil
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

func (s *roleService) auditAction(ctx context.Context, actorID *uint, action string, entityID uint, name string) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   fmt.Sprintf("%d", entityID),
		EntityName: name,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}

func (s *roleService) auditConflict(ctx context.Context, actorID *uint, entity, name string) {
	log.Printf("rejected duplicate %s create: %q", entity, name)
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     model.ActionRejectDuplicate,
		EntityName: name,
		Details:    fmt.Sprintf(`{"entity":%q,"name":%q}`, entity, name),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}
