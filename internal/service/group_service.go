package service

import (
	"context"
	"fmt"
	"log"

	"storetrack/internal/model"
	"storetrack/internal/repository"
)

// --- DTOs ---

type CreateGroupRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=50"`
	Description string `form:"description" json:"description" binding:"omitempty,max=255"`
}

type UpdateGroupRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=50"`
	Description string `form:"description" json:"description" binding:"omitempty,max=255"`
}

type GroupResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Roles       []RoleResponse `json:"roles"`
	Members     []UserResponse `json:"members,omitempty"`
}

// GroupService defines business logic for groups: the unit that binds
// users to roles.
type GroupService interface {
	ListGroups(ctx context.Context) ([]GroupResponse, error)
	GetGroup(ctx context.Context, id uint) (*GroupResponse, error)
	CreateGroup(ctx context.Context, actorID *uint, req CreateGroupRequest) (*GroupResponse, error)
	UpdateGroup(ctx context.Context, id uint, req UpdateGroupRequest) (*GroupResponse, error)
	DeleteGroup(ctx context.Context, actorID *uint, id uint) error

	AddRole(ctx context.Context, groupID, roleID uint) error
	RemoveRole(ctx context.Context, groupID, roleID uint) error
	AddUser(ctx context.Context, groupID, userID uint) error
	RemoveUser(ctx context.Context, groupID, userID uint) error
}

type groupService struct {
	repo      repository.GroupRepository
	roleRepo  repository.RoleRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
}

func NewGroupService(
	repo repository.GroupRepository,
	roleRepo repository.RoleRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
) GroupService {
	return &groupService{
		repo:      repo,
		roleRepo:  roleRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

func toGroupResponse(g *model.Group) *GroupResponse {
	roles := make([]RoleResponse, 0, len(g.Roles))
	for i := range g.Roles {
		roles = append(roles, *toRoleResponse(&g.Roles[i]))
	}
	members := make([]UserResponse, 0, len(g.Users))
	for i := range g.Users {
		members = append(members, *mapUser(&g.Users[i]))
	}

	res := &GroupResponse{
		ID:      g.ID,
		Name:    g.Name,
		Roles:   roles,
		Members: members,
	}
	if g.Description != nil {
		res.Description = *g.Description
	}
	return res
}

func (s *groupService) ListGroups(ctx context.Context) ([]GroupResponse, error) {
	groups, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}

	res := make([]GroupResponse, 0, len(groups))
	for i := range groups {
		res = append(res, *toGroupResponse(&groups[i]))
	}
	return res, nil
}

func (s *groupService) GetGroup(ctx context.Context, id uint) (*GroupResponse, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, id)
	}
	return toGroupResponse(group), nil
}

// CreateGroup rejects duplicate names. The pre-check below races with a
// concurrent create of the same name; the unique index on group names
// backstops it so the loser of the race still fails instead of
// duplicating.
func (s *groupService) CreateGroup(ctx context.Context, actorID *uint, req CreateGroupRequest) (*GroupResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		s.auditConflict(ctx, actorID, "group", req.Name)
		return nil, fmt.Errorf("%w: group '%s'", ErrConflict, req.Name)
	}

	group := &model.Group{
		Name:        req.Name,
		Description: optional(req.Description),
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.auditAction(ctx, actorID, model.ActionCreateGroup, group.ID, group.Name)
	return toGroupResponse(group), nil
}

func (s *groupService) UpdateGroup(ctx context.Context, id uint, req UpdateGroupRequest) (*GroupResponse, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, id)
	}

	if req.Name != group.Name {
		if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
			return nil, fmt.Errorf("%w: group '%s'", ErrConflict, req.Name)
		}
	}

	group.Name = req.Name
	group.Description = optional(req.Description)
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return s.GetGroup(ctx, id)
}

// DeleteGroup is unconditional: membership and role association rows are
// cleaned up by the repository, matching the explicit-cleanup policy used
// everywhere (no database-level cascade).
func (s *groupService) DeleteGroup(ctx context.Context, actorID *uint, id uint) error {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.auditAction(ctx, actorID, model.ActionDeleteGroup, id, group.Name)
	return nil
}

// AddRole attaches a role to a group; attaching a role the group already
// carries is a no-op.
func (s *groupService) AddRole(ctx context.Context, groupID, roleID uint) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	return s.repo.AddRole(ctx, group, role)
}

func (s *groupService) RemoveRole(ctx context.Context, groupID, roleID uint) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	return s.repo.RemoveRole(ctx, group, role)
}

func (s *groupService) AddUser(ctx context.Context, groupID, userID uint) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return s.repo.AddUser(ctx, group, user)
}

func (s *groupService) RemoveUser(ctx context.Context, groupID, userID uint) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return s.repo.RemoveUser(ctx, group, user)
}

func (s *groupService) auditAction(ctx context.Context, actorID *uint, action string, entityID uint, name string) {
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

func (s *groupService) auditConflict(ctx context.Context, actorID *uint, entity, name string) {
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
