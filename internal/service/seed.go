package service

import (
	"context"
	"fmt"
	"log"

	"storetrack/internal/model"
	"storetrack/internal/repository"
)

// knownPermissions is the full registry of permission names the route
// table checks against. Seeding keeps the registry in sync across
// deployments; existing rows are left untouched.
var knownPermissions = []struct {
	Name        string
	Description string
}{
	{"admin.backend.access", "Access the admin area"},
	{"admin.roles.read", "List roles"},
	{"admin.roles.create", "Create roles"},
	{"admin.role.read", "View a role"},
	{"admin.role.update", "Modify a role and its permissions"},
	{"admin.role.delete", "Delete a role"},
	{"admin.groups.read", "List groups"},
	{"admin.group.create", "Create groups"},
	{"admin.group.read", "View a group"},
	{"admin.group.update", "Modify a group, its roles and members"},
	{"admin.group.delete", "Delete a group"},
	{"admin.membership.remove", "Remove users from groups"},
	{"admin.user.create", "Create users"},
	{"admin.user.read", "View any user"},
	{"admin.user.update", "Modify any user"},
	{"admin.user.delete", "Delete users"},
	{"categories.read", "List categories"},
	{"category.read", "View a category"},
	{"category.create", "Create categories"},
	{"category.update", "Modify a category"},
	{"category.delete", "Delete a category"},
	{"item.update", "Modify any item"},
	{"item.delete", "Delete any item"},
}

// categoryPalette is the fixed color set categories draw from. The color
// field carries the bootstrap token the frontend styles badges with. The
// first entry must stay first: new categories default to color id 1.
var categoryPalette = []model.CategoryColor{
	{Name: "Blue", Color: "primary"},
	{Name: "Gray", Color: "secondary"},
	{Name: "Green", Color: "success"},
	{Name: "Red", Color: "danger"},
	{Name: "Yellow", Color: "warning"},
	{Name: "Cyan", Color: "info"},
	{Name: "Light", Color: "light"},
	{Name: "Dark", Color: "dark"},
}

const (
	seedAdminRole  = "admin"
	seedAdminGroup = "Admins"
)

// Seed makes sure the permission registry, the color palette and the
// built-in admin role and group exist. Idempotent; safe to run on every
// start.
func Seed(ctx context.Context, roleRepo repository.RoleRepository, groupRepo repository.GroupRepository, categoryRepo repository.CategoryRepository) error {
	perms := make([]*model.Permission, 0, len(knownPermissions))
	for _, p := range knownPermissions {
		perm := &model.Permission{Name: p.Name, Description: optional(p.Description)}
		if err := roleRepo.FindOrCreatePermission(ctx, perm); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", p.Name, err)
		}
		perms = append(perms, perm)
	}

	for i := range categoryPalette {
		color := categoryPalette[i]
		if err := categoryRepo.FindOrCreateColor(ctx, &color); err != nil {
			return fmt.Errorf("failed to seed color %s: %w", color.Name, err)
		}
	}

	role, err := roleRepo.FindByName(ctx, seedAdminRole)
	if err != nil {
		role = &model.Role{Name: seedAdminRole, Description: optional("Full access")}
		if err := roleRepo.Create(ctx, role); err != nil {
			return fmt.Errorf("failed to seed admin role: %w", err)
		}
		log.Printf("seeded role %q", seedAdminRole)
	}
	for _, perm := range perms {
		if err := roleRepo.AddPermission(ctx, role, perm); err != nil {
			return fmt.Errorf("failed to grant %s to admin role: %w", perm.Name, err)
		}
	}

	group, err := groupRepo.FindByName(ctx, seedAdminGroup)
	if err != nil {
		group = &model.Group{Name: seedAdminGroup, Description: optional("Administrators")}
		if err := groupRepo.Create(ctx, group); err != nil {
			return fmt.Errorf("failed to seed admin group: %w", err)
		}
		log.Printf("seeded group %q", seedAdminGroup)
	}
	if err := groupRepo.AddRole(ctx, group, role); err != nil {
		return fmt.Errorf("failed to attach admin role to admin group: %w", err)
	}

	return nil
}
