package model

// Permission represents an atomic named capability, e.g. "item.update".
// Reference data: created by seeding, never mutated afterwards.
type Permission struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description *string `gorm:"type:varchar(255)" json:"description,omitempty"`
}

// Role bundles permissions under a name
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description *string      `gorm:"type:varchar(255)" json:"description,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permission;" json:"permissions"`
}

// HasPermission reports whether the role owns a permission with the given
// name. Requires Permissions to be loaded.
func (r *Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Group bundles roles and user memberships under a name. A user's effective
// permission set is the union over all permissions of all roles of all
// groups the user belongs to.
type Group struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description *string `gorm:"type:varchar(255)" json:"description,omitempty"`
	Roles       []Role  `gorm:"many2many:group_role;" json:"roles"`
	Users       []User  `gorm:"many2many:group_user;" json:"-"`
}

// HasRole reports whether the group carries a role with the given name.
// Requires Roles to be loaded.
func (g *Group) HasRole(name string) bool {
	for _, r := range g.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
