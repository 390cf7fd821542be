package rbac

// PermissionSet is a bitset of permissions.
type PermissionSet uint32

// Has reports whether perm is in the set.
func (s PermissionSet) Has(perm Permission) bool {
	if !perm.Valid() {
		return false
	}
	return s&(1<<perm) != 0
}

func (s PermissionSet) with(perm Permission) PermissionSet {
	if !perm.Valid() {
		return s
	}
	return s | 1<<perm
}

// Slice returns the members in declaration order.
func (s PermissionSet) Slice() []Permission {
	perms := make([]Permission, 0)
	for _, p := range Permissions() {
		if s.Has(p) {
			perms = append(perms, p)
		}
	}
	return perms
}

// Matrix maps each role to the permissions it holds. A Matrix is immutable once
// built and safe for concurrent use.
type Matrix struct {
	grants map[Role]PermissionSet
}

// NewMatrix builds a Matrix from grants. The input is copied.
func NewMatrix(grants map[Role][]Permission) Matrix {
	m := Matrix{grants: make(map[Role]PermissionSet, len(grants))}
	for role, perms := range grants {
		var set PermissionSet
		for _, p := range perms {
			set = set.with(p)
		}
		m.grants[role] = set
	}
	return m
}

// DefaultMatrix returns the production role grants.
func DefaultMatrix() Matrix {
	return NewMatrix(map[Role][]Permission{
		RoleAdmin: Permissions(),
		RoleEditor: {
			PermViewDashboard,
			PermManageContent,
			PermEditContent,
			PermApproveContent,
			PermManageEvents,
			PermManageMessages,
			PermViewVolunteers,
		},
		RoleUser: {},
	})
}

// Set returns the permission set of role; roles absent from the matrix get the empty set.
func (m Matrix) Set(role Role) PermissionSet {
	return m.grants[role]
}

// PermissionsFor returns the permissions held by role.
func (m Matrix) PermissionsFor(role Role) []Permission {
	return m.Set(role).Slice()
}

// HasPermission reports whether role holds perm. The zero Role holds nothing.
func (m Matrix) HasPermission(role Role, perm Permission) bool {
	if role == "" {
		return false
	}
	return m.Set(role).Has(perm)
}

// Allows is HasPermission for an optional principal.
func (m Matrix) Allows(p *Principal, perm Permission) bool {
	if p == nil {
		return false
	}
	return m.HasPermission(p.Role, perm)
}

// CanAccessAdmin reports whether role may enter the admin area at all.
func CanAccessAdmin(role Role) bool {
	return role == RoleAdmin || role == RoleEditor
}
