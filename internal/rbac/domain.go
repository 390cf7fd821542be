package rbac

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownRole indicates a role name outside the closed role set.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Role is a coarse identity category assigned to a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleUser   Role = "USER"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleUser}
}

// ParseRole converts a stored or claimed role name into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEditor:
		return RoleEditor, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r belongs to the role set. The zero Role means "no role".
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// Permission is a capability token. Values only come from the constants below.
type Permission uint8

const (
	PermViewDashboard Permission = iota + 1
	PermManageUsers
	PermManageContent
	PermEditContent
	PermDeleteContent
	PermApproveContent
	PermManageSettings
	PermManageDonations
	PermManageEvents
	PermManageMessages
	PermViewVolunteers
	PermManageVolunteers
	PermDownloadReports
)

var permissionNames = [...]string{
	PermViewDashboard:    "view:dashboard",
	PermManageUsers:      "manage:users",
	PermManageContent:    "manage:content",
	PermEditContent:      "edit:content",
	PermDeleteContent:    "delete:content",
	PermApproveContent:   "approve:content",
	PermManageSettings:   "manage:settings",
	PermManageDonations:  "manage:donations",
	PermManageEvents:     "manage:events",
	PermManageMessages:   "manage:messages",
	PermViewVolunteers:   "view:volunteers",
	PermManageVolunteers: "manage:volunteers",
	PermDownloadReports:  "download:reports",
}

// Permissions lists every known permission in declaration order.
func Permissions() []Permission {
	perms := make([]Permission, 0, len(permissionNames)-1)
	for p := PermViewDashboard; int(p) < len(permissionNames); p++ {
		perms = append(perms, p)
	}
	return perms
}

// ParsePermission looks up a permission by its token, e.g. "manage:users".
func ParsePermission(name string) (Permission, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p := PermViewDashboard; int(p) < len(permissionNames); p++ {
		if permissionNames[p] == name {
			return p, true
		}
	}
	return 0, false
}

// Valid reports whether p is one of the declared permissions.
func (p Permission) Valid() bool {
	return p > 0 && int(p) < len(permissionNames)
}

func (p Permission) String() string {
	if !p.Valid() {
		return "invalid"
	}
	return permissionNames[p]
}

// MarshalText renders the permission token.
func (p Permission) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, errors.New("rbac: invalid permission")
	}
	return []byte(permissionNames[p]), nil
}

// Principal is the authenticated caller of a single request.
type Principal struct {
	ID   string `validate:"required,max=128"`
	Role Role   `validate:"required,oneof=ADMIN EDITOR USER"`
}

var principalValidator = validator.New()

// Validate checks that the principal carries an identifier and a known role.
func (p Principal) Validate() error {
	return principalValidator.Struct(p)
}
