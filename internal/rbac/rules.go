package rbac

import (
	"fmt"
	"strings"
)

// Rule binds a path prefix to a requirement. A rule either demands coarse
// admin-area access or one specific permission.
type Rule struct {
	Prefix     string
	Permission Permission
	AdminArea  bool
}

// AreaRule requires ADMIN or EDITOR for every path under prefix.
func AreaRule(prefix string) Rule {
	return Rule{Prefix: prefix, AdminArea: true}
}

// PermissionRule requires perm for every path under prefix.
func PermissionRule(prefix string, perm Permission) Rule {
	return Rule{Prefix: prefix, Permission: perm}
}

// Matches reports whether the rule applies to path. Matching is a plain string
// prefix test, so "/admin/users" also covers "/admin/users-export".
func (r Rule) Matches(path string) bool {
	return r.Prefix != "" && strings.HasPrefix(path, r.Prefix)
}

func (r Rule) String() string {
	if r.AdminArea {
		return r.Prefix + " => admin area"
	}
	return r.Prefix + " => " + r.Permission.String()
}

// DefaultRules returns the admin-area rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		AreaRule("/admin"),
		PermissionRule("/admin/dashboard", PermViewDashboard),
		PermissionRule("/admin/users", PermManageUsers),
		PermissionRule("/admin/permissions", PermManageUsers),
		PermissionRule("/admin/settings", PermManageSettings),
		PermissionRule("/admin/donations", PermManageDonations),
		PermissionRule("/admin/events", PermManageEvents),
		PermissionRule("/admin/messages", PermManageMessages),
		PermissionRule("/admin/volunteers", PermViewVolunteers),
		PermissionRule("/admin/reports", PermDownloadReports),
		PermissionRule("/admin/content", PermEditContent),
		PermissionRule("/admin/jobs", PermManageSettings),
		PermissionRule("/admin/audit", PermManageSettings),
	}
}

// LintKind classifies rule configuration findings.
type LintKind string

const (
	LintOverlap      LintKind = "overlap"
	LintDuplicate    LintKind = "duplicate"
	LintFallbackLoop LintKind = "fallback_loop"
	LintInvalidRule  LintKind = "invalid_rule"
)

// LintWarning describes a questionable rule configuration. Warnings never change
// how rules are evaluated.
type LintWarning struct {
	Kind    LintKind
	Message string
}

// LintRules inspects rules for overlaps, duplicates and a dashboard fallback that
// an admin-area role could not reach. Permission rules nested under an area
// rule are the normal layout and are not reported.
func LintRules(rules []Rule, matrix Matrix, dashboardPath string) []LintWarning {
	var warnings []LintWarning
	for i, rule := range rules {
		if rule.Prefix == "" || (!rule.AdminArea && !rule.Permission.Valid()) {
			warnings = append(warnings, LintWarning{Kind: LintInvalidRule, Message: fmt.Sprintf("rule %d (%q) has no usable requirement", i, rule.Prefix)})
			continue
		}
		for j := i + 1; j < len(rules); j++ {
			other := rules[j]
			switch {
			case rule.Prefix == other.Prefix:
				warnings = append(warnings, LintWarning{Kind: LintDuplicate, Message: fmt.Sprintf("rules %q and %q share prefix %s", rule, other, rule.Prefix)})
			case rule.AdminArea || other.AdminArea:
				// area rules are meant to stack with permission rules
			case strings.HasPrefix(other.Prefix, rule.Prefix) || strings.HasPrefix(rule.Prefix, other.Prefix):
				warnings = append(warnings, LintWarning{Kind: LintOverlap, Message: fmt.Sprintf("rules %q and %q overlap; both must pass", rule, other)})
			}
		}
	}
	if dashboardPath == "" {
		return warnings
	}
	for _, role := range Roles() {
		if !CanAccessAdmin(role) {
			continue
		}
		for _, rule := range rules {
			if rule.AdminArea || !rule.Matches(dashboardPath) {
				continue
			}
			if !matrix.HasPermission(role, rule.Permission) {
				warnings = append(warnings, LintWarning{Kind: LintFallbackLoop, Message: fmt.Sprintf("role %s lacks %s required by fallback path %s", role, rule.Permission, dashboardPath)})
			}
		}
	}
	return warnings
}
