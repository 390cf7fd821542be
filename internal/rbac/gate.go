package rbac

import "html/template"

// Gate decides whether UI controls are shown to the current principal.
//
// A Gate is not a security boundary. It hides buttons and links a user cannot
// use; the Checker remains the only enforcement point for API mutations.
type Gate struct {
	matrix Matrix
}

// NewGate builds a Gate over matrix.
func NewGate(matrix Matrix) Gate {
	return Gate{matrix: matrix}
}

// Allows reports whether p holds perm. A nil principal holds nothing.
func (g Gate) Allows(p *Principal, perm Permission) bool {
	return g.matrix.Allows(p, perm)
}

// Render returns child's output when p holds perm and an empty string otherwise.
func (g Gate) Render(p *Principal, perm Permission, child func() template.HTML) template.HTML {
	if child == nil || !g.Allows(p, perm) {
		return ""
	}
	return child()
}

// FuncMap exposes the gate to templates as {{if can .Principal "manage:users"}}.
// Unknown permission names evaluate to false.
func (g Gate) FuncMap() template.FuncMap {
	return template.FuncMap{
		"can": func(p *Principal, name string) bool {
			perm, ok := ParsePermission(name)
			if !ok {
				return false
			}
			return g.Allows(p, perm)
		},
		"canAdmin": func(p *Principal) bool {
			return p != nil && CanAccessAdmin(p.Role)
		},
	}
}
