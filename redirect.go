package auth

import (
	"net/url"
	"sort"
	"strings"
)

// RedirectPolicy decides where to send a principal after a session
// transition. It returns false when the caller must not navigate.
type RedirectPolicy interface {
	Decide(role Role, currentPath string, freshSignIn bool) (string, bool)
}

// RedirectPolicyFunc adapts a function to RedirectPolicy.
type RedirectPolicyFunc func(role Role, currentPath string, freshSignIn bool) (string, bool)

// Decide implements RedirectPolicy.
func (f RedirectPolicyFunc) Decide(role Role, currentPath string, freshSignIn bool) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(role, currentPath, freshSignIn)
}

// RedirectRule sends role to Target when it signs in on Path.
type RedirectRule struct {
	Path   string `json:"path" yaml:"path"`
	Role   Role   `json:"role" yaml:"role"`
	Target string `json:"target" yaml:"target"`
}

// DefaultRedirectRules are the marketplace entry pages.
func DefaultRedirectRules() []RedirectRule {
	return []RedirectRule{
		{Path: "/entrar", Role: RolePersonal, Target: "/dashboard"},
		{Path: "/cadastro", Role: RolePersonal, Target: "/dashboard"},
		{Path: "/empresas/entrar", Role: RoleCompany, Target: "/empresas/painel"},
		{Path: "/ongs/entrar", Role: RoleNGO, Target: "/ongs/painel"},
	}
}

var _ RedirectPolicy = &RedirectTable{}

// RedirectTable is a routing table keyed by entry path, with role as a
// secondary guard. A role that does not match the rules of the current
// path never redirects; the page's own guard handles it.
type RedirectTable struct {
	rules map[string]map[Role]string
}

// NewRedirectTable builds a table. Later rules override earlier ones for
// the same path and role. Rules with an unknown role or empty target are
// ignored.
func NewRedirectTable(rules ...RedirectRule) *RedirectTable {
	t := &RedirectTable{rules: make(map[string]map[Role]string)}
	for _, rule := range rules {
		role, ok := ParseRole(string(rule.Role))
		if !ok || strings.TrimSpace(rule.Target) == "" {
			continue
		}
		path := NormalizePath(rule.Path)
		if t.rules[path] == nil {
			t.rules[path] = make(map[Role]string)
		}
		t.rules[path][role] = NormalizePath(rule.Target)
	}
	return t
}

// DefaultRedirectTable returns a table with DefaultRedirectRules.
func DefaultRedirectTable() *RedirectTable {
	return NewRedirectTable(DefaultRedirectRules()...)
}

// Decide implements RedirectPolicy.
func (t *RedirectTable) Decide(role Role, currentPath string, freshSignIn bool) (string, bool) {
	if t == nil || !freshSignIn || !role.IsValid() {
		return "", false
	}

	path := NormalizePath(currentPath)
	byRole, ok := t.rules[path]
	if !ok {
		return "", false
	}

	target, ok := byRole[role]
	if !ok || target == path {
		return "", false
	}

	return target, true
}

// Rules returns the table content sorted by path then role.
func (t *RedirectTable) Rules() []RedirectRule {
	if t == nil {
		return nil
	}

	out := make([]RedirectRule, 0, len(t.rules))
	for path, byRole := range t.rules {
		for role, target := range byRole {
			out = append(out, RedirectRule{Path: path, Role: role, Target: target})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Role < out[j].Role
	})

	return out
}

// NormalizePath strips scheme, host, query and fragment, and removes the
// trailing slash so "/entrar/?next=x" matches "/entrar".
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "/"
	}

	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil {
			raw = u.Path
		}
	}

	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}

	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
		if raw == "" {
			raw = "/"
		}
	}

	return raw
}
