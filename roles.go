package auth

import "strings"

// Role is the account kind of a principal.
type Role string

const (
	// RoleUnknown is used when there is no session or the metadata does not
	// name a known role
	RoleUnknown Role = "unknown"
	// RolePersonal is an individual tutor or adopter
	RolePersonal Role = "personal"
	// RoleCompany is a pet shop, clinic or other business
	RoleCompany Role = "company"
	// RoleNGO is an NGO or volunteer account
	RoleNGO Role = "ngo"
)

// RoleMetadataKey is the principal metadata field that carries the role.
const RoleMetadataKey = "role"

// sign-up forms historically stored the Portuguese names
var roleAliases = map[string]Role{
	"personal": RolePersonal,
	"pessoal":  RolePersonal,
	"company":  RoleCompany,
	"empresa":  RoleCompany,
	"ngo":      RoleNGO,
	"ong":      RoleNGO,
}

// IsValid reports whether r is one of the assignable roles. RoleUnknown is
// not assignable.
func (r Role) IsValid() bool {
	switch r {
	case RolePersonal, RoleCompany, RoleNGO:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	if r == "" {
		return string(RoleUnknown)
	}
	return string(r)
}

// AllRoles returns the assignable roles.
func AllRoles() []Role {
	return []Role{
		RolePersonal,
		RoleCompany,
		RoleNGO,
	}
}

// ParseRole safely parses a string into a Role.
func ParseRole(raw string) (Role, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return RoleUnknown, false
	}
	return role, true
}

// ResolveRole derives the role from principal metadata. It never fails:
// anything missing or unrecognised resolves to RoleUnknown.
func ResolveRole(p *Principal) Role {
	if p == nil || p.Metadata == nil {
		return RoleUnknown
	}

	raw, ok := p.Metadata[RoleMetadataKey]
	if !ok {
		return RoleUnknown
	}

	var value string
	switch v := raw.(type) {
	case string:
		value = v
	case Role:
		value = string(v)
	case []byte:
		value = string(v)
	default:
		return RoleUnknown
	}

	role, _ := ParseRole(value)
	return role
}
