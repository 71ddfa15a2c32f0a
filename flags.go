package auth

import (
	"context"
	"sync"
)

// RoleFlagSet is the durable mirror of the active role: one boolean per
// role, at most one of them set.
type RoleFlagSet struct {
	Personal bool `json:"personal_active"`
	Company  bool `json:"company_active"`
	NGO      bool `json:"ngo_active"`
}

// FlagSetFor returns the set with only role active. RoleUnknown yields the
// empty set.
func FlagSetFor(role Role) RoleFlagSet {
	switch role {
	case RolePersonal:
		return RoleFlagSet{Personal: true}
	case RoleCompany:
		return RoleFlagSet{Company: true}
	case RoleNGO:
		return RoleFlagSet{NGO: true}
	default:
		return RoleFlagSet{}
	}
}

// Count returns how many flags are set.
func (f RoleFlagSet) Count() int {
	n := 0
	for _, v := range []bool{f.Personal, f.Company, f.NGO} {
		if v {
			n++
		}
	}
	return n
}

// Valid reports whether the exclusivity invariant holds.
func (f RoleFlagSet) Valid() bool {
	return f.Count() <= 1
}

// IsEmpty reports whether no flag is set.
func (f RoleFlagSet) IsEmpty() bool {
	return f.Count() == 0
}

// Active returns the role of the set flag, or RoleUnknown when none or
// more than one is set.
func (f RoleFlagSet) Active() Role {
	if f.Count() != 1 {
		return RoleUnknown
	}
	switch {
	case f.Personal:
		return RolePersonal
	case f.Company:
		return RoleCompany
	default:
		return RoleNGO
	}
}

// Has reports whether the flag for role is set.
func (f RoleFlagSet) Has(role Role) bool {
	return role.IsValid() && f.Active() == role
}

// RoleFlags is the narrow read/write contract for persisted role flags.
// Components outside the Router may read it without waiting for session
// initialization, accepting that the value can be stale until the Router
// reconciles it.
type RoleFlags interface {
	// Activate sets exactly the flag for role and clears the others in a
	// single write. Activating RoleUnknown clears every flag.
	Activate(ctx context.Context, role Role) error
	// Clear unsets every flag.
	Clear(ctx context.Context) error
	// Get returns the current flags.
	Get(ctx context.Context) (RoleFlagSet, error)
}

// ActiveRole reads flags and returns the active role.
func ActiveRole(ctx context.Context, flags RoleFlags) (Role, error) {
	set, err := flags.Get(ctx)
	if err != nil {
		return RoleUnknown, err
	}
	return set.Active(), nil
}

var _ RoleFlags = &MemoryRoleFlags{}

// MemoryRoleFlags keeps the flags in process memory.
type MemoryRoleFlags struct {
	mu  sync.RWMutex
	set RoleFlagSet
}

// NewMemoryRoleFlags returns an empty in-memory flag store.
func NewMemoryRoleFlags() *MemoryRoleFlags {
	return &MemoryRoleFlags{}
}

func (m *MemoryRoleFlags) Activate(_ context.Context, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = FlagSetFor(role)
	return nil
}

func (m *MemoryRoleFlags) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = RoleFlagSet{}
	return nil
}

func (m *MemoryRoleFlags) Get(_ context.Context) (RoleFlagSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set, nil
}
