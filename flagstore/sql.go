package flagstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

// RoleFlagRecord is one row per scope.
type RoleFlagRecord struct {
	bun.BaseModel `bun:"table:role_flags,alias:rf"`
	Scope         string    `bun:"scope,pk" json:"scope"`
	Personal      bool      `bun:"personal_active,notnull" json:"personal_active"`
	Company       bool      `bun:"company_active,notnull" json:"company_active"`
	NGO           bool      `bun:"ngo_active,notnull" json:"ngo_active"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

func (r *RoleFlagRecord) flagSet() auth.RoleFlagSet {
	return auth.RoleFlagSet{
		Personal: r.Personal,
		Company:  r.Company,
		NGO:      r.NGO,
	}
}

var _ auth.RoleFlags = &SQLStore{}

// SQLStore keeps the flags in the role_flags table through bun. Any bun
// dialect that supports ON CONFLICT works (sqlite, postgres).
type SQLStore struct {
	db    bun.IDB
	scope string
	now   func() time.Time
}

// NewSQLStore returns a store for scope.
func NewSQLStore(db bun.IDB, scope string) *SQLStore {
	if scope == "" {
		scope = "default"
	}
	return &SQLStore{
		db:    db,
		scope: scope,
		now:   time.Now,
	}
}

// CreateTable creates the role_flags table when missing.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*RoleFlagRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}
	return nil
}

// Activate upserts the row in a single statement.
func (s *SQLStore) Activate(ctx context.Context, role auth.Role) error {
	if !role.IsValid() {
		return s.Clear(ctx)
	}

	set := auth.FlagSetFor(role)
	record := &RoleFlagRecord{
		Scope:     s.scope,
		Personal:  set.Personal,
		Company:   set.Company,
		NGO:       set.NGO,
		UpdatedAt: s.now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (scope) DO UPDATE").
		Set("personal_active = EXCLUDED.personal_active").
		Set("company_active = EXCLUDED.company_active").
		Set("ngo_active = EXCLUDED.ngo_active").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*RoleFlagRecord)(nil)).
		Where("scope = ?", s.scope).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context) (auth.RoleFlagSet, error) {
	record := new(RoleFlagRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("scope = ?", s.scope).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.RoleFlagSet{}, nil
	}
	if err != nil {
		return auth.RoleFlagSet{}, fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	set := record.flagSet()
	if !set.Valid() {
		return auth.RoleFlagSet{}, auth.ErrCorruptRoleFlags
	}
	return set, nil
}
