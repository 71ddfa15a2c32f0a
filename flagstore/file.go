package flagstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

var _ auth.RoleFlags = &FileStore{}

type fileDocument struct {
	auth.RoleFlagSet
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps the flags in a JSON document. Writes go to a temporary
// file that is renamed over the document.
type FileStore struct {
	path string
	perm fs.FileMode
	now  func() time.Time
	mu   sync.Mutex
}

// FileOption customizes a FileStore.
type FileOption func(*FileStore)

// WithFileMode sets the permissions of the document.
func WithFileMode(perm fs.FileMode) FileOption {
	return func(s *FileStore) {
		s.perm = perm
	}
}

// WithFileClock injects a custom clock (useful for tests).
func WithFileClock(clock func() time.Time) FileOption {
	return func(s *FileStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewFileStore returns a store backed by the document at path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path: path,
		perm: 0o600,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Activate(ctx context.Context, role auth.Role) error {
	if !role.IsValid() {
		return s.Clear(ctx)
	}
	return s.write(ctx, auth.FlagSetFor(role))
}

func (s *FileStore) Clear(ctx context.Context) error {
	return s.write(ctx, auth.RoleFlagSet{})
}

func (s *FileStore) Get(ctx context.Context) (auth.RoleFlagSet, error) {
	if err := ctx.Err(); err != nil {
		return auth.RoleFlagSet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return auth.RoleFlagSet{}, nil
	}
	if err != nil {
		return auth.RoleFlagSet{}, fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return auth.RoleFlagSet{}, fmt.Errorf("%w: %w", auth.ErrCorruptRoleFlags, err)
	}

	if !doc.Valid() {
		return auth.RoleFlagSet{}, auth.ErrCorruptRoleFlags
	}

	return doc.RoleFlagSet, nil
}

func (s *FileStore) write(ctx context.Context, set auth.RoleFlagSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(fileDocument{RoleFlagSet: set, UpdatedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode role flags: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, ".roleflags-*")
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(s.perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
	}

	return nil
}
