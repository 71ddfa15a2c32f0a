// Package identity is an in-process identity backend. It implements the
// auth.IdentityBackend contract with bcrypt password hashes, JWT access
// tokens and a simulated OAuth round trip, and is used for local
// development and tests.
package identity

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

// Operation names a backend call for fault injection.
type Operation string

const (
	OpGetSession  Operation = "get_session"
	OpSignUp      Operation = "sign_up"
	OpSignIn      Operation = "sign_in"
	OpSignInOAuth Operation = "sign_in_oauth"
	OpSignOut     Operation = "sign_out"
	OpRefresh     Operation = "refresh"
)

const (
	defaultIssuer   = "patinhas-identity"
	defaultTokenTTL = time.Hour
	defaultRegion   = "BR"
)

// Config configures the Backend.
type Config struct {
	// SigningKey signs access tokens. A random key is used when empty.
	SigningKey []byte
	Issuer     string
	TokenTTL   time.Duration
	// PasswordCost is the bcrypt cost, bcrypt.DefaultCost when zero.
	PasswordCost int
	// RequireEmailConfirmation blocks password sign in until ConfirmEmail.
	RequireEmailConfirmation bool
	// EmitInitialSession delivers the current state to new subscribers.
	EmitInitialSession bool
	// DeterministicIDs derives principal ids from the email.
	DeterministicIDs bool
	// PhoneRegion is the default region for phone metadata.
	PhoneRegion string
	// AuthorizeURL is the provider authorization endpoint.
	AuthorizeURL string
	// Providers limits the OAuth providers; any provider is accepted when
	// empty.
	Providers          []string
	StateEncryptionKey []byte
	StateHMACKey       []byte
	StateTTL           time.Duration
	// DefaultRole is stored for external sign ups without a role.
	DefaultRole auth.Role
}

// Option customizes the Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(b *Backend) {
		if clock != nil {
			b.now = clock
		}
	}
}

type account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Metadata     map[string]any
	Confirmed    bool
	Identities   map[string]string
	CreatedAt    time.Time
}

func (a account) principal() *auth.Principal {
	created := a.CreatedAt
	return &auth.Principal{
		ID:        a.ID.String(),
		Email:     a.Email,
		Metadata:  maps.Clone(a.Metadata),
		CreatedAt: &created,
	}
}

type subscriber struct {
	id int
	fn func(auth.SessionEvent)
}

type pendingFlow struct {
	provider   string
	redirectTo string
}

var _ auth.IdentityBackend = &Backend{}

// Backend is an in-process identity backend. It holds a single current
// session, like a browser client of a hosted backend does.
type Backend struct {
	cfg    Config
	logger auth.Logger
	now    func() time.Time
	tokens *tokenIssuer
	states *stateCodec

	mu                sync.Mutex
	accounts          map[string]*account
	current           *auth.Session
	pending           map[string]pendingFlow
	lastAuthorization *Authorization
	failures          map[Operation][]error

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

// New returns a Backend.
func New(cfg Config, opts ...Option) (*Backend, error) {
	if len(cfg.SigningKey) == 0 {
		cfg.SigningKey = randomBytes(32)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	if cfg.PasswordCost < bcrypt.MinCost || cfg.PasswordCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range", ErrInvalidConfig, cfg.PasswordCost)
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = defaultRegion
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = "https://auth.patinhas.local/authorize"
	}
	if len(cfg.StateEncryptionKey) == 0 {
		cfg.StateEncryptionKey = randomBytes(32)
	}
	if len(cfg.StateHMACKey) == 0 {
		cfg.StateHMACKey = randomBytes(32)
	}
	if !cfg.DefaultRole.IsValid() {
		cfg.DefaultRole = auth.RolePersonal
	}

	states, err := newStateCodec(cfg.StateEncryptionKey, cfg.StateHMACKey, cfg.StateTTL)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		cfg:    cfg,
		logger: auth.DefaultLogger(),
		now:    time.Now,
		tokens: &tokenIssuer{
			signingKey: cfg.SigningKey,
			issuer:     cfg.Issuer,
			ttl:        cfg.TokenTTL,
		},
		states:   states,
		accounts: make(map[string]*account),
		pending:  make(map[string]pendingFlow),
		failures: make(map[Operation][]error),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b, nil
}

// FailNext makes the next call of op return err. Calls queue in order.
func (b *Backend) FailNext(op Operation, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = append(b.failures[op], err)
}

func (b *Backend) takeFailure(op Operation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	queued := b.failures[op]
	if len(queued) == 0 {
		return nil
	}
	b.failures[op] = queued[1:]
	return queued[0]
}

// GetSession returns the current session or nil. An expired session is
// dropped.
func (b *Backend) GetSession(ctx context.Context) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.takeFailure(OpGetSession); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return nil, nil
	}
	if b.current.Expired(b.now()) {
		b.logger.Debug("dropping expired session", "user", b.current.UserID())
		b.current = nil
		return nil, nil
	}

	return b.current.Clone(), nil
}

// OnSessionChange registers fn for session transitions. Events are
// delivered synchronously in registration order.
func (b *Backend) OnSessionChange(fn func(auth.SessionEvent)) func() {
	if fn == nil {
		return func() {}
	}

	b.subMu.Lock()
	b.nextSub++
	id := b.nextSub
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.subMu.Unlock()

	if b.cfg.EmitInitialSession {
		b.mu.Lock()
		current := b.current.Clone()
		b.mu.Unlock()
		fn(auth.SessionEvent{Type: auth.SessionEventInitial, Session: current})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of registered change listeners.
func (b *Backend) Subscribers() int {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	return len(b.subs)
}

func (b *Backend) emit(eventType auth.SessionEventType, session *auth.Session) {
	b.subMu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.subMu.Unlock()

	for _, s := range subs {
		s.fn(auth.SessionEvent{Type: eventType, Session: session.Clone()})
	}
}

// SignUp registers an account. It never creates a session.
func (b *Backend) SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.takeFailure(OpSignUp); err != nil {
		return err
	}

	email = normalizeEmail(email)
	if err := (signUpRequest{Email: email, Password: password}).validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignUp, err)
	}

	metadata, err := normalizeMetadata(opts.Metadata, b.cfg.PhoneRegion)
	if err != nil {
		return err
	}

	hash, err := hashPassword(password, b.cfg.PasswordCost)
	if err != nil {
		return err
	}

	id, err := b.newID(email)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[email]; exists {
		return ErrUserExists
	}

	b.accounts[email] = &account{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Metadata:     metadata,
		Confirmed:    !b.cfg.RequireEmailConfirmation,
		Identities:   map[string]string{},
		CreatedAt:    b.now(),
	}

	b.logger.Info("account registered", "user", id, "role", auth.ResolveRole(&auth.Principal{Metadata: metadata}))

	return nil
}

// ConfirmEmail marks the account as confirmed.
func (b *Backend) ConfirmEmail(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[normalizeEmail(email)]
	if !ok {
		return ErrInvalidLogin
	}
	acc.Confirmed = true
	return nil
}

// SignInWithPassword verifies credentials and starts a session. Unknown
// accounts and wrong passwords return the same error.
func (b *Backend) SignInWithPassword(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.takeFailure(OpSignIn); err != nil {
		return nil, err
	}

	b.mu.Lock()
	acc, ok := b.accounts[normalizeEmail(email)]
	var snapshot account
	if ok {
		snapshot = *acc
	}
	b.mu.Unlock()

	if !ok || snapshot.PasswordHash == "" {
		return nil, ErrInvalidLogin
	}

	if err := comparePassword(password, snapshot.PasswordHash); err != nil {
		return nil, ErrInvalidLogin
	}

	if !snapshot.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	session, err := b.startSession(snapshot)
	if err != nil {
		return nil, err
	}

	return &auth.AuthResult{
		Session:   session,
		Principal: session.Principal.Clone(),
	}, nil
}

// SignOut ends the current session. Signing out without a session is a
// no-op.
func (b *Backend) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.takeFailure(OpSignOut); err != nil {
		return err
	}

	b.mu.Lock()
	had := b.current != nil
	b.current = nil
	b.mu.Unlock()

	if had {
		b.emit(auth.SessionEventSignedOut, nil)
	}
	return nil
}

// RefreshSession issues a new access token for the current principal.
func (b *Backend) RefreshSession(ctx context.Context) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.takeFailure(OpRefresh); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.current == nil || b.current.Principal == nil {
		b.mu.Unlock()
		return nil, ErrNoSession
	}
	acc, ok := b.accountByID(b.current.Principal.ID)
	if !ok {
		b.mu.Unlock()
		return nil, ErrNoSession
	}
	snapshot := *acc
	b.mu.Unlock()

	session, err := b.tokens.issue(snapshot, b.now())
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.current = session
	b.mu.Unlock()

	b.emit(auth.SessionEventTokenRefreshed, session)
	return session.Clone(), nil
}

// accountByID must be called with b.mu held. Accounts created from an
// external profile without email are keyed by provider identity, so the
// email key cannot be used to find them.
func (b *Backend) accountByID(id string) (*account, bool) {
	for _, acc := range b.accounts {
		if acc.ID.String() == id {
			return acc, true
		}
	}
	return nil, false
}

// RevokeSession invalidates the current session server side. With notify
// false the change stream is not told, which leaves clients with stale
// state until they ask again.
func (b *Backend) RevokeSession(notify bool) {
	b.mu.Lock()
	had := b.current != nil
	b.current = nil
	b.mu.Unlock()

	if had && notify {
		b.emit(auth.SessionEventSignedOut, nil)
	}
}

// SessionFromToken validates an access token and rebuilds its session.
func (b *Backend) SessionFromToken(raw string) (*auth.Session, error) {
	claims, err := b.tokens.parse(raw, b.now())
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &auth.Session{
		AccessToken: raw,
		ExpiresAt:   expiresAt,
		Principal:   principalFromClaims(claims),
	}, nil
}

func (b *Backend) startSession(acc account) (*auth.Session, error) {
	session, err := b.tokens.issue(acc, b.now())
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.current = session
	b.mu.Unlock()

	b.logger.Info("session started", "user", session.UserID())
	b.emit(auth.SessionEventSignedIn, session)

	return session.Clone(), nil
}

func (b *Backend) newID(email string) (uuid.UUID, error) {
	if !b.cfg.DeterministicIDs {
		return uuid.New(), nil
	}
	id, err := hashid.NewUUID(email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to derive principal id: %w", err)
	}
	return id, nil
}
