package auth

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"
)

// Snapshot is a consistent view of the session store.
type Snapshot struct {
	Session     *Session
	Principal   *Principal
	Role        Role
	Loading     bool
	Initialized bool
}

// IsAuthenticated reports whether a session is held.
func (s Snapshot) IsAuthenticated() bool {
	return s.Session != nil
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithRoleFlags sets the persisted role flags store.
func WithRoleFlags(flags RoleFlags) RouterOption {
	return func(r *Router) {
		if flags != nil {
			r.flags = flags
		}
	}
}

// WithRedirectPolicy overrides the redirect table built from Config.
func WithRedirectPolicy(policy RedirectPolicy) RouterOption {
	return func(r *Router) {
		r.policy = policy
	}
}

// WithNavigator sets the component that performs navigation.
func WithNavigator(nav Navigator) RouterOption {
	return func(r *Router) {
		if nav != nil {
			r.navigator = nav
		}
	}
}

// WithNotifier sets the component that shows user notifications.
func WithNotifier(n Notifier) RouterOption {
	return func(r *Router) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLocation sets the source of the current route.
func WithLocation(fn LocationFunc) RouterOption {
	return func(r *Router) {
		if fn != nil {
			r.location = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) RouterOption {
	return func(r *Router) {
		r.activitySink = normalizeActivitySink(sink)
	}
}

// WithConfig sets landing path, OAuth defaults and redirect rules.
func WithConfig(cfg Config) RouterOption {
	return func(r *Router) {
		if cfg != nil {
			r.config = cfg
		}
	}
}

// WithMessages overrides notification texts. Empty fields keep defaults.
func WithMessages(m Messages) RouterOption {
	return func(r *Router) {
		r.messages = m.merge(DefaultMessages())
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) RouterOption {
	return func(r *Router) {
		if clock != nil {
			r.now = clock
		}
	}
}

type watcher struct {
	id int
	fn func(Snapshot)
}

type sessionUpdate struct {
	session    *Session
	event      SessionEventType
	source     string
	guarded    bool
	generation uint64
}

// Router tracks the authentication session, derives the account role,
// mirrors it into RoleFlags and redirects on fresh sign in.
//
// Every session change, whether it comes from Initialize, the change
// stream or a public operation, goes through the same atomic replace of
// session, principal and role. Flags are reconciled under the same lock so
// their write order follows the state order.
type Router struct {
	backend      IdentityBackend
	flags        RoleFlags
	policy       RedirectPolicy
	navigator    Navigator
	notifier     Notifier
	location     LocationFunc
	logger       Logger
	activitySink ActivitySink
	config       Config
	messages     Messages
	now          func() time.Time

	mu          sync.RWMutex
	session     *Session
	principal   *Principal
	role        Role
	initialized bool
	inflight    int
	generation  uint64

	watchMu     sync.Mutex
	watchers    []watcher
	nextWatchID int

	subMu       sync.Mutex
	unsubscribe func()
	baseCtx     context.Context
}

// NewRouter returns a Router over backend.
func NewRouter(backend IdentityBackend, opts ...RouterOption) *Router {
	r := &Router{
		backend:      backend,
		flags:        NewMemoryRoleFlags(),
		navigator:    noopNavigator{},
		notifier:     noopNotifier{},
		location:     func() string { return "" },
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		config:       DefaultConfig(),
		messages:     DefaultMessages(),
		now:          time.Now,
		role:         RoleUnknown,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.policy == nil {
		r.policy = NewRedirectTable(r.config.GetRedirectRules()...)
	}

	return r
}

// Flags exposes the persisted role flags so other components can read them
// without waiting for initialization.
func (r *Router) Flags() RoleFlags {
	return r.flags
}

// Start subscribes to the change stream and loads the current session. If
// loading fails, or panics, the subscription is released before returning.
func (r *Router) Start(ctx context.Context) (err error) {
	r.subMu.Lock()
	if r.unsubscribe != nil {
		r.subMu.Unlock()
		return r.Initialize(ctx)
	}
	r.baseCtx = context.WithoutCancel(ctx)
	r.subMu.Unlock()

	unsubscribe := r.backend.OnSessionChange(r.handleEvent)

	r.subMu.Lock()
	r.unsubscribe = unsubscribe
	r.subMu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			_ = r.Close()
			panic(rec)
		}
		if err != nil {
			_ = r.Close()
		}
	}()

	return r.Initialize(ctx)
}

// Close releases the change stream subscription. It is safe to call more
// than once.
func (r *Router) Close() error {
	r.subMu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.subMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		r.logger.Debug("session change subscription released")
	}
	return nil
}

// Initialize requests the current session once. A change stream event
// applied while the request is in flight is newer information, so the
// response is discarded in that case.
func (r *Router) Initialize(ctx context.Context) error {
	r.mu.RLock()
	generation := r.generation
	r.mu.RUnlock()

	session, err := r.backend.GetSession(ctx)
	if err != nil {
		r.logger.Error("initialize get session failed", "error", err)
		r.mu.Lock()
		r.initialized = true
		r.mu.Unlock()
		r.publish()
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	r.apply(ctx, sessionUpdate{
		session:    session,
		event:      SessionEventInitial,
		source:     "initialize",
		guarded:    true,
		generation: generation,
	})

	return nil
}

// HandleSessionChange applies a change stream event.
func (r *Router) HandleSessionChange(ctx context.Context, event SessionEvent) {
	r.logger.Debug("session change", "event", event.Type, "user", event.Session.UserID())

	r.apply(ctx, sessionUpdate{
		session: event.Session,
		event:   event.Type,
		source:  string(event.Type),
	})

	var principal *Principal
	if event.Type != SessionEventSignedOut && event.Session != nil {
		principal = event.Session.Principal
	}

	r.emit(ctx, ActivityEventSessionChanged, event.Session.UserID(), ResolveRole(principal), map[string]any{
		"event": string(event.Type),
	})
}

func (r *Router) handleEvent(event SessionEvent) {
	r.HandleSessionChange(r.eventContext(), event)
}

func (r *Router) eventContext() context.Context {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if r.baseCtx == nil {
		return context.Background()
	}
	return r.baseCtx
}

// State returns a consistent snapshot of the store.
func (r *Router) State() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Session:     r.session,
		Principal:   r.principal,
		Role:        r.role,
		Loading:     !r.initialized || r.inflight > 0,
		Initialized: r.initialized,
	}
}

func (r *Router) Session() *Session {
	return r.State().Session
}

func (r *Router) Principal() *Principal {
	return r.State().Principal
}

func (r *Router) Role() Role {
	return r.State().Role
}

// Loading is advisory, meant for disabling UI. It is true until the first
// session state is known and while an operation is in flight.
func (r *Router) Loading() bool {
	return r.State().Loading
}

// Watch registers fn for every state change and returns a function that
// removes it.
func (r *Router) Watch(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	r.watchMu.Lock()
	r.nextWatchID++
	id := r.nextWatchID
	r.watchers = append(r.watchers, watcher{id: id, fn: fn})
	r.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.watchMu.Lock()
			defer r.watchMu.Unlock()
			for i, w := range r.watchers {
				if w.id == id {
					r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

// SignUp registers a new principal. The role is merged into metadata and
// this is the only place a role is ever written. No flags change and no
// redirect happens.
func (r *Router) SignUp(ctx context.Context, email, password string, role Role, metadata map[string]any) error {
	done := r.begin()
	defer done()

	if !role.IsValid() {
		r.notify(ctx, Notification{
			Level:   NotificationError,
			Title:   r.messages.SignUpFailureTitle,
			Message: r.messages.InvalidRole,
			Err:     ErrInvalidRole,
		})
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	meta := make(map[string]any, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta[RoleMetadataKey] = string(role)

	err := r.backend.SignUp(ctx, email, password, SignUpOptions{
		Metadata:   meta,
		RedirectTo: r.config.GetOAuthRedirectURL(),
	})
	if err != nil {
		r.logger.Error("sign up failed", "role", role, "error", err)

		message := strings.TrimSpace(err.Error())
		if message == "" {
			message = r.messages.SignUpFallback
		}

		r.notify(ctx, Notification{
			Level:   NotificationError,
			Title:   r.messages.SignUpFailureTitle,
			Message: message,
			Err:     err,
		})
		r.emit(ctx, ActivityEventSignUpFailure, "", role, map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrSignUpFailed, err)
	}

	r.notify(ctx, Notification{
		Level:   NotificationSuccess,
		Title:   r.messages.SignUpSuccessTitle,
		Message: r.messages.SignUpSuccessMessage,
	})
	r.emit(ctx, ActivityEventSignUpSuccess, "", role, nil)

	return nil
}

// SignIn authenticates with email and password. On success the role flags
// are activated before SignIn returns and the redirect policy runs as a
// fresh sign in. Failures leave the flags untouched and always surface the
// same generic message.
func (r *Router) SignIn(ctx context.Context, email, password string) error {
	done := r.begin()
	defer done()

	result, err := r.backend.SignInWithPassword(ctx, email, password)
	if err == nil && (result == nil || result.Session == nil) {
		err = fmt.Errorf("backend returned no session")
	}

	var session *Session
	if err == nil {
		session = result.Session.Clone()
		if result.Principal != nil {
			session.Principal = result.Principal.Clone()
		}
		if session.Expired(r.now()) {
			err = fmt.Errorf("backend returned a session that expired at %s", session.ExpiresAt.Format(time.RFC3339))
		}
	}

	if err != nil {
		r.logger.Error("sign in failed", "error", err)
		r.notify(ctx, Notification{
			Level:   NotificationError,
			Title:   r.messages.SignInFailureTitle,
			Message: r.messages.SignInFailure,
			Err:     err,
		})
		r.emit(ctx, ActivityEventSignInFailure, "", RoleUnknown, map[string]any{
			"error": err.Error(),
		})

		if IsBackendUnavailable(err) {
			return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	r.apply(ctx, sessionUpdate{
		session: session,
		event:   SessionEventSignedIn,
		source:  "sign_in",
	})

	role := ResolveRole(session.Principal)
	r.notify(ctx, Notification{
		Level: NotificationSuccess,
		Title: r.messages.SignInSuccessTitle,
	})
	r.emit(ctx, ActivityEventSignInSuccess, session.UserID(), role, nil)

	return nil
}

// SignInWithExternalProvider starts a federated sign in. Control leaves the
// application, so flags and redirects are driven later by the change stream
// when the provider sends the user back. An empty provider uses the
// configured default.
func (r *Router) SignInWithExternalProvider(ctx context.Context, provider string) error {
	done := r.begin()
	defer done()

	if provider == "" {
		provider = r.config.GetOAuthProvider()
	}

	err := r.backend.SignInWithOAuth(ctx, provider, OAuthOptions{
		RedirectTo: r.config.GetOAuthRedirectURL(),
	})
	if err != nil {
		r.logger.Error("external sign in failed", "provider", provider, "error", err)
		r.notify(ctx, Notification{
			Level:   NotificationError,
			Title:   r.messages.ExternalFailureTitle,
			Message: err.Error(),
			Err:     err,
		})
		r.emit(ctx, ActivityEventOAuthFailure, "", RoleUnknown, map[string]any{
			"provider": provider,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrExternalSignInFailed, err)
	}

	r.emit(ctx, ActivityEventOAuthStarted, "", RoleUnknown, map[string]any{
		"provider": provider,
	})

	return nil
}

// SignOut clears the role flags first, then asks the backend to invalidate
// the session, clears the local session and navigates to the landing path.
// A backend failure never keeps the user signed in locally; it is reported
// through a warning notification and ErrPartialSignOut.
func (r *Router) SignOut(ctx context.Context) error {
	done := r.begin()
	defer done()

	userID := r.Session().UserID()

	if err := r.flags.Clear(ctx); err != nil {
		r.logger.Error("sign out could not clear role flags", "error", err)
	}

	backendErr := r.backend.SignOut(ctx)
	if backendErr != nil {
		r.logger.Warn("backend sign out failed, clearing local session anyway", "error", backendErr)
	}

	r.apply(ctx, sessionUpdate{
		event:  SessionEventSignedOut,
		source: "sign_out",
	})

	landing := r.config.GetLandingPath()
	if err := r.navigator.Navigate(ctx, landing); err != nil {
		r.logger.Error("sign out navigation failed", "to", landing, "error", err)
	}

	meta := map[string]any{}
	if backendErr != nil {
		meta["error"] = backendErr.Error()
	}
	r.emit(ctx, ActivityEventSignOut, userID, RoleUnknown, meta)

	if backendErr != nil {
		r.notify(ctx, Notification{
			Level:   NotificationWarning,
			Title:   r.messages.SignOutPartialTitle,
			Message: backendErr.Error(),
			Err:     backendErr,
		})
		return fmt.Errorf("%w: %w", ErrPartialSignOut, backendErr)
	}

	r.notify(ctx, Notification{
		Level: NotificationSuccess,
		Title: r.messages.SignOutSuccessTitle,
	})

	return nil
}

func (r *Router) apply(ctx context.Context, u sessionUpdate) bool {
	session := u.session
	if u.event == SessionEventSignedOut {
		session = nil
	}

	if session.Expired(r.now()) {
		r.logger.Debug("ignoring expired session", "source", u.source, "user", session.UserID())
		session = nil
	}

	session = session.Clone()

	var principal *Principal
	if session != nil {
		principal = session.Principal
	}
	role := ResolveRole(principal)

	r.mu.Lock()
	if u.guarded && u.generation != r.generation {
		r.initialized = true
		r.mu.Unlock()
		r.logger.Debug("discarding superseded session snapshot", "source", u.source)
		r.publish()
		return false
	}

	fresh := principal != nil && (r.session == nil || principal.ID != principalID(r.principal))

	r.session = session
	r.principal = principal
	r.role = role
	r.generation++
	r.initialized = true

	flagErr := r.reconcileFlags(ctx, role)
	r.mu.Unlock()

	if flagErr != nil {
		r.logger.Error("role flags reconciliation failed", "source", u.source, "role", role, "error", flagErr)
	}

	r.redirect(ctx, role, fresh)
	r.publish()

	return true
}

// reconcileFlags overwrites the flags with the role of the current session.
// Must be called with r.mu held.
func (r *Router) reconcileFlags(ctx context.Context, role Role) error {
	if role.IsValid() {
		return r.flags.Activate(ctx, role)
	}
	return r.flags.Clear(ctx)
}

func (r *Router) redirect(ctx context.Context, role Role, fresh bool) {
	if r.policy == nil {
		return
	}

	path := r.location()
	target, ok := r.policy.Decide(role, path, fresh)
	if !ok {
		return
	}

	r.logger.Info("redirecting after sign in", "role", role, "from", path, "to", target)

	if err := r.navigator.Navigate(ctx, target); err != nil {
		r.logger.Error("redirect navigation failed", "to", target, "error", err)
	}
}

func (r *Router) begin() func() {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()
	r.publish()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.inflight--
			r.mu.Unlock()
			r.publish()
		})
	}
}

func (r *Router) publish() {
	snapshot := r.State()

	r.watchMu.Lock()
	fns := make([]func(Snapshot), 0, len(r.watchers))
	for _, w := range r.watchers {
		fns = append(fns, w.fn)
	}
	r.watchMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (r *Router) notify(ctx context.Context, n Notification) {
	r.notifier.Notify(ctx, n)
}

func (r *Router) emit(ctx context.Context, eventType ActivityEventType, userID string, role Role, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Role:       role,
		Metadata:   metadata,
		OccurredAt: r.now(),
	}

	if err := normalizeActivitySink(r.activitySink).Record(ctx, event); err != nil {
		r.logger.Warn("activity sink record error", "event", eventType, "error", err)
	}
}

func principalID(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.ID
}
