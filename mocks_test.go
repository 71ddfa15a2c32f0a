package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

// MockIdentityBackend implements auth.IdentityBackend
type MockIdentityBackend struct {
	mock.Mock

	mu       sync.Mutex
	handler  func(auth.SessionEvent)
	released int
}

func (m *MockIdentityBackend) GetSession(ctx context.Context) (*auth.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *MockIdentityBackend) OnSessionChange(fn func(auth.SessionEvent)) func() {
	m.mu.Lock()
	m.handler = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.handler = nil
		m.released++
	}
}

func (m *MockIdentityBackend) SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) error {
	args := m.Called(ctx, email, password, opts)
	return args.Error(0)
}

func (m *MockIdentityBackend) SignInWithPassword(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*auth.AuthResult)
	return result, args.Error(1)
}

func (m *MockIdentityBackend) SignInWithOAuth(ctx context.Context, provider string, opts auth.OAuthOptions) error {
	args := m.Called(ctx, provider, opts)
	return args.Error(0)
}

func (m *MockIdentityBackend) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Emit delivers event to the subscribed handler, if any.
func (m *MockIdentityBackend) Emit(event auth.SessionEvent) bool {
	m.mu.Lock()
	fn := m.handler
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(event)
	return true
}

func (m *MockIdentityBackend) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler != nil
}

func (m *MockIdentityBackend) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// recordingNavigator implements auth.Navigator
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return nil
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// recordingNotifier implements auth.Notifier
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []auth.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification auth.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) Last() (auth.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notifications) == 0 {
		return auth.Notification{}, false
	}
	return n.notifications[len(n.notifications)-1], true
}

// recordingSink implements auth.ActivitySink
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.ActivityEvent(nil), s.events...)
}

type location struct {
	mu   sync.Mutex
	path string
}

func (l *location) Set(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
}

func (l *location) Get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sessionFor(id string, role auth.Role) *auth.Session {
	return &auth.Session{
		AccessToken: "token-" + id,
		ExpiresAt:   testNow.Add(time.Hour),
		Principal: &auth.Principal{
			ID:       id,
			Email:    id + "@example.com",
			Metadata: map[string]any{auth.RoleMetadataKey: string(role)},
		},
	}
}
