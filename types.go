package auth

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging contract used across the package. Messages are
// followed by key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// IdentityBackend is the hosted identity service the Router delegates to.
// Implementations own sessions; the Router only holds read-only copies.
type IdentityBackend interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers fn for every future session transition.
	// Some backends also deliver the current state at subscribe time, so
	// callers must not assume exactly-once initial delivery.
	OnSessionChange(fn func(SessionEvent)) (unsubscribe func())

	SignUp(ctx context.Context, email, password string, opts SignUpOptions) error
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)

	// SignInWithOAuth starts a federated flow. Control leaves the
	// application, the resulting session arrives on the change stream.
	SignInWithOAuth(ctx context.Context, provider string, opts OAuthOptions) error

	SignOut(ctx context.Context) error
}

// SignUpOptions carries the principal metadata stored at registration.
type SignUpOptions struct {
	Metadata   map[string]any
	RedirectTo string
}

// OAuthOptions configures a federated sign in.
type OAuthOptions struct {
	RedirectTo string
	Scopes     []string
}

// AuthResult is returned by a successful password sign in.
type AuthResult struct {
	Session   *Session
	Principal *Principal
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(formatLine("DBG", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(formatLine("INF", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(formatLine("WRN", msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(formatLine("ERR", msg, args...))
}

// DefaultLogger returns the stdout logger used when none is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

func formatLine(level, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level)
	b.WriteString("] AUTH ")
	b.WriteString(strings.TrimRight(msg, "\n"))

	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}

	b.WriteString("\n")
	return b.String()
}
