package auth

import (
	"fmt"
	"maps"
	"time"
)

// Principal is the authenticated party behind a Session.
type Principal struct {
	ID        string         `json:"id"`
	Email     string         `json:"email,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// Clone returns a deep enough copy for callers that want to mutate metadata.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	if p.Metadata != nil {
		out.Metadata = maps.Clone(p.Metadata)
	}
	return &out
}

// Session is the backend issued proof of authentication.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Principal    *Principal `json:"principal,omitempty"`
}

// Expired reports whether the session is past its expiry at now.
// A nil session is never expired, it is absent.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// UserID returns the principal id or an empty string.
func (s *Session) UserID() string {
	if s == nil || s.Principal == nil {
		return ""
	}
	return s.Principal.ID
}

// Clone copies the session and its principal.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Principal = s.Principal.Clone()
	return &out
}

func (s Session) String() string {
	return fmt.Sprintf(
		"user=%s exp=%s token=%s",
		s.UserID(),
		s.ExpiresAt.Format(time.RFC3339),
		maskToken(s.AccessToken),
	)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SessionEventType names a session transition on the change stream.
type SessionEventType string

const (
	SessionEventInitial        SessionEventType = "initial_session"
	SessionEventSignedIn       SessionEventType = "signed_in"
	SessionEventSignedOut      SessionEventType = "signed_out"
	SessionEventTokenRefreshed SessionEventType = "token_refreshed"
	SessionEventUserUpdated    SessionEventType = "user_updated"
)

// SessionEvent is delivered by IdentityBackend.OnSessionChange.
type SessionEvent struct {
	Type    SessionEventType
	Session *Session
}
