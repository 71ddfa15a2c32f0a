package identity_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
	"github.com/arthurcarlsonn/patinhas-e-cora-sub000/identity"
)

func startOAuth(t *testing.T, b *identity.Backend, provider string) identity.Authorization {
	t.Helper()
	err := b.SignInWithOAuth(context.Background(), provider, auth.OAuthOptions{
		RedirectTo: "https://patinhas.local/entrar",
		Scopes:     []string{"email", "profile"},
	})
	require.NoError(t, err)

	authz, ok := b.LastAuthorization()
	require.True(t, ok)
	return authz
}

func TestOAuth_RoundTripCreatesAccount(t *testing.T) {
	b := newBackend(t, identity.Config{
		AuthorizeURL: "https://auth.example.com/authorize",
		Providers:    []string{"google"},
	}, newClock())

	rec := &eventRecorder{}
	b.OnSessionChange(rec.record)

	authz := startOAuth(t, b, "Google")
	assert.Equal(t, "google", authz.Provider)
	assert.Equal(t, "https://patinhas.local/entrar", authz.RedirectTo)

	parsed, err := url.Parse(authz.URL)
	require.NoError(t, err)
	assert.Equal(t, "auth.example.com", parsed.Host)
	assert.Equal(t, authz.State, parsed.Query().Get("state"))
	assert.Equal(t, "email profile", parsed.Query().Get("scopes"))

	assert.Empty(t, rec.types(), "starting the flow must not change the session")

	session, err := b.CompleteOAuth(context.Background(), authz.State, identity.ExternalProfile{
		ProviderUserID: "g-123",
		Email:          "ana@gmail.com",
		EmailVerified:  true,
		Name:           "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, auth.RolePersonal, auth.ResolveRole(session.Principal))
	assert.Equal(t, "Ana", session.Principal.Metadata["name"])
	assert.Equal(t, []auth.SessionEventType{auth.SessionEventSignedIn}, rec.types())
}

func TestOAuth_RefreshAccountWithoutEmail(t *testing.T) {
	c := newClock()
	b := newBackend(t, identity.Config{}, c)

	rec := &eventRecorder{}
	b.OnSessionChange(rec.record)

	authz := startOAuth(t, b, "google")
	session, err := b.CompleteOAuth(context.Background(), authz.State, identity.ExternalProfile{ProviderUserID: "g-1"})
	require.NoError(t, err)
	assert.Empty(t, session.Principal.Email)

	c.Advance(time.Minute)

	refreshed, err := b.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Principal.ID, refreshed.Principal.ID)
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)
	assert.Equal(t, []auth.SessionEventType{
		auth.SessionEventSignedIn,
		auth.SessionEventTokenRefreshed,
	}, rec.types())
}

func TestOAuth_StateUsedOnce(t *testing.T) {
	b := newBackend(t, identity.Config{}, newClock())
	authz := startOAuth(t, b, "google")

	profile := identity.ExternalProfile{ProviderUserID: "g-1", Email: "ana@gmail.com", EmailVerified: true}

	_, err := b.CompleteOAuth(context.Background(), authz.State, profile)
	require.NoError(t, err)

	_, err = b.CompleteOAuth(context.Background(), authz.State, profile)
	assert.ErrorIs(t, err, identity.ErrInvalidState)
}

func TestOAuth_ExpiredState(t *testing.T) {
	c := newClock()
	b := newBackend(t, identity.Config{StateTTL: time.Minute}, c)
	authz := startOAuth(t, b, "google")

	c.Advance(5 * time.Minute)

	_, err := b.CompleteOAuth(context.Background(), authz.State, identity.ExternalProfile{ProviderUserID: "g-1"})
	assert.ErrorIs(t, err, identity.ErrStateExpired)
}

func TestOAuth_ProviderNotEnabled(t *testing.T) {
	b := newBackend(t, identity.Config{Providers: []string{"google"}}, newClock())

	err := b.SignInWithOAuth(context.Background(), "github", auth.OAuthOptions{})
	assert.ErrorIs(t, err, identity.ErrProviderNotFound)

	_, ok := b.LastAuthorization()
	assert.False(t, ok)
}

func TestOAuth_LinksVerifiedEmail(t *testing.T) {
	b := newBackend(t, identity.Config{}, newClock())
	signUp(t, b, "ong@example.com", auth.RoleNGO)

	existing, err := b.SignInWithPassword(context.Background(), "ong@example.com", "segredo123")
	require.NoError(t, err)
	require.NoError(t, b.SignOut(context.Background()))

	authz := startOAuth(t, b, "google")
	_, err = b.CompleteOAuth(context.Background(), authz.State, identity.ExternalProfile{
		ProviderUserID: "g-ong",
		Email:          "ong@example.com",
		EmailVerified:  false,
	})
	assert.ErrorIs(t, err, identity.ErrEmailNotVerified)

	authz = startOAuth(t, b, "google")
	session, err := b.CompleteOAuth(context.Background(), authz.State, identity.ExternalProfile{
		ProviderUserID: "g-ong",
		Email:          "ong@example.com",
		EmailVerified:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, existing.Principal.ID, session.UserID())
	assert.Equal(t, auth.RoleNGO, auth.ResolveRole(session.Principal))

	authz = startOAuth(t, b, "google")
	again, err := b.CompleteOAuth(context.Background(), authz.State, identity.ExternalProfile{
		ProviderUserID: "g-ong",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.Principal.ID, again.UserID())
}

func TestOAuth_FailNext(t *testing.T) {
	b := newBackend(t, identity.Config{}, newClock())
	b.FailNext(identity.OpSignInOAuth, identity.ErrProviderNotFound)

	err := b.SignInWithOAuth(context.Background(), "google", auth.OAuthOptions{})
	assert.ErrorIs(t, err, identity.ErrProviderNotFound)
}
