package identity

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

// Authorization describes where a federated sign in sent the browser.
type Authorization struct {
	Provider   string
	State      string
	URL        string
	RedirectTo string
}

// ExternalProfile is what the provider returns once the user consents.
type ExternalProfile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	Metadata       map[string]any
}

// SignInWithOAuth records a pending flow and returns. The browser would
// now leave for the provider; the session is only created by CompleteOAuth.
func (b *Backend) SignInWithOAuth(ctx context.Context, provider string, opts auth.OAuthOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.takeFailure(OpSignInOAuth); err != nil {
		return err
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	if !b.providerEnabled(provider) {
		return fmt.Errorf("%w: %q", ErrProviderNotFound, provider)
	}

	state := &oauthState{
		Nonce:       generateNonce(),
		Provider:    provider,
		RedirectURL: opts.RedirectTo,
	}

	token, err := b.states.encode(state, b.now())
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("provider", provider)
	query.Set("state", token)
	if opts.RedirectTo != "" {
		query.Set("redirect_to", opts.RedirectTo)
	}
	if len(opts.Scopes) > 0 {
		query.Set("scopes", strings.Join(opts.Scopes, " "))
	}

	authz := &Authorization{
		Provider:   provider,
		State:      token,
		URL:        b.cfg.AuthorizeURL + "?" + query.Encode(),
		RedirectTo: opts.RedirectTo,
	}

	b.mu.Lock()
	b.pending[state.Nonce] = pendingFlow{provider: provider, redirectTo: opts.RedirectTo}
	b.lastAuthorization = authz
	b.mu.Unlock()

	b.logger.Info("oauth flow started", "provider", provider)

	return nil
}

// LastAuthorization returns the most recent federated sign in request.
func (b *Backend) LastAuthorization() (Authorization, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastAuthorization == nil {
		return Authorization{}, false
	}
	return *b.lastAuthorization, true
}

// CompleteOAuth handles the provider callback. It links the profile to an
// existing account by provider identity or verified email, or creates a new
// account, then starts a session and emits it on the change stream. Each
// state can be used once.
func (b *Backend) CompleteOAuth(ctx context.Context, stateToken string, profile ExternalProfile) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state, err := b.states.decode(stateToken, b.now())
	if err != nil {
		return nil, err
	}

	if profile.ProviderUserID == "" {
		return nil, fmt.Errorf("%w: missing provider user id", ErrInvalidState)
	}

	b.mu.Lock()
	flow, ok := b.pending[state.Nonce]
	if !ok || flow.provider != state.Provider {
		b.mu.Unlock()
		return nil, ErrInvalidState
	}
	delete(b.pending, state.Nonce)

	acc, err := b.resolveExternalAccount(state.Provider, profile)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	snapshot := *acc
	b.mu.Unlock()

	return b.startSession(snapshot)
}

// resolveExternalAccount must be called with b.mu held.
func (b *Backend) resolveExternalAccount(provider string, profile ExternalProfile) (*account, error) {
	for _, acc := range b.accounts {
		if acc.Identities[provider] == profile.ProviderUserID {
			return acc, nil
		}
	}

	email := normalizeEmail(profile.Email)
	if acc, ok := b.accounts[email]; ok && email != "" {
		if !profile.EmailVerified {
			return nil, ErrEmailNotVerified
		}
		acc.Identities[provider] = profile.ProviderUserID
		acc.Confirmed = true
		b.logger.Info("external identity linked", "user", acc.ID, "provider", provider)
		return acc, nil
	}

	metadata, err := normalizeMetadata(profile.Metadata, b.cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}
	if _, ok := metadata[auth.RoleMetadataKey]; !ok {
		metadata[auth.RoleMetadataKey] = string(b.cfg.DefaultRole)
	}
	if profile.Name != "" {
		if _, ok := metadata["name"]; !ok {
			metadata["name"] = profile.Name
		}
	}

	key := email
	if key == "" {
		key = provider + ":" + profile.ProviderUserID
	}

	id, err := b.newID(key)
	if err != nil {
		return nil, err
	}

	acc := &account{
		ID:         id,
		Email:      email,
		Metadata:   maps.Clone(metadata),
		Confirmed:  true,
		Identities: map[string]string{provider: profile.ProviderUserID},
		CreatedAt:  b.now(),
	}
	b.accounts[key] = acc

	b.logger.Info("account created from external identity", "user", id, "provider", provider)

	return acc, nil
}

func (b *Backend) providerEnabled(provider string) bool {
	if provider == "" {
		return false
	}
	if len(b.cfg.Providers) == 0 {
		return true
	}
	return slices.ContainsFunc(b.cfg.Providers, func(p string) bool {
		return strings.EqualFold(p, provider)
	})
}
