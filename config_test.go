package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

func TestBaseConfig_Defaults(t *testing.T) {
	var cfg auth.BaseConfig

	assert.Equal(t, "/", cfg.GetLandingPath())
	assert.Equal(t, "google", cfg.GetOAuthProvider())
	assert.Empty(t, cfg.GetOAuthRedirectURL())
	assert.Equal(t, auth.DefaultRedirectRules(), cfg.GetRedirectRules())
}

func TestBaseConfig_Overrides(t *testing.T) {
	cfg := auth.BaseConfig{
		LandingPath:      "/inicio/",
		OAuthProvider:    "github",
		OAuthRedirectURL: "https://patinhas.local/entrar",
		Redirects: []auth.RedirectRule{
			{Path: "/entrar", Role: auth.RolePersonal, Target: "/meus-pets"},
		},
	}

	assert.Equal(t, "/inicio", cfg.GetLandingPath())
	assert.Equal(t, "github", cfg.GetOAuthProvider())
	assert.Equal(t, "https://patinhas.local/entrar", cfg.GetOAuthRedirectURL())
	assert.Len(t, cfg.GetRedirectRules(), 1)
}

func TestDefaultMessages(t *testing.T) {
	m := auth.DefaultMessages()
	assert.Equal(t, "Credenciais incorretas ou usuário não existe.", m.SignInFailure)
	assert.NotEmpty(t, m.SignUpFallback)
	assert.NotEmpty(t, m.SignOutPartialTitle)
}
