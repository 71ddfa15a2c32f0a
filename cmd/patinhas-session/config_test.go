package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patinhas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, driverFile, cfg.FlagStore.Driver)
	assert.Equal(t, "/", cfg.Auth.GetLandingPath())
	assert.Equal(t, auth.DefaultRedirectRules(), cfg.Auth.GetRedirectRules())
	assert.Equal(t, auth.DefaultMessages(), cfg.Messages)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
auth:
  landing_path: /inicio
  oauth_provider: github
  redirects:
    - path: /entrar
      role: pessoal
      target: /meus-pets
flag_store:
  driver: redis
  redis_addr: localhost:6379
  redis_ttl: 24h
  scope: browser-1
messages:
  signin_failure: Usuário ou senha inválidos.
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/inicio", cfg.Auth.GetLandingPath())
	assert.Equal(t, "github", cfg.Auth.GetOAuthProvider())
	require.Len(t, cfg.Auth.GetRedirectRules(), 1)

	table := auth.NewRedirectTable(cfg.Auth.GetRedirectRules()...)
	target, ok := table.Decide(auth.RolePersonal, "/entrar", true)
	assert.True(t, ok)
	assert.Equal(t, "/meus-pets", target)

	assert.Equal(t, driverRedis, cfg.FlagStore.Driver)
	assert.Equal(t, 24*time.Hour, cfg.FlagStore.RedisTTL)
	assert.Equal(t, "browser-1", cfg.FlagStore.Scope)

	assert.Equal(t, "Usuário ou senha inválidos.", cfg.Messages.SignInFailure)
	assert.Equal(t, auth.DefaultMessages().SignUpFallback, cfg.Messages.SignUpFallback)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "flag_store:\n  driver: mongo\n"},
		{name: "redis without addr", content: "flag_store:\n  driver: redis\n"},
		{name: "sql without dsn", content: "flag_store:\n  driver: sql\n"},
		{name: "bad role", content: "auth:\n  redirects:\n    - path: /x\n      role: admin\n      target: /y\n"},
		{name: "bad yaml", content: "auth: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
