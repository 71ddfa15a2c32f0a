package auth

// Config holds router options
type Config interface {
	GetLandingPath() string
	GetOAuthProvider() string
	GetOAuthRedirectURL() string
	GetRedirectRules() []RedirectRule
}

const (
	DefaultLandingPath   = "/"
	DefaultOAuthProvider = "google"
)

var _ Config = BaseConfig{}

// BaseConfig is a plain Config that can be decoded from YAML or JSON.
type BaseConfig struct {
	LandingPath      string         `json:"landing_path" yaml:"landing_path"`
	OAuthProvider    string         `json:"oauth_provider" yaml:"oauth_provider"`
	OAuthRedirectURL string         `json:"oauth_redirect_url" yaml:"oauth_redirect_url"`
	Redirects        []RedirectRule `json:"redirects" yaml:"redirects"`
}

// DefaultConfig returns the marketplace defaults.
func DefaultConfig() BaseConfig {
	return BaseConfig{
		LandingPath:   DefaultLandingPath,
		OAuthProvider: DefaultOAuthProvider,
		Redirects:     DefaultRedirectRules(),
	}
}

func (c BaseConfig) GetLandingPath() string {
	if c.LandingPath == "" {
		return DefaultLandingPath
	}
	return NormalizePath(c.LandingPath)
}

func (c BaseConfig) GetOAuthProvider() string {
	if c.OAuthProvider == "" {
		return DefaultOAuthProvider
	}
	return c.OAuthProvider
}

func (c BaseConfig) GetOAuthRedirectURL() string {
	return c.OAuthRedirectURL
}

// GetRedirectRules falls back to DefaultRedirectRules when none are set.
func (c BaseConfig) GetRedirectRules() []RedirectRule {
	if len(c.Redirects) == 0 {
		return DefaultRedirectRules()
	}
	return c.Redirects
}

// Messages are the user facing notification texts.
type Messages struct {
	SignUpSuccessTitle   string `json:"signup_success_title" yaml:"signup_success_title"`
	SignUpSuccessMessage string `json:"signup_success_message" yaml:"signup_success_message"`
	SignUpFailureTitle   string `json:"signup_failure_title" yaml:"signup_failure_title"`
	SignUpFallback       string `json:"signup_fallback" yaml:"signup_fallback"`
	InvalidRole          string `json:"invalid_role" yaml:"invalid_role"`
	SignInSuccessTitle   string `json:"signin_success_title" yaml:"signin_success_title"`
	SignInFailureTitle   string `json:"signin_failure_title" yaml:"signin_failure_title"`
	SignInFailure        string `json:"signin_failure" yaml:"signin_failure"`
	ExternalFailureTitle string `json:"external_failure_title" yaml:"external_failure_title"`
	SignOutSuccessTitle  string `json:"signout_success_title" yaml:"signout_success_title"`
	SignOutPartialTitle  string `json:"signout_partial_title" yaml:"signout_partial_title"`
}

// DefaultMessages returns the pt-BR texts used by the marketplace.
func DefaultMessages() Messages {
	return Messages{
		SignUpSuccessTitle:   "Cadastro realizado com sucesso",
		SignUpSuccessMessage: "Verifique seu e-mail para confirmar a conta.",
		SignUpFailureTitle:   "Erro ao cadastrar",
		SignUpFallback:       "Não foi possível concluir o cadastro. Tente novamente.",
		InvalidRole:          "Tipo de conta inválido.",
		SignInSuccessTitle:   "Login realizado com sucesso",
		SignInFailureTitle:   "Erro ao entrar",
		SignInFailure:        "Credenciais incorretas ou usuário não existe.",
		ExternalFailureTitle: "Erro ao entrar com provedor externo",
		SignOutSuccessTitle:  "Você saiu da sua conta",
		SignOutPartialTitle:  "Sessão encerrada neste dispositivo",
	}
}

// merge fills empty fields of m with defaults.
func (m Messages) merge(defaults Messages) Messages {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Messages{
		SignUpSuccessTitle:   pick(m.SignUpSuccessTitle, defaults.SignUpSuccessTitle),
		SignUpSuccessMessage: pick(m.SignUpSuccessMessage, defaults.SignUpSuccessMessage),
		SignUpFailureTitle:   pick(m.SignUpFailureTitle, defaults.SignUpFailureTitle),
		SignUpFallback:       pick(m.SignUpFallback, defaults.SignUpFallback),
		InvalidRole:          pick(m.InvalidRole, defaults.InvalidRole),
		SignInSuccessTitle:   pick(m.SignInSuccessTitle, defaults.SignInSuccessTitle),
		SignInFailureTitle:   pick(m.SignInFailureTitle, defaults.SignInFailureTitle),
		SignInFailure:        pick(m.SignInFailure, defaults.SignInFailure),
		ExternalFailureTitle: pick(m.ExternalFailureTitle, defaults.ExternalFailureTitle),
		SignOutSuccessTitle:  pick(m.SignOutSuccessTitle, defaults.SignOutSuccessTitle),
		SignOutPartialTitle:  pick(m.SignOutPartialTitle, defaults.SignOutPartialTitle),
	}
}
