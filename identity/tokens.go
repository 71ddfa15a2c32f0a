package identity

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

// AccessClaims is the payload of access tokens issued by the Backend.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string         `json:"email,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

type tokenIssuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func (ti *tokenIssuer) issue(acc account, now time.Time) (*auth.Session, error) {
	principal := acc.principal()
	expiresAt := now.Add(ti.ttl)

	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:    principal.Email,
		Role:     string(auth.ResolveRole(principal)),
		Metadata: maps.Clone(principal.Metadata),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.signingKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign access token")
	}

	return &auth.Session{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    expiresAt,
		Principal:    principal,
	}, nil
}

func (ti *tokenIssuer) parse(raw string, now time.Time) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.signingKey, nil
	},
		jwt.WithIssuer(ti.issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func principalFromClaims(claims *AccessClaims) *auth.Principal {
	p := &auth.Principal{
		ID:       claims.Subject,
		Email:    claims.Email,
		Metadata: maps.Clone(claims.Metadata),
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	if _, ok := p.Metadata[auth.RoleMetadataKey]; !ok && claims.Role != "" {
		p.Metadata[auth.RoleMetadataKey] = claims.Role
	}
	return p
}
