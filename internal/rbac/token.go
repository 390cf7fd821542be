package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the claim set issued by the identity provider.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig configures TokenResolver.
type TokenConfig struct {
	Secret     string
	Issuer     string
	CookieName string
	Leeway     time.Duration
}

// TokenResolver resolves principals from HS256 tokens carried in the
// Authorization header or a cookie.
type TokenResolver struct {
	secret     []byte
	issuer     string
	cookieName string
	leeway     time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewTokenResolver validates cfg and builds a TokenResolver.
func NewTokenResolver(cfg TokenConfig, logger *slog.Logger) (*TokenResolver, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("rbac: token secret required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenResolver{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		cookieName: cfg.CookieName,
		leeway:     cfg.Leeway,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Resolve implements Resolver.
func (t *TokenResolver) Resolve(r *http.Request) (Principal, bool) {
	raw := t.tokenFromRequest(r)
	if raw == "" {
		return Principal{}, false
	}
	p, err := t.Parse(raw)
	if err != nil {
		t.logger.Debug("token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
		return Principal{}, false
	}
	return p, true
}

// Parse verifies a token and converts its claims into a Principal.
func (t *TokenResolver) Parse(raw string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
		jwt.WithLeeway(t.leeway),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("rbac: parse token: %w", err)
	}
	if !token.Valid {
		return Principal{}, errors.New("rbac: invalid token")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{ID: strings.TrimSpace(claims.Subject), Role: role}
	if err := p.Validate(); err != nil {
		return Principal{}, fmt.Errorf("rbac: token claims: %w", err)
	}
	return p, nil
}

func (t *TokenResolver) tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if t.cookieName == "" {
		return ""
	}
	cookie, err := r.Cookie(t.cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
