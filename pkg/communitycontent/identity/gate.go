// Package identity turns an incoming request into a communitycontent.Principal.
//
// Tokens are HS256 JWTs carrying an "email" claim and an optional
// "is_operator" claim. Anything that does not verify resolves to the
// anonymous principal.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// Claim names carried by tokens.
const (
	ClaimEmail    = "email"
	ClaimOperator = "is_operator"
)

// Gate verifies request tokens with a shared signing key.
type Gate struct {
	auth *jwtauth.JWTAuth
}

// NewGate creates a gate that signs and verifies with secret.
func NewGate(secret string) (*Gate, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity: signing secret is required")
	}
	return &Gate{auth: jwtauth.New("HS256", []byte(secret), nil)}, nil
}

// Resolve returns the principal for r. The token is read from the
// Authorization header first and then from the "jwt" cookie.
func (g *Gate) Resolve(r *http.Request) communitycontent.Principal {
	token, err := jwtauth.VerifyRequest(g.auth, r, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie)
	if err != nil || token == nil {
		if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
			slog.Debug("Token rejected", "error", err)
		}
		return communitycontent.Anonymous()
	}

	raw, ok := token.Get(ClaimEmail)
	if !ok {
		return communitycontent.Anonymous()
	}
	email, ok := raw.(string)
	if !ok || communitycontent.ValidateAuthor(email) != nil {
		return communitycontent.Anonymous()
	}

	if raw, ok := token.Get(ClaimOperator); ok {
		if isOp, ok := raw.(bool); ok && isOp {
			return communitycontent.NewOperator(email)
		}
	}
	return communitycontent.NewUser(email)
}

// IssueToken signs a token for email that expires after ttl.
func (g *Gate) IssueToken(email string, operator bool, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		ClaimEmail:    communitycontent.NormalizeEmail(email),
		ClaimOperator: operator,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(ttl))

	_, signed, err := g.auth.Encode(claims)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Middleware resolves the principal once per request and stores it in the
// request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := g.Resolve(r)
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p communitycontent.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored by Middleware, or the anonymous
// principal when there is none.
func FromContext(ctx context.Context) communitycontent.Principal {
	if p, ok := ctx.Value(contextKey{}).(communitycontent.Principal); ok {
		return p
	}
	return communitycontent.Anonymous()
}

// RequireUser fails unless p is authenticated.
func RequireUser(p communitycontent.Principal) error {
	if !p.IsAuthenticated() {
		return communitycontent.ErrUnauthorized
	}
	return nil
}

// RequireOperator fails unless p is an operator.
func RequireOperator(p communitycontent.Principal) error {
	if !p.IsOperator() {
		return communitycontent.ErrUnauthorized
	}
	return nil
}
