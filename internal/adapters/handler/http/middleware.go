package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
)

type contextKeyVoterID struct{}
type contextKeyRole struct{}

// VoterIDFrom retrieves the authenticated voter ID from the context.
func VoterIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKeyVoterID{}).(uuid.UUID)
	return id, ok
}

// RoleFrom retrieves the authenticated role from the context.
func RoleFrom(ctx context.Context) domain.Role {
	role, _ := ctx.Value(contextKeyRole{}).(domain.Role)
	return role
}

// Authenticator validates access tokens. Token issuance lives outside
// this service; only the capability check happens here.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ParseToken validates an HS256 token and extracts the voter identity.
func (a *Authenticator) ParseToken(tokenString string) (uuid.UUID, domain.Role, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", errors.New("invalid claims")
	}

	sub, _ := claims["sub"].(string)
	voterID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", errors.New("invalid subject")
	}

	role := domain.RoleVoter
	if raw, ok := claims["role"].(string); ok && raw != "" {
		role = domain.Role(raw)
	}
	return voterID, role, nil
}

// TokenFromRequest pulls the access token from the cookie or the
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Authenticate rejects requests without a valid token and stores the
// voter identity in the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := TokenFromRequest(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing access token")
			return
		}

		voterID, role, err := a.ParseToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyVoterID{}, voterID)
		ctx = context.WithValue(ctx, contextKeyRole{}, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route on one of the given roles. Must run after
// Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFrom(r.Context())]; !ok {
				writeError(w, http.StatusForbidden, "Forbidden", domain.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
