package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

type tokenVerifier interface {
	Verify(tokenString string, expectedType string) (*model.AuthClaims, error)
}

type userResolver interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type contextKey string

const (
	userContextKey     contextKey = "auth_user"
	resourceContextKey contextKey = "auth_resource"
)

// AuthMiddleware gates requests: it turns a bearer token into a resolved user
// on the request context, or stops the request before any handler runs.
type AuthMiddleware struct {
	tokens tokenVerifier
	users  userResolver
}

func NewAuthMiddleware(tokens tokenVerifier, users userResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// extractBearer accepts exactly "Bearer <token>"; anything else is a missing
// credential.
func extractBearer(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", apierror.New("MISSING_CREDENTIAL", "authorization header is required", "", http.StatusUnauthorized)
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apierror.New("MISSING_CREDENTIAL", "authorization header must be 'Bearer <token>'", "", http.StatusUnauthorized)
	}

	return token, nil
}

func (m *AuthMiddleware) resolve(r *http.Request) (model.User, error) {
	token, err := extractBearer(r)
	if err != nil {
		return model.User{}, err
	}

	claims, err := m.tokens.Verify(token, "access")
	if err != nil {
		return model.User{}, err
	}

	user, err := m.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, apierror.Unauthorized("account no longer exists")
		}
		return model.User{}, err
	}

	return user, nil
}

// RequireAuth halts the request with a 401-class error unless a valid access
// token resolves to an existing user.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user when a valid token is presented and degrades
// to an anonymous context on any failure. It never halts the request.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, apierror.Unauthorized("authentication required"))
				return
			}

			if _, allowed := roleSet[strings.ToLower(user.Role)]; !allowed {
				writeAuthError(w, apierror.Forbidden("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ResourceLookup loads an owned resource by id and reports its owner. The
// loaded resource is attached to the context so handlers skip a second fetch.
type ResourceLookup func(ctx context.Context, id string) (resource any, ownerID string, err error)

type urlParamGetter func(r *http.Request, key string) string

// RequireOwnership must run after RequireAuth. Admins bypass the owner check.
func (m *AuthMiddleware) RequireOwnership(param urlParamGetter, paramName string, lookup ResourceLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeAuthError(w, apierror.Unauthorized("authentication required"))
				return
			}

			id := param(r, paramName)
			resource, ownerID, err := lookup(r.Context(), id)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			if ownerID != user.ID && user.Role != model.RoleAdmin {
				writeAuthError(w, apierror.Forbidden("you do not own this resource"))
				return
			}

			ctx := context.WithValue(r.Context(), resourceContextKey, resource)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok
}

func ResourceFromContext(ctx context.Context) any {
	return ctx.Value(resourceContextKey)
}
