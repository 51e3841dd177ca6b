package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"
)

type contextKey string

const (
	ctxClaims contextKey = "claims"
	ctxActor  contextKey = "actor"
)

// WithAuth accepts "Authorization: Bearer <token>" and, for clients that send
// the bare token, the header value itself.
func WithAuth(tokens services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				WriteError(w, http.StatusUnauthorized, "No token provided")
				return
			}
			tokenStr := header
			if parts := strings.Fields(header); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			ctx = context.WithValue(ctx, ctxActor, services.Actor{ID: claims.ID, Name: claims.Name, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithFreshRole replaces the token's role hint with the role stored on the
// user row. A user deleted after the token was issued is rejected.
func WithFreshRole(identity *services.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(ctxClaims).(services.Claims)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			user, err := identity.Authoritative(r.Context(), claims.ID)
			if err != nil {
				if !mapServiceError(w, err) {
					WriteError(w, http.StatusInternalServerError, "Server error")
				}
				return
			}
			ctx := context.WithValue(r.Context(), ctxActor, services.ActorFrom(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentActor(r *http.Request) services.Actor {
	if value, ok := r.Context().Value(ctxActor).(services.Actor); ok {
		return value
	}
	return services.Actor{}
}

func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

func RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := map[models.Role]bool{}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := CurrentActor(r)
			if actor.ID == "" {
				WriteError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if !allowed[actor.Role] {
				WriteError(w, http.StatusForbidden, "Forbidden: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var staffRoles = []models.Role{models.RoleAdmin, models.RoleSuperadmin}

func requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{IP: resolveClientIP(r), UserAgent: r.UserAgent()}
}

// resolveClientIP reads the peer address left on the request by ClientIP.
func resolveClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
