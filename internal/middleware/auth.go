package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/auth"
	"hvac-backend/internal/models"
	"hvac-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"

// SessionCookie carries the access token for browser sessions.
const SessionCookie = "sb-access-token"

// ProfileGetter looks up the role record for a token subject.
type ProfileGetter interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	profiles   ProfileGetter
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, profiles ProfileGetter) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		profiles:   profiles,
	}
}

func bearerToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", apperr.Unauthorized("Invalid authorization format")
		}
		return parts[1], nil
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", apperr.Unauthorized("Authentication required")
}

// resolve validates the token and loads the profile. The role always comes
// from the database so permission changes apply immediately.
func (m *AuthMiddleware) resolve(r *http.Request) (*models.Profile, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	profile, err := m.profiles.Get(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, apperr.Database(err)
	}

	if !profile.IsActive {
		return nil, apperr.Forbidden("Account suspended. Please contact administrator.")
	}
	return profile, nil
}

func withProfile(ctx context.Context, p *models.Profile) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, p.ID)
	ctx = context.WithValue(ctx, EmailKey, p.Email)
	return context.WithValue(ctx, RoleKey, p.Role)
}

// Authenticate admits any active staff profile.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, err := m.resolve(r)
		if err != nil {
			utils.Error(w, r, err)
			return
		}
		if !profile.IsStaff() {
			utils.Error(w, r, apperr.Forbidden("Forbidden: Insufficient permissions"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withProfile(r.Context(), profile)))
	})
}

// RequireRole is a middleware that ensures the user has one of the allowed
// roles. Behind Authenticate it reuses the resolved profile.
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, ok := GetRoleFromContext(ctx)
			if !ok {
				profile, err := m.resolve(r)
				if err != nil {
					utils.Error(w, r, err)
					return
				}
				role = profile.Role
				ctx = withProfile(ctx, profile)
			}

			hasRole := false
			for _, allowed := range allowedRoles {
				if role == allowed {
					hasRole = true
					break
				}
			}
			if !hasRole {
				utils.Error(w, r, apperr.Forbidden("Forbidden: Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// Chain applies mws in order, outermost first, to a handler func.
func Chain(mws ...func(http.Handler) http.Handler) func(http.HandlerFunc) http.Handler {
	return func(fn http.HandlerFunc) http.Handler {
		var h http.Handler = fn
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
