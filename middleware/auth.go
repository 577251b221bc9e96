package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/models"
	"assetflow/utils"
)

type contextKey int

const (
	userKey contextKey = iota
	requestIDKey
)

// AuthUser is the authenticated caller attached to the request context.
type AuthUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func WithUser(ctx context.Context, u AuthUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(userKey).(AuthUser)
	return u, ok
}

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

// UserLookup loads the user a token was issued to.
type UserLookup interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Authenticator struct {
	tokens TokenValidator
	users  UserLookup
	logger *zap.Logger
}

func NewAuthenticator(tokens TokenValidator, users UserLookup, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

var errNoToken = errors.New("missing token")

// bearerToken reads the Authorization header. Websocket upgrades may pass the
// token as a query parameter since browsers cannot set headers on them.
func bearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return "", errNoToken
		}
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), nil
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
	}
	return "", errNoToken
}

// Middleware rejects requests without a valid token for an existing user.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil || token == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		claims, err := a.tokens.ValidateJWT(token)
		if err != nil {
			a.logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		user, err := a.users.Get(r.Context(), userID)
		if err != nil {
			a.logger.Debug("token user not found", zap.String("userId", claims.UserID), zap.Error(err))
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		ctx := WithUser(r.Context(), AuthUser{
			ID:    user.ID.Hex(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only callers whose role is listed. It must run after Middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.RespondWithError(w, http.StatusForbidden, "User role not authorized to access this route")
		})
	}
}
