package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"sidesa/models"
	"sidesa/rbac"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ErrNoActor is returned when a handler asks for the actor on a request that
// never went through RequireAuth.
var ErrNoActor = errors.New("middleware: no actor in request context")

// AuthMiddleware validates the bearer token and attaches the caller identity
// (role, id, username) to the request context. It authorizes nothing by
// itself: every check the handlers appear to make is re-made inside the
// services, because the transport layer is untrusted input.
type AuthMiddleware struct {
	matrix    *rbac.Matrix
	jwtSecret []byte
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(matrix *rbac.Matrix, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		matrix:    matrix,
		jwtSecret: []byte(jwtSecret),
	}
}

// RequireAuth validates the JWT and puts the actor in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := m.actorFromRequest(r)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdminArea is RequireAuth plus the admin-area gate from the
// permission matrix. The services re-check everything; this only keeps
// citizens off admin routes early.
func (m *AuthMiddleware) RequireAdminArea(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Actor not found in context")
			return
		}
		if !m.matrix.CanEnterAdminArea(actor.Role) {
			respondWithError(w, http.StatusForbidden, "Forbidden", "This account may not enter the admin area")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m *AuthMiddleware) actorFromRequest(r *http.Request) (models.Actor, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return models.Actor{}, errors.New("Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.Actor{}, errors.New("invalid authorization format, expected: Bearer <token>")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("invalid token claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return models.Actor{}, errors.New("invalid token: user_id not found")
	}
	roleClaim, ok := claims["role"].(string)
	if !ok {
		return models.Actor{}, errors.New("invalid token: role not found")
	}
	username, _ := claims["username"].(string)

	return models.Actor{
		ID:       int64(userIDFloat),
		Username: username,
		Role:     models.ParseRole(roleClaim),
	}, nil
}

// ActorFromContext returns the actor attached by RequireAuth.
func ActorFromContext(ctx context.Context) (models.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	if !ok {
		return models.Actor{}, ErrNoActor
	}
	return actor, nil
}

// Helper function for error responses
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := fmt.Sprintf(`{"error":%q,"message":%q,"code":%d}`, errorType, message, statusCode)
	w.Write([]byte(body))
}
