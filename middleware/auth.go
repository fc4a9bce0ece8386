package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"prestadiario/models"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the JWT token and puts the user identity into the
// request context
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			// Strip the "Bearer " prefix if present
			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtKey, nil
			})

			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			userID, ok := claims["user_id"].(float64)
			if !ok {
				http.Error(w, "Invalid user_id in token", http.StatusUnauthorized)
				return
			}
			roleID, ok := claims["role_id"].(float64)
			if !ok {
				http.Error(w, "Invalid role_id in token", http.StatusUnauthorized)
				return
			}

			r.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))

			ctx := r.Context()
			ctx = context.WithValue(ctx, "user_id", uint(userID))
			ctx = context.WithValue(ctx, "role_id", uint(roleID))
			if email, ok := claims["email"].(string); ok {
				ctx = context.WithValue(ctx, "email", email)
			}
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests from users without an admin-like role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roleID, ok := r.Context().Value("role_id").(uint)
		if !ok || (roleID != models.RoleAdmin && roleID != models.RoleSupervisor) {
			http.Error(w, "Access denied", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext returns the authenticated user's id and role
func GetUserFromContext(r *http.Request) (uint, uint, error) {
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		return 0, 0, fmt.Errorf("user_id not found in context")
	}

	roleID, ok := r.Context().Value("role_id").(uint)
	if !ok {
		return 0, 0, fmt.Errorf("role_id not found in context")
	}

	return userID, roleID, nil
}
