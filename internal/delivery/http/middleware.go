package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// Identity resolves the caller's user id. The gateway normally forwards it in
// X-User-ID; a signed bearer token is accepted for direct callers.
func Identity(secret string, l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")

			if userID == "" {
				if token := bearerToken(r); token != "" {
					id, err := userIDFromToken(token, secret)
					if err != nil {
						l.Debug(r.Context(), "Rejected bearer token", "error", err.Error())
						http.Error(w, `{"error":"invalid token","code":401}`, http.StatusUnauthorized)
						return
					}
					userID = id
				}
			}

			if userID == "" {
				http.Error(w, `{"error":"authentication required","code":401}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func userIDFromToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		// Some issuers put the user id in the standard subject claim.
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}

	return userID, nil
}
