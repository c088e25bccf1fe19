package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/influencechain/http/api"
	"github.com/golang-jwt/jwt"
)

// UserStatus orders what a token holder may do.
type UserStatus int

const (
	UserStatusDefault UserStatus = iota
	UserStatusSudo
)

type authJWTClaims struct {
	jwt.StandardClaims
	Email  string `json:"email"`
	Status int    `json:"status"`
}

func generateAccessToken(claims authJWTClaims, secret string) (string, error) {
	t := jwt.New(jwt.SigningMethodHS256)
	t.Claims = claims
	return t.SignedString([]byte(secret))
}

// handleIssueSudoToken exchanges basic auth (any email, the server secret
// as password) for a sudo bearer token.
func handleIssueSudoToken(l *slog.Logger, gsk func() string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := r.Context().Value(ctxKeyEmail).(string)
		if !ok {
			writeInternalError(l, w, fmt.Errorf("missing context key for basic auth email"))
			return
		}
		c := authJWTClaims{
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(ttl).Unix(),
				IssuedAt:  time.Now().Unix(),
			},
			Email:  email,
			Status: int(UserStatusSudo),
		}
		token, err := generateAccessToken(c, gsk())
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to sign token: %w", err))
			return
		}
		writeJSONResponse(w, api.DefaultJSONResponse{Message: token}, http.StatusOK)
	}
}
