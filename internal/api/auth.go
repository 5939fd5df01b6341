package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userIdClaim = "user_id"

// IssueToken signs an HS256 session token for userId.
func IssueToken(secret, userId string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		userIdClaim: userId,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// HashAPIKey is the form in which bot keys are stored.
func HashAPIKey(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireUser authenticates the session token and attaches the actor id.
func (s *Server) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authorization header required", nil)
			return
		}

		userId, err := s.validateToken(token)
		if err != nil {
			zap.L().Debug("Rejected session token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(models.WithActor(r.Context(), userId)))
	})
}

func (s *Server) validateToken(tokenString string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", errors.New("jwt secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	userId, ok := claims[userIdClaim].(string)
	if !ok || userId == "" {
		return "", fmt.Errorf("missing %s claim", userIdClaim)
	}
	return userId, nil
}

// RequireAPIKey authenticates bot requests against the stored key hashes.
func (s *Server) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		plain, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "api key required", nil)
			return
		}

		key, err := s.store.FindAPIKeyByHash(r.Context(), HashAPIKey(plain))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid api key", nil)
				return
			}
			writeStoreError(w, r, err)
			return
		}
		if !key.Active {
			writeError(w, http.StatusUnauthorized, "unauthorized", "api key revoked", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(models.WithAPIKey(r.Context(), key)))
	})
}
