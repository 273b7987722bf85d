// Package middleware содержит HTTP middleware сервиса бронирований.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const userIDKey contextKey = "userID"

const (
	authCookieName = "auth_token"
	bearerPrefix   = "Bearer "
)

// UnauthorizedHandler формирует ответ для неаутентифицированного запроса.
type UnauthorizedHandler func(w http.ResponseWriter, r *http.Request)

// AuthMiddleware проверяет токен пользователя, выданный сервисом аутентификации с общим секретом.
// Токен передаётся в cookie auth_token или в заголовке Authorization: Bearer.
type AuthMiddleware struct {
	secretKey    []byte
	unauthorized UnauthorizedHandler
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		unauthorized: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		},
	}
}

// OnUnauthorized задаёт обработчик отказа в доступе.
func (a *AuthMiddleware) OnUnauthorized(h UnauthorizedHandler) {
	if h != nil {
		a.unauthorized = h
	}
}

// Middleware проверяет токен и добавляет идентификатор пользователя в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			a.unauthorized(w, r)
			return
		}

		userID, ok := a.ParseToken(token)
		if !ok {
			a.unauthorized(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SignToken подписывает идентификатор пользователя: "<id>.<hmac-sha256>".
func (a *AuthMiddleware) SignToken(userID int64) string {
	idStr := strconv.FormatInt(userID, 10)
	return idStr + "." + hex.EncodeToString(a.sign(idStr))
}

// ParseToken проверяет подпись токена и возвращает идентификатор пользователя.
func (a *AuthMiddleware) ParseToken(token string) (int64, bool) {
	idStr, signature, found := strings.Cut(token, ".")
	if !found || idStr == "" {
		return 0, false
	}

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(got, a.sign(idStr)) {
		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func (a *AuthMiddleware) sign(idStr string) []byte {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(idStr))
	return mac.Sum(nil)
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID возвращает контекст с идентификатором пользователя.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
