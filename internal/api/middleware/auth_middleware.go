package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// BypassUserID は BYPASS_AUTH 有効時に使われる固定のユーザーIDです。
const BypassUserID = "test-user-123"

// 認証エラーです。
var (
	ErrMissingToken = errors.New("authorization token is required")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingUser  = errors.New("invalid token: missing user ID")
)

type UserIDKey struct{}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok && userID != ""
}

// WithUserID はユーザーIDを設定したコンテキストを返します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Authenticator は HS256 の JWT を検証し、'sub' クレームをユーザーIDとして扱います。
type Authenticator struct {
	secret []byte
	bypass bool
}

// NewAuthenticator は新しい Authenticator を作成します。
// bypass が true の場合、トークンを検証せずに BypassUserID を使います（開発用）。
func NewAuthenticator(secret string, bypass bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), bypass: bypass}
}

// ParseToken はトークン文字列を検証してユーザーIDを返します。"Bearer " プレフィックスは除去されます。
//
// Parameters:
//   tokenString : JWT（"Bearer " 付きでも可）
// Returns:
//   string: トークンの 'sub' クレーム
//   error : トークンが空、不正、または 'sub' がない場合
func (a *Authenticator) ParseToken(tokenString string) (string, error) {
	if a.bypass {
		return BypassUserID, nil
	}

	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return "", ErrMissingToken
	}

	// JWTの検証とパース
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	// トークンのクレームを取得
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	// ユーザーIDは 'sub' (Subject) クレームに格納されている
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrMissingUser
	}
	return userID, nil
}

// Middleware is a middleware function that checks for a valid JWT token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !a.bypass {
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
				return
			}
		}

		userID, err := a.ParseToken(authHeader)
		if err != nil {
			log.Printf("AuthMiddleware Error: %v", err)
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}

		// ユーザーIDをContextに設定して次のハンドラに渡す
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
