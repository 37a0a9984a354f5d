package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sngm3741/photo-contest/api/internal/config"
	commonhttp "github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

type authClaims struct {
	jwt.RegisteredClaims
	Name              string   `json:"name,omitempty"`
	Picture           string   `json:"picture,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Roles             []string `json:"roles,omitempty"`
}

// authMiddleware は Authorization ヘッダーから JWT を検証し、認証済みユーザーをコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		claims, err := parseAuthToken(s.jwtConfigs, s.jwtAudience, tokenString)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		ctx := commonhttp.ContextWithUser(r.Context(), claims.user())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuthMiddleware はトークンがあれば検証してユーザーを詰め、なければ匿名のまま通す。
// 不正なトークンは匿名扱いにせず 401 を返す。
func (s *Server) optionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
			next.ServeHTTP(w, r)
			return
		}
		s.authMiddleware(next).ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", fmt.Errorf("Authorization ヘッダーがありません")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", fmt.Errorf("Bearer トークンを指定してください")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if tokenString == "" {
		return "", fmt.Errorf("アクセストークンが空です")
	}
	return tokenString, nil
}

// parseAuthToken は複数の JWT 設定を順番に試し、署名検証と Issuer/Audience の整合性を確認する。
func parseAuthToken(configs []config.JWTConfig, audience, tokenString string) (*authClaims, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("認証設定が構成されていません")
	}

	for _, cfg := range configs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}
		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}
		if !validSubject(claims.Subject) {
			continue
		}
		if audience != "" && !contains(claims.Audience, audience) {
			continue
		}

		return claims, nil
	}

	return nil, fmt.Errorf("アクセストークンが無効です")
}

// validSubject はユーザー ID が投票マップのフィールド名として安全に使えるかを判定する。
func validSubject(subject string) bool {
	if strings.TrimSpace(subject) == "" {
		return false
	}
	return !strings.Contains(subject, ".") && !strings.HasPrefix(subject, "$")
}

func (c *authClaims) user() commonhttp.AuthenticatedUser {
	return commonhttp.AuthenticatedUser{
		ID:       c.Subject,
		Name:     c.Name,
		Username: c.PreferredUsername,
		Picture:  c.Picture,
		Roles:    append([]string(nil), c.Roles...),
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
