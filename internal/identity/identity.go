// Package identity 把请求携带的凭证解析为用户身份
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

// UserID 身份提供方签发的不透明用户标识
type UserID string

// Source 凭证来源
type Source int

const (
	SourceBearer Source = iota + 1
	SourceCookie
)

func (s Source) String() string {
	switch s {
	case SourceBearer:
		return "bearer"
	case SourceCookie:
		return "cookie"
	}
	return "unknown"
}

// Credential 请求携带的令牌
type Credential struct {
	Token  string
	Source Source
}

// Claims 验证通过的令牌声明
type Claims struct {
	UserID    UserID
	ExpiresAt time.Time
}

var ErrUnauthorized = apperr.Unauthorized("請先登入")

// CredentialFromRequest Authorization: Bearer 优先，其次会话 cookie
func CredentialFromRequest(r *http.Request, cookieName string) (Credential, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if tok := strings.TrimSpace(parts[1]); tok != "" {
				return Credential{Token: tok, Source: SourceBearer}, true
			}
		}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return Credential{Token: c.Value, Source: SourceCookie}, true
		}
	}
	return Credential{}, false
}

// Verifier 校验令牌并返回声明
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// JWTVerifier HS256 共享密钥校验
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewJWTVerifier(secret, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var rc jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return Claims{}, err
	}
	if rc.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return Claims{UserID: UserID(rc.Subject), ExpiresAt: rc.ExpiresAt.Time}, nil
}

// Resolver 凭证 → 用户；任何失败都是 Unauthorized，原因只记调试日志
type Resolver struct {
	verifier Verifier
}

func NewResolver(v Verifier) *Resolver { return &Resolver{verifier: v} }

func (r *Resolver) Resolve(ctx context.Context, cred Credential) (UserID, error) {
	claims, err := r.Claims(ctx, cred)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Claims 同 Resolve，但保留过期时间（写会话 cookie 时需要）
func (r *Resolver) Claims(ctx context.Context, cred Credential) (Claims, error) {
	if cred.Token == "" {
		return Claims{}, ErrUnauthorized
	}
	claims, err := r.verifier.Verify(ctx, cred.Token)
	if err != nil {
		logger.Debug("credential rejected", zap.Stringer("source", cred.Source), zap.Error(err))
		return Claims{}, ErrUnauthorized.Wrap(err)
	}
	return claims, nil
}
