package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

const userIDKey = "user_id"

// Authenticator 从 Bearer 头或会话 cookie 解析身份，下游只看到 identity.UserID
type Authenticator struct {
	resolver   *identity.Resolver
	cookieName string
}

func NewAuthenticator(resolver *identity.Resolver, cookieName string) *Authenticator {
	return &Authenticator{resolver: resolver, cookieName: cookieName}
}

func (a *Authenticator) CookieName() string { return a.cookieName }

// Resolve 解析当前请求的身份
func (a *Authenticator) Resolve(c *gin.Context) (identity.UserID, error) {
	if uid := UserID(c); uid != "" {
		return uid, nil
	}
	cred, ok := identity.CredentialFromRequest(c.Request, a.cookieName)
	if !ok {
		return "", identity.ErrUnauthorized
	}
	uid, err := a.resolver.Resolve(c.Request.Context(), cred)
	if err != nil {
		return "", err
	}
	c.Set(userIDKey, uid)
	return uid, nil
}

// RequireAuth 未登录直接 401
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := a.Resolve(c); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth 有合法凭证就带上身份，没有也放行（画廊的 has_voted）
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = a.Resolve(c)
		c.Next()
	}
}

// RequireReviewer 仅配置中的审核者可用
func RequireReviewer(reviewerIDs []string) gin.HandlerFunc {
	allowed := make(map[identity.UserID]bool, len(reviewerIDs))
	for _, id := range reviewerIDs {
		allowed[identity.UserID(id)] = true
	}
	return func(c *gin.Context) {
		if !allowed[UserID(c)] {
			response.Error(c, apperr.Forbidden("需要審核權限"))
			return
		}
		c.Next()
	}
}

// UserID 当前请求已解析的身份；未解析时为空
func UserID(c *gin.Context) identity.UserID {
	if v, ok := c.Get(userIDKey); ok {
		if uid, ok := v.(identity.UserID); ok {
			return uid
		}
	}
	return ""
}
