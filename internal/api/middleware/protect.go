package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// ProtectPaths 受保护页面未登录时重定向到公开页，并带上 next 以便登录后返回
func ProtectPaths(a *Authenticator, loginPath string, paths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !matchesAny(c.Request.URL.Path, paths) {
			c.Next()
			return
		}
		if _, err := a.Resolve(c); err != nil {
			target := c.Request.URL.Path
			if q := c.Request.URL.RawQuery; q != "" {
				target += "?" + q
			}
			c.Redirect(http.StatusFound, loginPath+"?next="+url.QueryEscape(target))
			c.Abort()
			return
		}
		c.Next()
	}
}

// matchesAny 整段匹配：/submit 覆盖 /submit 与 /submit/xxx，不覆盖 /submitted
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
