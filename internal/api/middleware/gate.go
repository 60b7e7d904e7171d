package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// RequireOpen 截止后直接返回 contest_closed；挂在身份解析与请求体绑定之前
func RequireOpen(gate *deadline.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.Check(); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}
