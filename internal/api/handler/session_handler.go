package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

type sessionRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
	// ExpiresIn 仅供参考，cookie 有效期以令牌自身的 exp 为准
	ExpiresIn int `json:"expiresIn"`
}

// CreateSession 把身份提供方的令牌写入会话 cookie
// @Summary 建立会话
// @Description 校验 accessToken 后写入 HttpOnly、Secure、SameSite=Lax 的 cookie，有效期与令牌一致
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body sessionRequest true "令牌"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/session [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	claims, err := h.resolver.Claims(c.Request.Context(), identity.Credential{Token: req.AccessToken, Source: identity.SourceBearer})
	if err != nil {
		response.Error(c, err)
		return
	}

	maxAge := int(claims.ExpiresAt.Sub(h.now()) / time.Second)
	if maxAge <= 0 {
		response.Error(c, identity.ErrUnauthorized)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), req.AccessToken, maxAge, "/", "", h.cookieSecure, true)
	response.Success(c, gin.H{"user_id": claims.UserID, "expires_at": claims.ExpiresAt})
}

// DeleteSession 登出时清除 cookie
// @Summary 清除会话
// @Tags 会话
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /auth/session [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), "", -1, "/", "", h.cookieSecure, true)
	response.Success(c, nil)
}
