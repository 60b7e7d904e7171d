package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// ListNotifications 收件箱
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notification
// @Failure 401 {object} response.ErrorBody
// @Router /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.notificationService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// MarkNotificationRead 标记已读（幂等）
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path string true "通知ID"
// @Success 200 {object} model.Notification
// @Failure 404 {object} response.ErrorBody
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.notificationService.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, n)
}
