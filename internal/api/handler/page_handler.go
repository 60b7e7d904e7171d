package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// SubmitPage 投稿页的服务端数据；未登录会被重定向
func (h *Handler) SubmitPage(c *gin.Context) {
	list, err := h.submissionService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page := gin.H{"closed": h.gate.Closed(), "deadline": h.gate.Deadline, "submission": nil}
	if len(list) > 0 {
		page["submission"] = list[0]
	}
	response.Success(c, page)
}

// InboxPage 收件箱页
func (h *Handler) InboxPage(c *gin.Context) {
	list, err := h.notificationService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	unread := 0
	for _, n := range list {
		if n.ReadAt == nil {
			unread++
		}
	}
	response.Success(c, gin.H{"notifications": list, "unread": unread})
}
