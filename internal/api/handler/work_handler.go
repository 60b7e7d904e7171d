package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// ListWorks 作品墙
// @Summary 作品墙
// @Description 已通过的作品，新的在前；登录时附带 has_voted
// @Tags 投票
// @Produce json
// @Success 200 {object} map[string]interface{} "{works, closed}"
// @Failure 500 {object} response.ErrorBody
// @Router /works [get]
func (h *Handler) ListWorks(c *gin.Context) {
	works, err := h.submissionService.Gallery(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"works": works, "closed": h.gate.Closed(), "deadline": h.gate.Deadline})
}

// GetWork 单个作品的最新票数与投票状态
// @Summary 作品详情
// @Tags 投票
// @Produce json
// @Param id path string true "作品ID"
// @Success 200 {object} model.WorkView
// @Failure 404 {object} response.ErrorBody
// @Router /works/{id} [get]
func (h *Handler) GetWork(c *gin.Context) {
	work, err := h.submissionService.GetWork(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, work)
}
