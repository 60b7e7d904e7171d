package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

const idempotencyHeader = "Idempotency-Key"

// ToggleVote 切换投票（投 ↔ 撤）
// @Summary 切换投票
// @Description 已投则撤票，未投则投票；返回权威的 isVoted 与 voteCount。带 Idempotency-Key 的重试不会再次翻转
// @Tags 投票
// @Produce json
// @Security BearerAuth
// @Param workId path string true "作品ID"
// @Param Idempotency-Key header string false "单次点击的请求ID"
// @Success 200 {object} service.ToggleResult
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /votes/{workId}/toggle [post]
func (h *Handler) ToggleVote(c *gin.Context) {
	res, err := h.voteService.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("workId"), c.GetHeader(idempotencyHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	response.Success(c, res)
}

// VoteState 当前用户对某作品的投票状态
// @Summary 投票状态
// @Description 任何存在的作品都可查询（包括未通过审核的）；客户端在请求被放弃后用它重新对齐
// @Tags 投票
// @Produce json
// @Security BearerAuth
// @Param workId path string true "作品ID"
// @Success 200 {object} service.ToggleResult
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /votes/{workId} [get]
func (h *Handler) VoteState(c *gin.Context) {
	res, err := h.voteService.State(c.Request.Context(), middleware.UserID(c), c.Param("workId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
