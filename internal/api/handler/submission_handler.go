package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/internal/service"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// CreateSubmission 投稿
// @Summary 投稿
// @Description 每个帐号只能投稿一次；截止后拒绝
// @Tags 作品
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmissionFields true "作品信息"
// @Success 200 {object} map[string]string "{id}"
// @Failure 400 {object} response.ErrorBody "missing_fields / invalid_field / already_submitted"
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody "contest_closed"
// @Failure 500 {object} response.ErrorBody
// @Router /submissions [post]
func (h *Handler) CreateSubmission(c *gin.Context) {
	var req service.SubmissionFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.submissionService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": sub.ID})
}

// UpdateSubmission 编辑作品
// @Summary 编辑作品
// @Description 仅作者本人；编辑后一律回到 pending 并清空审核信息
// @Tags 作品
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "作品ID"
// @Param request body service.SubmissionFields true "作品信息"
// @Success 200 {object} model.Submission
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /submissions/{id} [put]
func (h *Handler) UpdateSubmission(c *gin.Context) {
	var req service.SubmissionFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.submissionService.Edit(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// ListMySubmissions 我的作品及票数
// @Summary 我的作品
// @Tags 作品
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.SubmissionWithVotes
// @Failure 401 {object} response.ErrorBody
// @Router /submissions/mine [get]
func (h *Handler) ListMySubmissions(c *gin.Context) {
	list, err := h.submissionService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ReviewSubmission 审核作品
// @Summary 审核作品
// @Description 仅 pending 可审核；decision 为 approved 或 rejected
// @Tags 审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "作品ID"
// @Param request body service.ReviewDecision true "审核结果"
// @Success 200 {object} model.Submission
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/submissions/{id}/review [post]
func (h *Handler) ReviewSubmission(c *gin.Context) {
	var req service.ReviewDecision
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.submissionService.Review(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}
