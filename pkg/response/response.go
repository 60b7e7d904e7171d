package response

import (
	"math"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

// ErrorBody 统一错误响应
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"` // 秒
	Data       any    `json:"data,omitempty"`
}

// Success 200，直接返回数据
func Success(c *gin.Context, data any) {
	if data == nil {
		data = gin.H{"ok": true}
	}
	c.JSON(http.StatusOK, data)
}

// Created 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest 400（请求体格式错误等非业务校验）
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: "bad_request", Message: message})
}

// InternalError 500，细节只写日志
func InternalError(c *gin.Context, err error) {
	Error(c, apperr.Upstream("internal server error", err))
}

// Error 将业务错误映射为 HTTP 响应
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData 在错误响应中附带部分结果（如上传批次中已成功的文件）
func ErrorWithData(c *gin.Context, err error, data any) {
	ae := apperr.From(err)
	body := ErrorBody{Error: ae.Code, Message: ae.Message, Data: data}

	if ae.Kind == apperr.KindRateLimited && ae.RetryAfter > 0 {
		secs := int(math.Ceil(ae.RetryAfter.Seconds()))
		body.RetryAfter = secs
		c.Header("Retry-After", strconv.Itoa(secs))
	}

	if ae.Kind == apperr.KindUpstream {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(ae),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(ae)
		} else if sentry.CurrentHub().Client() != nil {
			sentry.CaptureException(ae)
		}
	}

	c.AbortWithStatusJSON(ae.HTTPStatus(), body)
}
