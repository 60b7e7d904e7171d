package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-contest/internal/upload"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// Upload 上传图片
// @Summary 上传作品图片
// @Description 字段 files（最多 6 个，兼容单个 file）；每个不超过 5 MiB，类型 jpeg/png/webp；统一转为 WebP。部分失败时返回 500，data 中列出成功的 urls 与失败的文件
// @Tags 上传
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "图片"
// @Success 200 {object} service.IngestResult
// @Failure 400 {object} response.ErrorBody "too_many_files / unsupported_type / file_too_large / upload_too_large"
// @Failure 401 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody "附 Retry-After"
// @Failure 500 {object} response.ErrorBody
// @Router /uploads [post]
func (h *Handler) Upload(c *gin.Context) {
	if h.maxUploadBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBody)
	}
	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, upload.ErrBatchTooLarge.WithMessage("上傳內容總量超過 %d MB", h.maxUploadBody>>20))
			return
		}
		response.BadRequest(c, "invalid multipart form")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	files := make([]upload.File, len(headers))
	for i, fh := range headers {
		fh := fh
		files[i] = upload.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		}
	}

	// 数量/类型/大小先于身份检查
	if err := h.uploadService.Validate(files); err != nil {
		response.Error(c, err)
		return
	}
	owner, err := h.auth.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.uploadService.Ingest(c.Request.Context(), owner, files)
	if err != nil {
		if len(res.URLs) > 0 || len(res.Failed) > 0 {
			response.ErrorWithData(c, err, res)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}
