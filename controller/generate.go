package controller

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"I2I/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HomeMessage GET / 的固定返回
const HomeMessage = "Backend is running 🚀"

// maxMultipartMemory 超出部分由 net/http 暂存到临时文件
const maxMultipartMemory = 32 << 20

// JobIDHeader 携带本次生成的任务 ID，可用于 GET /jobs/:job_id
const JobIDHeader = "X-Job-Id"

// errMalformedBody 请求体无法解析，区别于字段值不合法
var errMalformedBody = errors.New("malformed request body")

// Generator 是 logic.GenerateService 在 controller 中用到的部分
type Generator interface {
	Generate(ctx context.Context, form *models.GenerateForm) (models.GenerationJob, error)
}

type GenerateController struct {
	svc Generator
}

func NewGenerateController(svc Generator) *GenerateController {
	return &GenerateController{svc: svc}
}

// HomeHandler 健康检查
// @Summary 服务存活检查
// @Tags Generate
// @Produce json
// @Success 200 {object} map[string]string "{"message": "Backend is running 🚀"}"
// @Router / [get]
func HomeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": HomeMessage})
}

// GenerateHandler 上传提示词和最多两张图片，同步返回生成的图片
// @Summary 图片生成
// @Description multipart 表单：prompt、image1、image2、face_swap。成功返回 image/jpeg，失败返回 {"error": "..."}
// @Tags Generate
// @Accept multipart/form-data
// @Produce image/jpeg
// @Param prompt formData string false "提示词"
// @Param image1 formData file false "第一张图片"
// @Param image2 formData file false "第二张图片"
// @Param face_swap formData bool false "是否换脸" default(false)
// @Success 200 {file} binary "生成的图片"
// @Header 200,500 {string} X-Job-Id "任务 ID"
// @Failure 400 {object} map[string]string "请求体无法解析"
// @Failure 422 {object} map[string]string "表单字段不合法"
// @Failure 500 {object} map[string]string "生成失败"
// @Router /generate [post]
func (g *GenerateController) GenerateHandler(c *gin.Context) {
	form, err := bindGenerateForm(c)
	if err != nil {
		zap.L().Warn("generate with invalid form", zap.Error(err))
		code := http.StatusUnprocessableEntity
		if errors.Is(err, errMalformedBody) {
			code = http.StatusBadRequest
		}
		ResponseError(c, code, err)
		return
	}

	job, err := g.svc.Generate(c.Request.Context(), form)
	if job.JobID != "" {
		c.Header(JobIDHeader, job.JobID)
	}
	if err == nil {
		var data []byte
		if data, err = os.ReadFile(job.Output); err == nil {
			ResponseImage(c, data)
			return
		}
		err = fmt.Errorf("read generated image: %w", err)
	}

	zap.L().Error("ERROR in /generate endpoint",
		zap.String("job_id", job.JobID),
		zap.String("prompt", form.Prompt),
		zap.Bool("face_swap", form.FaceSwap),
		zap.Error(err),
		zap.Stack("stack"))
	ResponseError(c, http.StatusInternalServerError, err)
}

func bindGenerateForm(c *gin.Context) (*models.GenerateForm, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	form := &models.GenerateForm{Prompt: c.PostForm("prompt")}

	var err error
	if form.FaceSwap, err = parseFlag(c.PostForm("face_swap")); err != nil {
		return nil, err
	}
	if form.Image1, err = optionalFile(c, "image1"); err != nil {
		return nil, err
	}
	if form.Image2, err = optionalFile(c, "image2"); err != nil {
		return nil, err
	}
	return form, nil
}

func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return fh, nil
}

// parseFlag 接受常见的布尔写法，空值为 false
func parseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "f", "no", "n", "off":
		return false, nil
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	}
	return false, fmt.Errorf("face_swap: invalid boolean %q", v)
}
