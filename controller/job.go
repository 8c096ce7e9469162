package controller

import (
	"context"
	"errors"
	"net/http"

	"I2I/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobReader 按 job_id 读取生成任务记录，不存在时返回 models.ErrJobNotFound
type JobReader interface {
	GetJob(ctx context.Context, jobID string) (models.GenerationJob, error)
}

// JobReaderFunc 让普通函数满足 JobReader
type JobReaderFunc func(ctx context.Context, jobID string) (models.GenerationJob, error)

func (f JobReaderFunc) GetJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	return f(ctx, jobID)
}

// JobHandler 查询生成任务状态
// @Summary 查询生成任务
// @Tags Generate
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} models.GenerationJob
// @Failure 404 {object} map[string]string "job not found"
// @Router /jobs/{job_id} [get]
func JobHandler(reader JobReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("job_id")
		job, err := reader.GetJob(c.Request.Context(), jobID)
		if errors.Is(err, models.ErrJobNotFound) {
			ResponseError(c, http.StatusNotFound, err)
			return
		}
		if err != nil {
			zap.L().Error("get job failed", zap.String("job_id", jobID), zap.Error(err))
			ResponseError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}
