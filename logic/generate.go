package logic

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"I2I/models"
	"I2I/pkg/generator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder 接收任务状态变化（redis、mysql、mq、sse）
type Recorder interface {
	Record(ctx context.Context, job models.GenerationJob) error
}

// GenerateService 落盘上传图片并同步调用生图协作者
type GenerateService struct {
	stager    *Stager
	generator generator.Generator
	recorders []Recorder
	now       func() time.Time
}

func NewGenerateService(stager *Stager, gen generator.Generator, recorders ...Recorder) *GenerateService {
	return &GenerateService{
		stager:    stager,
		generator: gen,
		recorders: recorders,
		now:       time.Now,
	}
}

// Generate 返回任务记录，Output 为协作者生成的图片路径。落盘或生成失败都以 error 返回，
// 协作者 panic 也会被转换成 error。生成失败时返回的任务带有 JobID；落盘失败时任务尚未创建。
func (s *GenerateService) Generate(ctx context.Context, form *models.GenerateForm) (models.GenerationJob, error) {
	slot1, slot2, err := s.stager.StageSlots(form.Image1, form.Image2)
	if err != nil {
		return models.GenerationJob{}, err
	}

	now := s.now().Unix()
	job := models.GenerationJob{
		JobID:     uuid.New().String(),
		Prompt:    form.Prompt,
		Image1:    slot1.String(),
		Image2:    slot2.String(),
		FaceSwap:  form.FaceSwap,
		Status:    models.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.record(ctx, job)

	output, err := s.process(ctx, form.Prompt, slot1, slot2, form.FaceSwap)
	job.UpdatedAt = s.now().Unix()
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		s.record(ctx, job)
		return job, err
	}
	job.Status = models.StatusCompleted
	job.Output = output
	s.record(ctx, job)
	return job, nil
}

func (s *GenerateService) process(ctx context.Context, prompt string, slot1, slot2 models.ImagePath, faceSwap bool) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("generator panicked", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.generator.ProcessImages(ctx, prompt, slot1, slot2, faceSwap)
}

// record 记录失败只打日志，不影响请求结果
func (s *GenerateService) record(ctx context.Context, job models.GenerationJob) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range s.recorders {
		if err := r.Record(ctx, job); err != nil {
			zap.L().Warn("record generation job failed",
				zap.String("job_id", job.JobID),
				zap.String("status", job.Status),
				zap.String("recorder", fmt.Sprintf("%T", r)),
				zap.Error(err))
		}
	}
}
