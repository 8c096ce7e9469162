package logic

import (
	"context"
	"errors"

	"I2I/models"
)

// JobSource 能按 job_id 读取任务记录的存储（redis、mysql）
type JobSource interface {
	GetJob(ctx context.Context, jobID string) (models.GenerationJob, error)
}

// JobLookup 按顺序查询多个存储，先查到的为准。
// redis 只保留 24 小时，过期后回落到 mysql。
type JobLookup struct {
	sources []JobSource
}

func NewJobLookup(sources ...JobSource) *JobLookup {
	return &JobLookup{sources: sources}
}

func (l *JobLookup) GetJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	var errs []error
	for _, s := range l.sources {
		job, err := s.GetJob(ctx, jobID)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, models.ErrJobNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return models.GenerationJob{}, errors.Join(errs...)
	}
	return models.GenerationJob{}, models.ErrJobNotFound
}
