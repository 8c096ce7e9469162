package mysql

import (
	"context"
	"database/sql"
	"errors"

	"I2I/models"

	"github.com/jmoiron/sqlx"
)

// CreateTableSQL generation_jobs 表结构
const CreateTableSQL = "CREATE TABLE IF NOT EXISTS generation_jobs (" +
	"job_id VARCHAR(36) NOT NULL PRIMARY KEY, " +
	"prompt TEXT NOT NULL, " +
	"image1 VARCHAR(512) NOT NULL DEFAULT '', " +
	"image2 VARCHAR(512) NOT NULL DEFAULT '', " +
	"face_swap TINYINT(1) NOT NULL DEFAULT 0, " +
	"status VARCHAR(16) NOT NULL, " +
	"output VARCHAR(512) NOT NULL DEFAULT '', " +
	"error TEXT NOT NULL, " +
	"created_at BIGINT NOT NULL, " +
	"updated_at BIGINT NOT NULL)"

const upsertJobSQL = "INSERT INTO generation_jobs " +
	"(job_id, prompt, image1, image2, face_swap, status, output, error, created_at, updated_at) " +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
	"ON DUPLICATE KEY UPDATE status = VALUES(status), output = VALUES(output), " +
	"error = VALUES(error), updated_at = VALUES(updated_at)"

const getJobSQL = "SELECT job_id, prompt, image1, image2, face_swap, status, output, error, created_at, updated_at " +
	"FROM generation_jobs WHERE job_id = ?"

// JobRepo 生成任务历史
type JobRepo struct {
	db *sqlx.DB
}

func NewJobRepo(db *sqlx.DB) *JobRepo {
	return &JobRepo{db: db}
}

// Migrate 建表
func (r *JobRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, CreateTableSQL)
	return err
}

// Record 首次写入插入一行，之后只更新状态相关字段
func (r *JobRepo) Record(ctx context.Context, job models.GenerationJob) error {
	_, err := r.db.ExecContext(ctx, upsertJobSQL,
		job.JobID, job.Prompt, job.Image1, job.Image2, job.FaceSwap,
		job.Status, job.Output, job.Error, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *JobRepo) GetJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	var job models.GenerationJob
	err := r.db.GetContext(ctx, &job, getJobSQL, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return job, models.ErrJobNotFound
	}
	return job, err
}

func (r *JobRepo) Close() error {
	return r.db.Close()
}
