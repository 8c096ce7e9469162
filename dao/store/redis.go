package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"I2I/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// JobTTL 任务记录在 redis 中的保留时间
const JobTTL = 24 * time.Hour

func jobKey(jobID string) string {
	return "generate:job:" + jobID
}

// RedisStore 把生成任务以 hash 形式存进 redis
type RedisStore struct {
	client *redis.Client
}

// Init 连接 redis 并 ping 一次
func Init(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Record 写入/覆盖任务字段并刷新过期时间
func (s *RedisStore) Record(ctx context.Context, job models.GenerationJob) error {
	key := jobKey(job.JobID)
	fields := map[string]interface{}{
		"prompt":     job.Prompt,
		"image1":     job.Image1,
		"image2":     job.Image2,
		"face_swap":  strconv.FormatBool(job.FaceSwap),
		"status":     job.Status,
		"output":     job.Output,
		"error":      job.Error,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	// HSet 和 Expire 放在同一个 pipeline 里
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, JobTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Error("store job in redis failed", zap.String("job_id", job.JobID), zap.Error(err))
		return err
	}
	return nil
}

// GetJob 读取任务记录，不存在时返回 models.ErrJobNotFound
func (s *RedisStore) GetJob(ctx context.Context, jobID string) (models.GenerationJob, error) {
	hash, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return models.GenerationJob{}, err
	}
	if len(hash) == 0 {
		return models.GenerationJob{}, models.ErrJobNotFound
	}
	job := models.GenerationJob{
		JobID:  jobID,
		Prompt: hash["prompt"],
		Image1: hash["image1"],
		Image2: hash["image2"],
		Status: hash["status"],
		Output: hash["output"],
		Error:  hash["error"],
	}
	job.FaceSwap, _ = strconv.ParseBool(hash["face_swap"])
	job.CreatedAt, _ = strconv.ParseInt(hash["created_at"], 10, 64)
	job.UpdatedAt, _ = strconv.ParseInt(hash["updated_at"], 10, 64)
	return job, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
