package models

import (
	"errors"
	"mime/multipart"
)

// ErrJobNotFound 任务记录不存在或已过期
var ErrJobNotFound = errors.New("job not found")

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// GenerateForm /generate 的 multipart 表单
type GenerateForm struct {
	Prompt   string
	Image1   *multipart.FileHeader // 可为空
	Image2   *multipart.FileHeader // 可为空
	FaceSwap bool
}

// ImagePath 是一个可缺省的图片路径，Valid 为 false 表示该位置没有图片
type ImagePath struct {
	Path  string
	Valid bool
}

// SomeImage 返回一个有效的 ImagePath
func SomeImage(path string) ImagePath {
	return ImagePath{Path: path, Valid: true}
}

func (p ImagePath) String() string {
	if !p.Valid {
		return ""
	}
	return p.Path
}

// StagedFile 已落盘的上传文件
type StagedFile struct {
	Name string `json:"name"` // uuid 前缀的文件名
	Path string `json:"path"` // 工作目录下的路径
}

// GenerationJob 一次生成任务，用于 redis/mysql/mq/sse 记录
type GenerationJob struct {
	JobID     string `json:"job_id" db:"job_id"`
	Prompt    string `json:"prompt" db:"prompt"`
	Image1    string `json:"image1,omitempty" db:"image1"`
	Image2    string `json:"image2,omitempty" db:"image2"`
	FaceSwap  bool   `json:"face_swap" db:"face_swap"`
	Status    string `json:"status" db:"status"` // pending/processing/completed/failed
	Output    string `json:"output,omitempty" db:"output"`
	Error     string `json:"error,omitempty" db:"error"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}
