package logic

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"I2I/models"

	"github.com/google/uuid"
)

// Stager 负责把上传的图片写入工作目录
type Stager struct {
	dir string
}

// NewStager 创建 Stager，目录不存在时自动创建
func NewStager(dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Stager{dir: dir}, nil
}

// Dir 返回工作目录
func (s *Stager) Dir() string { return s.dir }

// UniqueName 生成 "<uuid>_<原文件名>"，原文件名只保留最后一段，防止路径穿越
func UniqueName(original string) string {
	base := filepath.Base(filepath.Clean("/" + filepath.ToSlash(original)))
	if base == "/" || base == "." {
		base = "upload"
	}
	return uuid.New().String() + "_" + base
}

// Stage 把一个上传文件完整写入工作目录
func (s *Stager) Stage(fh *multipart.FileHeader) (models.StagedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return models.StagedFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	name := UniqueName(fh.Filename)
	path := filepath.Join(s.dir, name)

	// O_EXCL: 名字冲突时宁可失败也不覆盖
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return models.StagedFile{}, fmt.Errorf("create staged file: %w", err)
	}
	if _, err = io.Copy(out, src); err != nil {
		out.Close()
		return models.StagedFile{}, fmt.Errorf("write staged file: %w", err)
	}
	if err = out.Close(); err != nil {
		return models.StagedFile{}, fmt.Errorf("close staged file: %w", err)
	}
	return models.StagedFile{Name: name, Path: path}, nil
}

// StageSlots 按表单位置落盘 image1/image2，缺省位置返回无效 ImagePath
func (s *Stager) StageSlots(image1, image2 *multipart.FileHeader) (slot1, slot2 models.ImagePath, err error) {
	if image1 != nil {
		f, err := s.Stage(image1)
		if err != nil {
			return slot1, slot2, err
		}
		slot1 = models.SomeImage(f.Path)
	}
	if image2 != nil {
		f, err := s.Stage(image2)
		if err != nil {
			return slot1, slot2, err
		}
		slot2 = models.SomeImage(f.Path)
	}
	return slot1, slot2, nil
}
