// Package generator 封装外部生图流水线（process_images）。
//
// 网关只依赖 Generator 接口：传入提示词、两个按位置排列的可缺省图片路径以及
// face_swap 标志，返回一张可读的结果图片路径。具体实现由 GENERATOR_BACKEND 选择。
package generator

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"I2I/models"
	"I2I/setting"

	"github.com/google/uuid"
)

var (
	ErrNoImage        = errors.New("generator returned no image")
	ErrUnknownBackend = errors.New("unknown generator backend")
)

// Generator 外部生图协作者
type Generator interface {
	ProcessImages(ctx context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error)
}

// Func 让普通函数满足 Generator
type Func func(ctx context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error)

func (f Func) ProcessImages(ctx context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error) {
	return f(ctx, prompt, image1, image2, faceSwap)
}

// New 根据配置创建对应后端
func New(ctx context.Context, cfg *setting.GeneratorConfig, outputDir string) (Generator, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outputDir, err)
	}
	switch cfg.Backend {
	case "ark":
		return NewArk(cfg.ArkAPIKey, cfg.ArkModel, cfg.ArkImageSize, outputDir), nil
	case "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, outputDir)
	case "command":
		return NewCommand(cfg.Command, cfg.CommandArgs...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// faceSwapInstruction 换脸时拼接到提示词前面
const faceSwapInstruction = "Swap the face of the person in the first image with the face from the second image, keep everything else unchanged."

func buildPrompt(prompt string, faceSwap bool) string {
	if !faceSwap {
		return prompt
	}
	if prompt == "" {
		return faceSwapInstruction
	}
	return faceSwapInstruction + " " + prompt
}

// presentImages 按位置收集有效图片
func presentImages(image1, image2 models.ImagePath) []string {
	var paths []string
	for _, p := range []models.ImagePath{image1, image2} {
		if p.Valid {
			paths = append(paths, p.Path)
		}
	}
	return paths
}

// readImage 读图片并探测 MIME
func readImage(path string) ([]byte, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image %s: %w", path, err)
	}
	return b, http.DetectContentType(b), nil
}

// imageExts 输出文件扩展名，未知类型按 .jpg 处理
var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// imageExt MIME 为空时按内容探测
func imageExt(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	if ext, ok := imageExts[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".jpg"
}

// writeOutput 把生成结果写入输出目录，返回路径
func writeOutput(dir, mimeType string, data []byte) (string, error) {
	path := filepath.Join(dir, uuid.New().String()+imageExt(mimeType, data))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write output image: %w", err)
	}
	return path, nil
}
