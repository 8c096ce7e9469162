package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"time"

	"I2I/models"
	"I2I/util"

	"github.com/google/uuid"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"go.uber.org/zap"
)

// Ark 火山方舟 Seedream 生图
type Ark struct {
	model     string
	size      string
	outputDir string

	generate func(ctx context.Context, req model.GenerateImagesRequest) (model.ImagesResponse, error)
	download func(ctx context.Context, url, dest string) error
}

func NewArk(apiKey, modelName, size, outputDir string) *Ark {
	client := arkruntime.NewClientWithApiKey(apiKey)
	return &Ark{
		model:     modelName,
		size:      size,
		outputDir: outputDir,
		generate: func(ctx context.Context, req model.GenerateImagesRequest) (model.ImagesResponse, error) {
			return client.GenerateImages(ctx, req)
		},
		download: util.DownloadImage,
	}
}

func (a *Ark) ProcessImages(ctx context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error) {
	generateReq := model.GenerateImagesRequest{
		Model:          a.model,
		Prompt:         buildPrompt(prompt, faceSwap),
		Size:           volcengine.String(a.size),
		ResponseFormat: volcengine.String(model.GenerateImagesResponseFormatURL),
		Watermark:      volcengine.Bool(false),
	}

	// 参考图以 data URL 的形式传给 Seedream
	var refs []string
	for _, p := range presentImages(image1, image2) {
		b, mime, err := readImage(p)
		if err != nil {
			return "", err
		}
		refs = append(refs, "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(b))
	}
	if len(refs) > 0 {
		generateReq.Image = refs
	}

	start := time.Now()
	resp, err := a.generate(ctx, generateReq)
	zap.L().Debug("ark GenerateImages finished",
		zap.String("model", a.model),
		zap.Int("reference_images", len(refs)),
		zap.Duration("cost", time.Since(start)))
	if err != nil {
		return "", fmt.Errorf("call GenerateImages: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
	}

	for _, image := range resp.Data {
		if image == nil || image.Url == nil || *image.Url == "" {
			continue
		}
		dest := filepath.Join(a.outputDir, uuid.New().String()+".jpg")
		if err := a.download(ctx, *image.Url, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("ark: %w", ErrNoImage)
}
