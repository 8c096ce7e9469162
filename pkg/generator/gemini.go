package generator

import (
	"context"
	"fmt"

	"I2I/models"

	"google.golang.org/genai"
)

// Gemini 通过 Gemini 图像模型生成
type Gemini struct {
	model     string
	outputDir string

	generate func(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)
}

func NewGemini(ctx context.Context, apiKey, modelName, outputDir string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{
		model:     modelName,
		outputDir: outputDir,
		generate: func(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, model, contents, nil)
		},
	}, nil
}

func (g *Gemini) ProcessImages(ctx context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(buildPrompt(prompt, faceSwap))}
	for _, p := range presentImages(image1, image2) {
		b, mime, err := readImage(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, genai.NewPartFromBytes(b, mime))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.generate(ctx, g.model, contents)
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("gemini: %w", ErrNoImage)
	}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return writeOutput(g.outputDir, part.InlineData.MIMEType, part.InlineData.Data)
			}
		}
	}
	return "", fmt.Errorf("gemini: %w", ErrNoImage)
}
