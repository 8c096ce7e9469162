package generator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"I2I/models"
	"I2I/setting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"google.golang.org/genai"
)

var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, jpegHeader, 0o644))
	return p
}

func TestFuncAdapter(t *testing.T) {
	var got []models.ImagePath
	g := Func(func(_ context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error) {
		got = []models.ImagePath{image1, image2}
		return "out.jpg", nil
	})
	out, err := g.ProcessImages(context.Background(), "p", models.ImagePath{}, models.SomeImage("b.png"), true)
	require.NoError(t, err)
	assert.Equal(t, "out.jpg", out)
	assert.False(t, got[0].Valid)
	assert.Equal(t, "b.png", got[1].Path)
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "a cat", buildPrompt("a cat", false))
	assert.Equal(t, faceSwapInstruction, buildPrompt("", true))
	assert.True(t, strings.HasSuffix(buildPrompt("a cat", true), " a cat"))
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &setting.GeneratorConfig{Backend: "dalle"}, t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewCommandBackendCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "outputs")
	g, err := New(context.Background(), &setting.GeneratorConfig{Backend: "command", Command: "true"}, dir)
	require.NoError(t, err)
	assert.IsType(t, &Command{}, g)
	assert.DirExists(t, dir)
}

func TestArkSendsReferenceImagesAndDownloads(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir, "face.jpg")

	var resp model.ImagesResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"url":"https://example.com/r.jpg","size":"2048x2048"}]}`), &resp))

	var sent model.GenerateImagesRequest
	var downloaded string
	a := &Ark{
		model:     "seedream",
		size:      "2K",
		outputDir: dir,
		generate: func(_ context.Context, req model.GenerateImagesRequest) (model.ImagesResponse, error) {
			sent = req
			return resp, nil
		},
		download: func(_ context.Context, url, dest string) error {
			downloaded = url
			return os.WriteFile(dest, jpegHeader, 0o644)
		},
	}

	out, err := a.ProcessImages(context.Background(), "smile", models.ImagePath{}, models.SomeImage(img), true)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/r.jpg", downloaded)
	assert.Equal(t, dir, filepath.Dir(out))
	assert.FileExists(t, out)

	refs, ok := sent.Image.([]string)
	require.True(t, ok)
	require.Len(t, refs, 1)
	assert.True(t, strings.HasPrefix(refs[0], "data:image/jpeg;base64,"))
	assert.Contains(t, sent.Prompt, faceSwapInstruction)
}

func TestArkAPIError(t *testing.T) {
	var resp model.ImagesResponse
	require.NoError(t, json.Unmarshal([]byte(`{"error":{"code":"InvalidParameter","message":"prompt too long"}}`), &resp))

	a := &Ark{
		outputDir: t.TempDir(),
		generate: func(context.Context, model.GenerateImagesRequest) (model.ImagesResponse, error) {
			return resp, nil
		},
	}
	_, err := a.ProcessImages(context.Background(), "x", models.ImagePath{}, models.ImagePath{}, false)
	require.Error(t, err)
	assert.Equal(t, "InvalidParameter: prompt too long", err.Error())
}

func TestArkNoImage(t *testing.T) {
	a := &Ark{
		outputDir: t.TempDir(),
		generate: func(context.Context, model.GenerateImagesRequest) (model.ImagesResponse, error) {
			return model.ImagesResponse{}, nil
		},
	}
	_, err := a.ProcessImages(context.Background(), "x", models.ImagePath{}, models.ImagePath{}, false)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestGeminiWritesInlineImage(t *testing.T) {
	dir := t.TempDir()
	img1 := writeImage(t, dir, "a.jpg")
	img2 := writeImage(t, dir, "b.jpg")
	result := []byte("generated-bytes")

	var sentParts int
	g := &Gemini{
		model:     "gemini-image",
		outputDir: dir,
		generate: func(_ context.Context, _ string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
			sentParts = len(contents[0].Parts)
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{
						{Text: "here you go"},
						{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: result}},
					}},
				}},
			}, nil
		},
	}

	out, err := g.ProcessImages(context.Background(), "merge", models.SomeImage(img1), models.SomeImage(img2), false)
	require.NoError(t, err)
	assert.Equal(t, 3, sentParts)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result, got)
	assert.Equal(t, ".jpg", filepath.Ext(out))
}

func TestGeminiKeepsInlineImageType(t *testing.T) {
	dir := t.TempDir()
	g := &Gemini{
		outputDir: dir,
		generate: func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}},
					}},
				}},
			}, nil
		},
	}

	out, err := g.ProcessImages(context.Background(), "x", models.ImagePath{}, models.ImagePath{}, false)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(out))
	assert.Equal(t, ".png", filepath.Ext(out))
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, ".png", imageExt("image/png", nil))
	assert.Equal(t, ".webp", imageExt("IMAGE/WEBP", nil))
	assert.Equal(t, ".jpg", imageExt("image/jpeg; q=1", nil))
	assert.Equal(t, ".png", imageExt("", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, ".jpg", imageExt("application/octet-stream", nil))
}

func TestGeminiErrorPassesThrough(t *testing.T) {
	g := &Gemini{
		outputDir: t.TempDir(),
		generate: func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	_, err := g.ProcessImages(context.Background(), "x", models.ImagePath{}, models.ImagePath{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCommandArgumentsAndOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := `printf '%s\n' "$@" > "` + argsFile + `"; echo progress; echo /tmp/result.jpg`

	c := NewCommand("sh", "-c", script, "pipeline")
	out, err := c.ProcessImages(context.Background(), "hello world", models.ImagePath{}, models.SomeImage("uploads/b.png"), true)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/result.jpg", out)

	b, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "--prompt\nhello world\n--image2\nuploads/b.png\n--face-swap=true\n", string(b))
}

func TestCommandFailureUsesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	c := NewCommand("sh", "-c", `echo "Traceback ..." >&2; echo "ValueError: boom" >&2; exit 1`, "pipeline")
	_, err := c.ProcessImages(context.Background(), "", models.ImagePath{}, models.ImagePath{}, false)
	require.Error(t, err)
	assert.Equal(t, "ValueError: boom", err.Error())
}

func TestCommandEmptyOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	c := NewCommand("sh", "-c", `true`, "pipeline")
	_, err := c.ProcessImages(context.Background(), "", models.ImagePath{}, models.ImagePath{}, false)
	assert.ErrorIs(t, err, ErrNoImage)
}
