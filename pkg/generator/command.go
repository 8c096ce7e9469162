package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"I2I/models"

	"go.uber.org/zap"
)

// Command 调用外部流水线进程（例如原有的 python process_images 脚本）。
// 进程参数为 --prompt/--image1/--image2/--face-swap，缺省的图片不传；
// 标准输出最后一个非空行是结果图片路径。
type Command struct {
	name string
	args []string
}

func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

func (c *Command) ProcessImages(ctx context.Context, prompt string, image1, image2 models.ImagePath, faceSwap bool) (string, error) {
	args := append([]string{}, c.args...)
	args = append(args, "--prompt", prompt)
	if image1.Valid {
		args = append(args, "--image1", image1.Path)
	}
	if image2.Valid {
		args = append(args, "--image2", image2.Path)
	}
	args = append(args, "--face-swap="+strconv.FormatBool(faceSwap))

	cmd := exec.CommandContext(ctx, c.name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zap.L().Debug("run pipeline command", zap.String("cmd", cmd.String()))
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return "", errors.New(msg)
		}
		return "", fmt.Errorf("pipeline command: %w", err)
	}

	out := lastLine(stdout.String())
	if out == "" {
		return "", fmt.Errorf("pipeline command: %w", ErrNoImage)
	}
	return out, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
