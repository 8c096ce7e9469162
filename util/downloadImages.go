package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DownloadImage 下载 url 指向的图片并写入 dest
func DownloadImage(ctx context.Context, imageURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	// 发送HTTP请求
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	// 检查响应状态码
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}

	// 将响应体写入文件
	if _, err = io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("write image file: %w", err)
	}
	return out.Close()
}
