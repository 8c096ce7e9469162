// Package janitor 定期删除上传目录和输出目录中过期的文件。
// 请求处理路径本身不删除任何文件；未配置保留时长时不会启动。
package janitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Janitor struct {
	dirs      []string
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

func New(retention time.Duration, dirs ...string) *Janitor {
	return &Janitor{
		dirs:      dirs,
		retention: retention,
		now:       time.Now,
	}
}

// Start 每隔 interval 清理一次
func (j *Janitor) Start(interval time.Duration) error {
	if j.retention <= 0 {
		return errors.New("janitor: retention must be positive")
	}
	j.cron = cron.New()
	if _, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() { j.Sweep() }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	j.cron.Start()
	zap.L().Info("janitor started",
		zap.Strings("dirs", j.dirs),
		zap.Duration("retention", j.retention),
		zap.Duration("interval", interval))
	return nil
}

// Stop 等待正在执行的清理结束
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// Sweep 删除修改时间早于 now-retention 的普通文件，返回删除数量
func (j *Janitor) Sweep() int {
	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				zap.L().Warn("janitor read dir failed", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				zap.L().Warn("janitor remove failed", zap.String("path", path), zap.Error(err))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		zap.L().Info("janitor swept expired files", zap.Int("removed", removed))
	}
	return removed
}
