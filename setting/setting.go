package setting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Mode      string `validate:"oneof=debug release test"`
	Addr      string `validate:"required"`
	UploadDir string `validate:"required"`
	OutputDir string `validate:"required"`

	*LogConfig
	*RedisConfig
	*MySQLConfig
	*AMQPConfig
	*GeneratorConfig
	*JanitorConfig
}

type LogConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	Filename   string
	MaxSize    int `validate:"gte=0"`
	MaxAge     int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
}

// 以下三项为空表示不启用

type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

type MySQLConfig struct {
	DSN          string
	MaxOpenConns int `validate:"gte=0"`
	MaxIdleConns int `validate:"gte=0"`
}

type AMQPConfig struct {
	DSN string
}

type GeneratorConfig struct {
	Backend      string `validate:"oneof=ark gemini command"`
	ArkAPIKey    string `validate:"required_if=Backend ark"`
	ArkModel     string
	ArkImageSize string
	GeminiAPIKey string `validate:"required_if=Backend gemini"`
	GeminiModel  string
	Command      string `validate:"required_if=Backend command"`
	CommandArgs  []string
}

// JanitorConfig Retention 为 0 时不清理任何文件
type JanitorConfig struct {
	Retention     time.Duration `validate:"gte=0"`
	SweepInterval time.Duration `validate:"gte=0"`
}

// Load 读取 .env（可选）和环境变量，返回校验后的配置
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// .env 不存在时直接使用进程环境变量
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return FromEnv()
}

// FromEnv 只读取环境变量，不触碰 .env
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Mode:      getString("APP_MODE", "release"),
		Addr:      getString("HTTP_ADDR", ":8000"),
		UploadDir: getString("UPLOAD_DIR", "uploads"),
		OutputDir: getString("OUTPUT_DIR", "outputs"),
		LogConfig: &LogConfig{
			Level:    strings.ToLower(getString("LOG_LEVEL", "info")),
			Filename: os.Getenv("LOG_FILE"),
		},
		RedisConfig: &RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		MySQLConfig: &MySQLConfig{
			DSN: os.Getenv("MYSQL_DSN"),
		},
		AMQPConfig: &AMQPConfig{
			DSN: os.Getenv("AMQP_DSN"),
		},
		GeneratorConfig: &GeneratorConfig{
			Backend:      strings.ToLower(getString("GENERATOR_BACKEND", "ark")),
			ArkAPIKey:    os.Getenv("ARK_API_KEY"),
			ArkModel:     getString("ARK_MODEL", "doubao-seedream-4-0-250828"),
			ArkImageSize: getString("ARK_IMAGE_SIZE", "2K"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getString("GEMINI_MODEL", "gemini-2.5-flash-image"),
			Command:      os.Getenv("PIPELINE_COMMAND"),
			CommandArgs:  strings.Fields(os.Getenv("PIPELINE_ARGS")),
		},
		JanitorConfig: &JanitorConfig{},
	}

	var err error
	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"LOG_MAX_SIZE", 200, &cfg.LogConfig.MaxSize},
		{"LOG_MAX_AGE", 30, &cfg.LogConfig.MaxAge},
		{"LOG_MAX_BACKUPS", 7, &cfg.LogConfig.MaxBackups},
		{"REDIS_DB", 0, &cfg.RedisConfig.DB},
		{"MYSQL_MAX_OPEN_CONNS", 32, &cfg.MySQLConfig.MaxOpenConns},
		{"MYSQL_MAX_IDLE_CONNS", 16, &cfg.MySQLConfig.MaxIdleConns},
	}
	for _, it := range ints {
		if *it.dest, err = getInt(it.key, it.def); err != nil {
			return nil, err
		}
	}
	if cfg.JanitorConfig.Retention, err = getDuration("RETENTION", 0); err != nil {
		return nil, err
	}
	if cfg.JanitorConfig.SweepInterval, err = getDuration("SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
