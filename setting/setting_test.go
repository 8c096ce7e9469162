package setting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "command")
	t.Setenv("PIPELINE_COMMAND", "python3")
	t.Setenv("PIPELINE_ARGS", "image.py --jpeg")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "outputs", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogConfig.Level)
	assert.Equal(t, []string{"image.py", "--jpeg"}, cfg.CommandArgs)
	assert.Equal(t, time.Duration(0), cfg.Retention)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Empty(t, cfg.RedisConfig.Addr)
}

func TestFromEnvRequiresBackendCredentials(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "ark")
	t.Setenv("ARK_API_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ArkAPIKey")
}

func TestFromEnvRejectsUnknownBackend(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "dalle")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvBadDuration(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("RETENTION", "tomorrow")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETENTION")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("GENERATOR_BACKEND=gemini\nGEMINI_API_KEY=abc\nUPLOAD_DIR=/tmp/staging\n"), 0o644))

	// godotenv 不覆盖已存在的变量，先清空
	for _, k := range []string{"GENERATOR_BACKEND", "GEMINI_API_KEY", "UPLOAD_DIR"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Backend)
	assert.Equal(t, "/tmp/staging", cfg.UploadDir)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "command")
	t.Setenv("PIPELINE_COMMAND", "true")

	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
}
