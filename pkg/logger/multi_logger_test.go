package logger

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMultiLogger_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogPipelineEvent("upload_completed", zap.String("song_id", "abc"))
	ml.LogAppError("upload_failed", zap.String("error", "boom"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)
	pipeline, err := reader.ReadLogs(CategoryPipeline, time.Now(), "", 0)
	require.NoError(t, err)
	require.Len(t, pipeline, 1)
	assert.Equal(t, "upload_completed", pipeline[0].Message)
	assert.Equal(t, "info", pipeline[0].Level)
	assert.Equal(t, "abc", pipeline[0].Fields["song_id"])

	errors, err := reader.ReadLogs(CategoryError, time.Now(), "", 0)
	require.NoError(t, err)
	require.Len(t, errors, 1)
	assert.Equal(t, "upload_failed", errors[0].Message)
}

func TestMultiLogger_RollsOverOnDateChange(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)
	defer ml.Close()

	tomorrow := time.Now().Add(24 * time.Hour)
	ml.now = func() time.Time { return tomorrow }
	ml.LogPipelineEvent("next_day")

	_, err = os.Stat(CategoryLogPath(dir, CategoryPipeline, tomorrow.Format("20060102")))
	assert.NoError(t, err)
}

func TestMultiLogger_NilIsSafe(t *testing.T) {
	var ml *MultiLogger
	assert.NotPanics(t, func() {
		ml.LogPipelineEvent("x")
		ml.LogAppError("y")
	})
}

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestLogReader_LimitAndQuery(t *testing.T) {
	dir := t.TempDir()
	path := CategoryLogPath(dir, CategoryTools, time.Now().Format("20060102"))
	content := "=== [2024-01-01 10:00:00] ===\n$ yt-dlp --format bestaudio https://youtu.be/a\n[stderr]\nERROR: fragment not found\n=== END ===\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reader := NewLogReader(dir)

	all, err := reader.ReadLogs(CategoryTools, time.Now(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	last, err := reader.ReadLogs(CategoryTools, time.Now(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, "=== END ===", last[1].Message)

	matched, err := reader.ReadLogs(CategoryTools, time.Now(), "FRAGMENT", 0)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "ERROR: fragment not found", matched[0].Message)

	missing, err := reader.ReadLogs(CategoryTools, time.Now().Add(-48*time.Hour), "", 0)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.True(t, ValidCategory(CategoryTools))
	assert.False(t, ValidCategory("queue"))
}
