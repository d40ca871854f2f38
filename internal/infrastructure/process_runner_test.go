package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tunedrop/internal/domain"
)

func TestExecRunner_ToolNotFound(t *testing.T) {
	runner := NewExecRunner(0, nil, nil)

	result, err := runner.Run(context.Background(), "tunedrop-definitely-missing-binary", "--version")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
	require.NotNil(t, result)
	assert.Equal(t, -1, result.ExitCode)
}

func TestExecRunner_CapturesOutputAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	runner := NewExecRunner(0, nil, nil)

	result, err := runner.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2; exit 3")

	require.NoError(t, err, "non-zero exit is reported through ExitCode")
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.False(t, result.ExitedZero())
}

func TestExecRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sleep")
	}
	runner := NewExecRunner(100*time.Millisecond, nil, nil)

	result, err := runner.Run(context.Background(), "sleep", "5")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, result.ExitCode)
}

func TestExecRunner_TimeoutKillsSpawnedProcesses(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	runner := NewExecRunner(200*time.Millisecond, nil, nil)

	start := time.Now()
	result, err := runner.Run(context.Background(), "sh", "-c", "sleep 4 & sleep 4; wait")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, result.ExitCode)
	assert.Less(t, elapsed, 1500*time.Millisecond)
}

func TestExecRunner_WritesToolLog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	runner := NewExecRunner(0, NewToolLog(dir), nil)

	_, err := runner.Run(context.Background(), "sh", "-c", "echo hello from tool")
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "tools-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "$ sh -c 'echo hello from tool'")
	assert.Contains(t, string(content), "hello from tool")
	assert.Contains(t, string(content), "SUCCESS")
}

func TestToolLog_NilIsNoop(t *testing.T) {
	var l *ToolLog
	assert.NoError(t, l.Record("yt-dlp --version", &domain.ProcessResult{}, nil))
}
