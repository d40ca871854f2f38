package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/internal/domain"
)

// processWaitDelay bounds how long Run waits for output pipes after the tool is killed
const processWaitDelay = 2 * time.Second

// ExecRunner implements domain.ProcessRunner with os/exec
type ExecRunner struct {
	timeout time.Duration
	toolLog *ToolLog
	logger  *zap.Logger
}

// NewExecRunner creates a runner. A zero timeout leaves invocations unbounded
// apart from the caller's context.
func NewExecRunner(timeout time.Duration, toolLog *ToolLog, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		timeout: timeout,
		toolLog: toolLog,
		logger:  logger,
	}
}

// Run executes name with args, capturing stdout and stderr separately
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*domain.ProcessResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmdLine := FormatCommandLine(name, args...)
	r.logger.Debug("Running tool", zap.String("cmd", cmdLine))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = processWaitDelay
	setProcessGroup(cmd)

	start := time.Now()
	runErr := cmd.Run()
	result := &domain.ProcessResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	err := classifyRunError(ctx, name, runErr, result)

	if logErr := r.toolLog.Record(cmdLine, result, err); logErr != nil {
		r.logger.Warn("Failed to write tool log", zap.Error(logErr))
	}

	return result, err
}

// classifyRunError turns a non-zero exit into ExitCode and keeps start failures
// and context kills as errors
func classifyRunError(ctx context.Context, name string, runErr error, result *domain.ProcessResult) error {
	if runErr == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return fmt.Errorf("%s did not finish: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return nil
	}

	result.ExitCode = -1
	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	return fmt.Errorf("failed to run %s: %w", name, runErr)
}
