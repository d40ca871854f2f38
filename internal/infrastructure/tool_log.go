package infrastructure

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yourusername/tunedrop/internal/domain"
	"github.com/yourusername/tunedrop/pkg/logger"
)

// ToolLog appends raw external tool output to a daily log file.
// A nil *ToolLog discards everything.
type ToolLog struct {
	dir string
	mu  sync.Mutex
}

// NewToolLog creates a tool log writing under dir
func NewToolLog(dir string) *ToolLog {
	return &ToolLog{dir: dir}
}

// Record writes one invocation: command header, captured output and a status footer
func (l *ToolLog) Record(cmdLine string, result *domain.ProcessResult, runErr error) error {
	if l == nil || l.dir == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.openLogFile()
	if err != nil {
		return err
	}
	defer file.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] ===\n$ %s\n", timestamp, cmdLine)
	if result != nil {
		if result.Stdout != "" {
			fmt.Fprintf(file, "%s\n", result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Fprintf(file, "[stderr]\n%s\n", result.Stderr)
		}
	}

	status := "SUCCESS"
	detail := ""
	switch {
	case runErr != nil:
		status = "FAILED"
		detail = runErr.Error()
	case result != nil && result.ExitCode != 0:
		status = "FAILED"
		detail = fmt.Sprintf("exit status %d", result.ExitCode)
	}
	var took time.Duration
	if result != nil {
		took = result.Duration.Round(time.Millisecond)
	}
	fmt.Fprintf(file, "[%s] %s (%s) %s\n=== END ===\n", timestamp, status, took, detail)
	return nil
}

// openLogFile opens today's tool log
func (l *ToolLog) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	path := logger.CategoryLogPath(l.dir, logger.CategoryTools, time.Now().Format("20060102"))
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
