package infrastructure

import (
	"context"
	"sync"

	"github.com/yourusername/tunedrop/internal/domain"
)

type fakeCall struct {
	Name string
	Args []string
}

func (c fakeCall) has(arg string) bool {
	for _, a := range c.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// valueOf returns the argument following flag
func (c fakeCall) valueOf(flag string) string {
	for i, a := range c.Args {
		if a == flag && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// fakeRunner implements domain.ProcessRunner for testing
type fakeRunner struct {
	mu      sync.Mutex
	calls   []fakeCall
	handler func(call fakeCall) (*domain.ProcessResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (*domain.ProcessResult, error) {
	call := fakeCall{Name: name, Args: append([]string{}, args...)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.handler == nil {
		return &domain.ProcessResult{}, nil
	}
	return f.handler(call)
}

func (f *fakeRunner) callsWith(arg string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []fakeCall
	for _, c := range f.calls {
		if c.has(arg) {
			matched = append(matched, c)
		}
	}
	return matched
}

func okResult(stdout string) (*domain.ProcessResult, error) {
	return &domain.ProcessResult{Stdout: stdout}, nil
}

func exitResult(code int, stderr string) (*domain.ProcessResult, error) {
	return &domain.ProcessResult{ExitCode: code, Stderr: stderr}, nil
}
