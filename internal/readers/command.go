package readers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"monori/internal/core"
)

// DefaultToolTimeout caps a single external tool invocation.
const DefaultToolTimeout = 30 * time.Second

// Output is what a finished tool produced.
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports a zero exit status.
func (o Output) Success() bool { return o.ExitCode == 0 }

// Text decodes stdout for matching.
func (o Output) Text() string { return Decode(o.Stdout) }

// ErrText decodes stderr.
func (o Output) ErrText() string { return Decode(o.Stderr) }

// Runner invokes a platform utility. A non-zero exit is not an error:
// callers inspect Output.ExitCode. Failing to launch, or running past the
// timeout, is a core.ToolFailure. Runners never retry.
type Runner interface {
	Run(ctx context.Context, program string, args ...string) (Output, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// Timeout bounds each invocation; zero means DefaultToolTimeout.
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, program string, args ...string) (Output, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	source := commandLine(program, args)
	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return out, core.NewFailure(core.ToolFailure, source, fmt.Errorf("no result within %s: %w", timeout, ctx.Err()))
	case ctx.Err() != nil:
		return out, core.NewFailure(core.ToolFailure, source, fmt.Errorf("cancelled: %w", ctx.Err()))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, core.NewFailure(core.ToolFailure, source, err)
	}
	return out, nil
}

func commandLine(program string, args []string) string {
	if len(args) == 0 {
		return program
	}
	return program + " " + strings.Join(args, " ")
}
