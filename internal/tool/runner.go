// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool runs external converter binaries. Commands are executed by
// argument vector, never through a shell, and every invocation is bounded by
// a timeout after which the process is killed.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// ErrFailed is the sentinel wrapped by every ToolError.
var ErrFailed = errors.New("tool invocation failed")

// maxOutput bounds how much combined stdout/stderr is kept for error reports.
const maxOutput = 4 << 10

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed.
const waitDelay = 5 * time.Second

// Command is one invocation of an external binary.
type Command struct {
	// Name is the binary to run, looked up on PATH.
	Name string
	// Args are passed verbatim as the argument vector.
	Args []string
	// Dir is the working directory. Container runners also mount it.
	Dir string
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd and returns a *ToolError when it cannot be started,
	// exits non-zero, or outlives the timeout.
	Run(ctx context.Context, cmd Command) error

	// LookPath resolves a binary name the way Run would.
	LookPath(name string) (string, error)
}

// ToolError describes a failed external invocation.
type ToolError struct {
	Command Command
	Err     error
	Output  string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command.Name, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Unwrap exposes both ErrFailed and the underlying cause, so callers can
// match context.DeadlineExceeded as well as the sentinel.
func (e *ToolError) Unwrap() []error { return []error{ErrFailed, e.Err} }

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, dir, name string, args []string, output io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, dir, name string, args []string, output io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.WaitDelay = waitDelay
	return cmd.Run()
}

// Local runs binaries installed on the host.
type Local struct {
	exec    executor
	timeout time.Duration
}

// NewLocal returns a Runner for host binaries. A zero timeout disables the
// per-invocation bound; the caller's context still applies.
func NewLocal(timeout time.Duration) *Local {
	return newLocal(&osExecutor{}, timeout)
}

func newLocal(exec executor, timeout time.Duration) *Local {
	return &Local{exec: exec, timeout: timeout}
}

func (l *Local) LookPath(name string) (string, error) {
	return l.exec.LookPath(name)
}

func (l *Local) Run(ctx context.Context, cmd Command) error {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var out cappedBuffer
	err := l.exec.Run(ctx, cmd.Dir, cmd.Name, cmd.Args, &out)
	if err == nil {
		return nil
	}
	// A killed process reports "signal: killed"; the context says why.
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return &ToolError{Command: cmd, Err: err, Output: out.String()}
}

// Detect returns the first candidate binary that r can resolve.
func Detect(r Runner, candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := r.LookPath(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("none of %s found", strings.Join(candidates, ", "))
}

// cappedBuffer keeps the first maxOutput bytes written to it and discards
// the rest without reporting an error to the writer.
type cappedBuffer struct {
	buf bytes.Buffer
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := maxOutput - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string { return c.buf.String() }
