package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Claude runs the claude CLI in print mode, one process per completion.
type Claude struct {
	Binary  string // defaults to "claude"
	Model   string
	Timeout time.Duration
	Dir     string
	// LogPath, when set, receives the raw output of every call.
	LogPath string
	// Echo, when set, receives output as it streams.
	Echo io.Writer
}

func (c *Claude) Name() string { return "claude:" + c.Model }

func (c *Claude) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "claude"
}

func (c *Claude) Complete(ctx context.Context, req Request) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"-p", Transcript(req.History, req.Prompt)}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	if req.System != "" {
		args = append(args, "--append-system-prompt", req.System)
	}

	cmd := exec.CommandContext(ctx, c.binary(), args...)
	cmd.Dir = c.Dir
	cmd.Env = childEnv()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	outs := []io.Writer{&stdout}
	errs := []io.Writer{&stderr}
	if c.Echo != nil {
		outs = append(outs, c.Echo)
	}
	if c.LogPath != "" {
		logFile, err := os.OpenFile(c.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return "", err
		}
		defer logFile.Close()
		outs = append(outs, logFile)
		errs = append(errs, logFile)
	}
	cmd.Stdout = io.MultiWriter(outs...)
	cmd.Stderr = io.MultiWriter(errs...)

	code, err := exitCode(cmd.Run())
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", Permanent(err)
		}
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if code != 0 {
		return "", fmt.Errorf("claude exited with code %d: %s", code, lastLine(stderr.String()))
	}
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// Transcript flattens history and prompt into a single prompt for
// backends that take one message per call.
func Transcript(history []Message, prompt string) string {
	if len(history) == 0 {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n\n")
	for _, m := range history {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	sb.WriteString("Current request:\n\n")
	sb.WriteString(prompt)
	return sb.String()
}

// childEnv is the current environment without CLAUDECODE variables, so
// the CLI does not refuse to start when forge runs inside it.
func childEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		key, _, _ := strings.Cut(e, "=")
		if strings.HasPrefix(key, "CLAUDECODE") {
			continue
		}
		env = append(env, e)
	}
	return env
}

// exitCode extracts an exit code from a command error.
// Returns (code, nil) for ExitError, (0, err) for other errors, (0, nil) for nil.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
