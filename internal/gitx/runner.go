package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxDiagnosticBytes caps how much git stderr is kept for diagnostics.
const maxDiagnosticBytes = 16 * 1024

// maxDiagnosticLines caps the number of stderr lines kept for diagnostics.
const maxDiagnosticLines = 200

// CommandError reports a git invocation that exited with a non-zero status.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("git %s: exit status %d: %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// run executes git in the repository root. A non-zero exit status is
// returned as *CommandError together with the captured output, unless the
// status is listed in okCodes.
func (r *Repo) run(ctx context.Context, dir, stdin string, okCodes []int, args ...string) (commandResult, error) {
	timeout := r.timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if dir == "" {
		dir = r.root
	}
	cmd := exec.CommandContext(runCtx, r.binary, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	started := time.Now()
	runErr := cmd.Run()
	result := commandResult{
		Stdout: stdoutBuf.String(),
		Stderr: string(truncateOutput(stderrBuf.Bytes(), maxDiagnosticBytes, maxDiagnosticLines)),
	}

	if runCtx.Err() != nil && ctx.Err() == nil {
		return result, fmt.Errorf("git %s: timeout after %s", args[0], timeout)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case runErr != nil:
		return result, fmt.Errorf("git %s: %w", args[0], runErr)
	}

	r.logger.Debug(ctx, "git command finished",
		logField("args", strings.Join(args, " ")),
		logField("exit_code", result.ExitCode),
		logField("duration", time.Since(started).String()),
		logField("stdout_bytes", len(result.Stdout)),
	)

	if result.ExitCode == 0 {
		return result, nil
	}
	for _, code := range okCodes {
		if code == result.ExitCode {
			return result, nil
		}
	}
	return result, &CommandError{Args: args, ExitCode: result.ExitCode, Stderr: result.Stderr}
}

// truncateOutput keeps the tail of output within maxBytes and tailLines.
func truncateOutput(output []byte, maxBytes, tailLines int) []byte {
	if len(output) == 0 {
		return output
	}
	if maxBytes > 0 && len(output) > maxBytes {
		output = output[len(output)-maxBytes:]
	}
	if tailLines <= 0 {
		return output
	}
	lines := bytes.Split(output, []byte("\n"))
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	return bytes.Join(lines, []byte("\n"))
}
