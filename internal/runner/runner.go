// Package runner executes the external desktop tools and classifies their
// failures.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrToolUnavailable means the executable could not be found
	ErrToolUnavailable = errors.New("tool unavailable")
	// ErrToolFailed means the tool ran but exited unsuccessfully
	ErrToolFailed = errors.New("tool failed")
	// ErrParse means the tool output could not be interpreted
	ErrParse = errors.New("unparseable tool output")
	// ErrIO covers image reads and writes
	ErrIO = errors.New("io failure")
)

// RunFunc runs name with args and returns captured stdout and trimmed stderr.
type RunFunc func(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)

// Exec is the RunFunc backed by os/exec.
func Exec(ctx context.Context, name string, args ...string) (string, string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", "", errors.Wrapf(ErrToolUnavailable, "%s: %v", name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	errText := strings.TrimSpace(stderr.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), errText, errors.Wrapf(ErrToolFailed, "%s exited with %d", name, exitErr.ExitCode())
		}
		return stdout.String(), errText, errors.Wrapf(ErrToolFailed, "%s: %v", name, err)
	}

	return stdout.String(), errText, nil
}

// Describe folds stderr into err for logging.
func Describe(err error, stderr string) error {
	if err == nil || stderr == "" {
		return err
	}
	return errors.Wrap(err, stderr)
}
