package runner

import (
	"context"
	"os/exec"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecMissingExecutable(t *testing.T) {
	t.Parallel()

	_, _, err := Exec(context.Background(), "deskinspect-no-such-tool-xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolUnavailable))
	assert.ErrorContains(t, err, "deskinspect-no-such-tool-xyz")
}

func TestExecNonzeroExit(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	stdout, stderr, err := Exec(context.Background(), "sh", "-c", "echo out; echo boom >&2; exit 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolFailed))
	assert.ErrorContains(t, err, "exited with 3")
	assert.Equal(t, "out\n", stdout)
	assert.Equal(t, "boom", stderr)
}

func TestExecSuccess(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	stdout, stderr, err := Exec(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", stdout)
	assert.Empty(t, stderr)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Describe(nil, "ignored"))

	base := errors.Wrap(ErrToolFailed, "wmctrl exited with 1")
	assert.Equal(t, base, Describe(base, ""))

	described := Describe(base, "Cannot open display")
	assert.ErrorContains(t, described, "Cannot open display")
	assert.True(t, errors.Is(described, ErrToolFailed))
}
