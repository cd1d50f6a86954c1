package microns_err

import (
	"errors"
	"fmt"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain", err: errors.New("boom"), want: 1},
		{name: "validation", err: &ValidationError{Field: "name", Message: "is required"}, want: 2},
		{name: "wrapped_validation", err: WrapValidationError(&ValidationError{Message: "x"}), want: 2},
		{name: "process", err: &ProcessError{Command: "docker", ExitStatus: 1}, want: 4},
		{name: "io", err: NewIOError("write", "/tmp/x", errors.New("denied")), want: 1},
		{name: "internal", err: NewInternalError("bug", nil), want: 3},
		{name: "expected_user_error", err: NewExpectedError(errors.New("nothing to do")), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestProcessErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ProcessError{
		Command:    "docker-compose",
		Args:       []string{"-f", "m.yml", "up"},
		ExitStatus: 1,
		Output:     "Building api\nERROR: Service 'api' failed to build\n",
	}
	assert.Contains(t, err.Error(), `"docker-compose -f m.yml up"`)
	assert.Contains(t, err.Error(), "exited with status 1")
	assert.Contains(t, err.Error(), "ERROR: Service 'api' failed to build")

	spawn := &ProcessError{Command: "missing", ExitStatus: -1, Err: errors.New("executable file not found")}
	assert.Contains(t, spawn.Error(), "failed to run")

	wrapped := cerr.Wrap(spawn, "compose up")
	got, ok := AsProcessError(wrapped)
	require.True(t, ok)
	assert.Same(t, spawn, got)
}

func TestJoinValidation(t *testing.T) {
	t.Parallel()

	assert.NoError(t, JoinValidation())
	assert.NoError(t, JoinValidation(nil, nil))

	one := JoinValidation(&ValidationError{Field: "name", Message: "is required"})
	require.Error(t, one)
	assert.Equal(t, "field 'name': is required", one.Error())
	assert.True(t, IsValidation(one))

	two := JoinValidation(
		&ValidationError{Service: "redis", Field: "image", Message: "is required"},
		&ValidationError{Service: "redis", Message: "already registered"},
	)
	assert.Equal(t, "service 'redis' field 'image': is required; service 'redis': already registered", two.Error())
	assert.True(t, IsValidation(fmt.Errorf("add: %w", two)))
}

func TestExtractSummary(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "No output provided.", ExtractSummary("  \n", 2))
	assert.Equal(t, "last line", ExtractSummary("first\nlast line\n", 2))
	assert.Equal(t, "a error - b failed", ExtractSummary("a error\nb failed\nc cannot\n", 2))
}
