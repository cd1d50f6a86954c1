package microns_cli

import (
	"context"
	"errors"
	"testing"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ctx context.Context, fn Handler) error {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(ctx)
	return Wrap(fn)(cmd, []string{"a"})
}

func TestWrapSuccess(t *testing.T) {
	t.Parallel()

	var seen *microns_io.RuntimeContext
	err := run(t, context.Background(), func(rc *microns_io.RuntimeContext, _ *cobra.Command, args []string) error {
		seen = rc
		assert.Equal(t, []string{"a"}, args)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "test", seen.Command)
	assert.NotEmpty(t, seen.TraceID)
}

func TestWrapRecoversPanic(t *testing.T) {
	t.Parallel()

	err := run(t, context.Background(), func(*microns_io.RuntimeContext, *cobra.Command, []string) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestWrapKeepsErrorClass(t *testing.T) {
	t.Parallel()

	verr := &microns_err.ValidationError{Service: "api", Message: "already registered"}
	err := run(t, context.Background(), func(*microns_io.RuntimeContext, *cobra.Command, []string) error {
		return verr
	})
	assert.ErrorIs(t, err, verr)
	assert.Equal(t, 2, microns_err.GetExitCode(err))
}

func TestWrapExpectedError(t *testing.T) {
	t.Parallel()

	err := run(t, context.Background(), func(*microns_io.RuntimeContext, *cobra.Command, []string) error {
		return microns_err.NewExpectedError(errors.New("nothing to do"))
	})
	require.Error(t, err)
	assert.Equal(t, 0, microns_err.GetExitCode(err))
}

func TestWrapInterrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	err := run(t, ctx, func(rc *microns_io.RuntimeContext, _ *cobra.Command, _ []string) error {
		cancel()
		<-rc.Ctx.Done()
		return rc.Ctx.Err()
	})
	assert.Equal(t, 130, microns_err.GetExitCode(err))
}
