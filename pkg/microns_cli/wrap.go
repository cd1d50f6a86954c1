// pkg/microns_cli/wrap.go

package microns_cli

import (
	"context"
	"errors"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Handler is the shape of every microns command body.
type Handler func(rc *microns_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap gives a command body a runtime context, panic recovery, outcome
// logging and error classification.
func Wrap(fn Handler) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}

		rc := microns_io.NewContext(parent, cmd.CommandPath())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		rc.Log.Debug("Command invoked", zap.Strings("args", args))

		err = fn(rc, cmd, args)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, context.Canceled) && parent.Err() != nil:
			return &microns_err.ClassifiedError{
				Category: microns_err.CategoryUser,
				Message:  "interrupted",
				Cause:    err,
			}
		case microns_err.IsExpectedUserError(err):
			return err
		default:
			return cerr.WithStack(err)
		}
	}
}
