// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Options describes one external command invocation. Commands are always run
// directly, never through a shell.
type Options struct {
	Command string
	Args    []string
	Dir     string        // working directory; current directory when empty
	Timeout time.Duration // zero means no timeout beyond ctx
	Stream  io.Writer     // receives live output in addition to the capture buffer
	DryRun  bool          // log the command line without running it
}

// Run executes the command and returns its combined stdout/stderr. Any
// failure, including a binary that cannot be started, is returned as a
// *microns_err.ProcessError carrying the captured output and exit status.
func Run(ctx context.Context, opts Options) (string, error) {
	log := otelzap.Ctx(ctx)
	cmdStr := CommandLine(opts.Command, opts.Args...)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ctx, span := telemetry.Start(ctx, "execute.Run",
		attribute.String("command", opts.Command),
		attribute.String("cmdline", cmdStr),
		attribute.String("dir", opts.Dir),
	)
	defer span.End()

	if opts.DryRun {
		log.Info("Dry run, command not executed", zap.String("command", cmdStr))
		return "", nil
	}

	log.Info("Starting execution", zap.String("command", cmdStr), zap.String("dir", opts.Dir))

	start := time.Now()
	output, perr := runOnce(ctx, opts)
	if perr == nil {
		log.Info("Execution succeeded",
			zap.String("command", cmdStr),
			zap.Duration("duration", time.Since(start)))
		span.SetStatus(codes.Ok, "")
		return output, nil
	}

	span.RecordError(perr)
	span.SetStatus(codes.Error, perr.Error())
	log.Error("Execution failed",
		zap.String("command", cmdStr),
		zap.Int("exit_status", perr.ExitStatus),
		zap.String("summary", microns_err.ExtractSummary(output, 2)),
		zap.Error(perr.Err))
	return output, perr
}

func runOnce(ctx context.Context, opts Options) (string, *microns_err.ProcessError) {
	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir

	var buf bytes.Buffer
	var w io.Writer = &buf
	if opts.Stream != nil {
		w = io.MultiWriter(opts.Stream, &buf)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	output := buf.String()
	if err == nil {
		return output, nil
	}

	perr := &microns_err.ProcessError{
		Command:    opts.Command,
		Args:       opts.Args,
		Dir:        opts.Dir,
		ExitStatus: -1,
		Output:     output,
		Err:        err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		perr.ExitStatus = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		perr.Err = cerr.Wrapf(ctxErr, "%s interrupted", opts.Command)
		perr.ExitStatus = -1
	}
	return output, perr
}
