package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompose writes an executable script that records its working directory
// and arguments, prints body's output and exits with body's status.
func fakeCompose(t *testing.T, body string) (bin, record string) {
	t.Helper()
	dir := t.TempDir()
	record = filepath.Join(dir, "invocation")
	bin = filepath.Join(dir, "fake-compose")
	script := "#!/bin/sh\n" +
		"pwd > '" + record + "'\n" +
		"for a in \"$@\"; do echo \"$a\" >> '" + record + "'; done\n" +
		body + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))
	return bin, record
}

func readInvocation(t *testing.T, record string) (dir string, args []string) {
	t.Helper()
	data, err := os.ReadFile(record)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return lines[0], lines[1:]
}

func TestUpArguments(t *testing.T) {
	t.Parallel()

	bin, record := fakeCompose(t, "exit 0")
	workDir := t.TempDir()
	ctrl := New(Config{Binary: bin})

	require.NoError(t, ctrl.Up(context.Background(), "docker/docker-compose.generated.yml", workDir))

	dir, args := readInvocation(t, record)
	wantDir, _ := filepath.EvalSymlinks(workDir)
	gotDir, _ := filepath.EvalSymlinks(dir)
	assert.Equal(t, wantDir, gotDir)
	assert.Equal(t, []string{"-f", "docker/docker-compose.generated.yml", "up", "--build", "--force-recreate", "--remove-orphans", "-d"}, args)
}

func TestDownArguments(t *testing.T) {
	t.Parallel()

	bin, record := fakeCompose(t, "exit 0")
	ctrl := New(Config{Binary: bin})

	require.NoError(t, ctrl.Down(context.Background(), "m.yml", t.TempDir()))
	_, args := readInvocation(t, record)
	assert.Equal(t, []string{"-f", "m.yml", "down"}, args)
}

func TestDryRunDoesNotInvoke(t *testing.T) {
	t.Parallel()

	bin, record := fakeCompose(t, "exit 0")
	ctrl := New(Config{Binary: bin, DryRun: true})

	require.NoError(t, ctrl.Up(context.Background(), "m.yml", t.TempDir()))
	require.NoError(t, ctrl.Down(context.Background(), "m.yml", t.TempDir()))
	assert.NoFileExists(t, record)

	line, err := ctrl.CommandLine(DownArgs("my manifest.yml"))
	require.NoError(t, err)
	assert.Equal(t, bin+" -f 'my manifest.yml' down", line)
}

func TestConfiguredBinaryWithLeadingArgs(t *testing.T) {
	t.Parallel()

	bin, record := fakeCompose(t, "exit 0")
	ctrl := New(Config{Binary: bin + " compose"})

	require.NoError(t, ctrl.Down(context.Background(), "m.yml", t.TempDir()))
	_, args := readInvocation(t, record)
	assert.Equal(t, []string{"compose", "-f", "m.yml", "down"}, args)
}

func TestUpFailureIsProcessError(t *testing.T) {
	t.Parallel()

	bin, _ := fakeCompose(t, "echo 'ERROR: build failed for api' >&2; exit 17")
	ctrl := New(Config{Binary: bin})

	err := ctrl.Up(context.Background(), "m.yml", t.TempDir())
	require.Error(t, err)

	perr, ok := microns_err.AsProcessError(err)
	require.True(t, ok)
	assert.Equal(t, 17, perr.ExitStatus)
	assert.Contains(t, perr.Output, "build failed for api")
	assert.Equal(t, UpArgs("m.yml"), perr.Args)
	assert.Equal(t, 4, microns_err.GetExitCode(err))
}

func TestMissingConfiguredBinary(t *testing.T) {
	t.Parallel()

	ctrl := New(Config{Binary: filepath.Join(t.TempDir(), "absent-compose")})
	err := ctrl.Down(context.Background(), "m.yml", t.TempDir())

	perr, ok := microns_err.AsProcessError(err)
	require.True(t, ok)
	assert.Equal(t, -1, perr.ExitStatus)
}

func TestResolveFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		available map[string]bool
		wantCmd   string
		wantArgs  []string
		wantErr   bool
	}{
		{name: "standalone", available: map[string]bool{"docker-compose": true, "docker": true}, wantCmd: "docker-compose"},
		{name: "plugin", available: map[string]bool{"docker": true}, wantCmd: "docker", wantArgs: []string{"compose"}},
		{name: "none", available: map[string]bool{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := New(Config{})
			ctrl.lookPath = func(name string) (string, error) {
				if tt.available[name] {
					return "/usr/bin/" + name, nil
				}
				return "", exec.ErrNotFound
			}

			cmd, args, err := ctrl.Resolve()
			if tt.wantErr {
				perr, ok := microns_err.AsProcessError(err)
				require.True(t, ok)
				assert.Equal(t, -1, perr.ExitStatus)
				assert.True(t, errors.Is(err, exec.ErrNotFound) || perr.Err != nil)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{name: "plugin", output: "v2.27.1", want: "2.27.1"},
		{name: "plain", output: "2.24.5", want: "2.24.5"},
		{name: "legacy", output: "docker-compose version 1.29.2", want: "1.29.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bin, record := fakeCompose(t, "echo '"+tt.output+"'")
			v, err := New(Config{Binary: bin}).Version(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())

			_, args := readInvocation(t, record)
			assert.Equal(t, []string{"version", "--short"}, args)
		})
	}
}

func TestVersionUnparseable(t *testing.T) {
	t.Parallel()

	bin, _ := fakeCompose(t, "echo 'not-a-version'")
	_, err := New(Config{Binary: bin}).Version(context.Background())
	assert.Error(t, err)
}
