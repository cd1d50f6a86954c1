/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
)

// PlatformLogPaths returns candidate log paths in order of priority for the platform.
func PlatformLogPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("LOCALAPPDATA"), shared.AppID, shared.LogFileName),
			filepath.Join(".", shared.LogFileName),
		}
	default:
		return []string{
			xdgStatePath(shared.AppID, shared.LogFileName), // ~/.local/state/microns/microns.log
			filepath.Join(".", shared.LogFileName),
			filepath.Join(os.TempDir(), shared.AppID, shared.LogFileName),
		}
	}
}

func xdgStatePath(app, file string) string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, app, file)
}
