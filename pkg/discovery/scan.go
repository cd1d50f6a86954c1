// pkg/discovery/scan.go

package discovery

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// BuildDescriptors are the file names that make a directory a buildable service.
var BuildDescriptors = []string{"Dockerfile", "Containerfile"}

// Detected is a buildable service directory found under the services root.
type Detected struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Scan lists the immediate subdirectories of root that contain a build
// descriptor, sorted by name. A missing root yields an empty result.
func Scan(ctx context.Context, root string) ([]Detected, error) {
	log := otelzap.Ctx(ctx)
	detected := []Detected{}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("Services directory does not exist", zap.String("root", root))
			return detected, nil
		}
		return nil, microns_err.NewIOError("read", root, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isDir(root, entry) {
			continue
		}
		if !hasBuildDescriptor(filepath.Join(root, entry.Name())) {
			log.Debug("Skipping directory without build descriptor", zap.String("dir", entry.Name()))
			continue
		}
		detected = append(detected, Detected{Name: entry.Name(), Path: "/" + entry.Name()})
	}

	sort.Slice(detected, func(i, j int) bool { return detected[i].Name < detected[j].Name })

	log.Debug("Service discovery complete",
		zap.String("root", root),
		zap.Int("detected", len(detected)))
	return detected, nil
}

// isDir follows symlinks so linked service checkouts are discovered too.
func isDir(root string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, entry.Name()))
	return err == nil && info.IsDir()
}

func hasBuildDescriptor(dir string) bool {
	for _, name := range BuildDescriptors {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}
