// pkg/microns_io/files.go

package microns_io

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ReadFileIfExists returns (nil, false, nil) when path does not exist.
func ReadFileIfExists(ctx context.Context, path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		otelzap.Ctx(ctx).Debug("File absent", zap.String("path", path))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, microns_err.NewIOError("read", path, err)
	}
	return data, true, nil
}

// WriteFileAtomic replaces path with data so that readers observe either the
// previous content or the new content, never a torn write. Missing parent
// directories are created.
func WriteFileAtomic(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	log := otelzap.Ctx(ctx)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, shared.DirPermStandard); err != nil {
		return microns_err.NewIOError("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return microns_err.NewIOError("write", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return microns_err.NewIOError("write", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return microns_err.NewIOError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return microns_err.NewIOError("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return microns_err.NewIOError("write", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return microns_err.NewIOError("write", path, err)
	}
	committed = true

	syncDir(dir)

	log.Debug("File written atomically",
		zap.String("path", path),
		zap.Int("size", len(data)))
	return nil
}

// syncDir persists the rename; best effort since not every platform supports it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
