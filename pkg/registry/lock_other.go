//go:build !unix

// pkg/registry/lock_other.go

package registry

import "context"

// acquireFileLock is a no-op where flock(2) is unavailable; the store's
// in-process mutex still serializes writers within one process.
func acquireFileLock(ctx context.Context, path string) (func() error, error) {
	return func() error { return nil }, ctx.Err()
}
