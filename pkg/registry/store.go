// pkg/registry/store.go

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Store owns the registry file. All mutations run load-mutate-save under an
// in-process mutex and an advisory file lock, so concurrent callers (goroutines
// or separate microns processes) never lose each other's updates.
type Store struct {
	path     string
	mu       sync.Mutex
	validate *validator.Validate
}

// AddOptions tunes Add.
type AddOptions struct {
	// Replace overwrites an existing entry with the same name instead of
	// rejecting the definition.
	Replace bool
}

// NewStore returns a store persisting to path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path, validate: newValidator()}
}

// Path is the registry file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted registry, or an empty registry when nothing has
// been persisted yet.
func (s *Store) Load(ctx context.Context) (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Snapshot is Load under the cross-process lock, for readers that need a
// registry state no writer is halfway through producing.
func (s *Store) Snapshot(ctx context.Context) (*Registry, error) {
	var snap *Registry
	err := s.withLock(ctx, func() error {
		reg, err := s.load(ctx)
		snap = reg
		return err
	})
	return snap, err
}

// Save overwrites the persisted registry with reg.
func (s *Store) Save(ctx context.Context, reg *Registry) error {
	return s.withLock(ctx, func() error {
		return s.save(ctx, reg)
	})
}

// Add validates def, appends it to the managed or infra sequence and persists
// the result. A name already present in either sequence is rejected unless
// opts.Replace is set.
func (s *Store) Add(ctx context.Context, def Definition, opts AddOptions) (*Registry, error) {
	log := otelzap.Ctx(ctx)
	def.Name = strings.TrimSpace(def.Name)

	if err := validateDefinition(s.validate, def); err != nil {
		log.Warn("Rejected service definition", zap.String("service", def.Name), zap.Error(err))
		return nil, microns_err.WrapValidationError(err)
	}

	if !def.Infra && (def.Image != "" || def.Ports.IsSet() || def.Environment.IsSet()) {
		log.Warn("Ignoring image/ports/environment on managed service",
			zap.String("service", def.Name))
	}

	var updated *Registry
	err := s.mutate(ctx, func(reg *Registry) error {
		if reg.Has(def.Name) {
			if !opts.Replace {
				return microns_err.WrapValidationError(&microns_err.ValidationError{
					Service: def.Name,
					Message: "already registered; delete it first or add with replace",
				})
			}
			replaceEntry(reg, def)
			log.Info("Replaced service definition",
				zap.String("service", def.Name),
				zap.String("kind", def.Kind()))
		} else {
			if def.Infra {
				reg.Infra = append(reg.Infra, def.infra())
			} else {
				reg.Managed = append(reg.Managed, def.managed())
			}
			log.Info("Added service definition",
				zap.String("service", def.Name),
				zap.String("kind", def.Kind()))
		}
		updated = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// replaceEntry swaps def in at the position of the existing entry when the
// class is unchanged, so render order stays stable; otherwise the old entry is
// dropped and def appended to its own class.
func replaceEntry(reg *Registry, def Definition) {
	if def.Infra {
		for i := range reg.Infra {
			if reg.Infra[i].Name == def.Name {
				reg.Infra[i] = def.infra()
				dropLaterDuplicates(reg, def.Name, true, i)
				return
			}
		}
	} else {
		for i := range reg.Managed {
			if reg.Managed[i].Name == def.Name {
				reg.Managed[i] = def.managed()
				dropLaterDuplicates(reg, def.Name, false, i)
				return
			}
		}
	}
	reg.Remove(def.Name)
	if def.Infra {
		reg.Infra = append(reg.Infra, def.infra())
	} else {
		reg.Managed = append(reg.Managed, def.managed())
	}
}

// dropLaterDuplicates removes every other entry named name, keeping the one at
// keep in the infra (or managed) sequence. Registries written by older tools
// may contain duplicates.
func dropLaterDuplicates(reg *Registry, name string, infra bool, keep int) {
	managed := reg.Managed[:0]
	for i, s := range reg.Managed {
		if s.Name == name && (infra || i != keep) {
			continue
		}
		managed = append(managed, s)
	}
	reg.Managed = managed

	infraSvcs := reg.Infra[:0]
	for i, s := range reg.Infra {
		if s.Name == name && (!infra || i != keep) {
			continue
		}
		infraSvcs = append(infraSvcs, s)
	}
	reg.Infra = infraSvcs
}

// Delete removes every entry named name from both sequences. Deleting a name
// that is not registered is not an error; found reports whether anything was
// removed.
func (s *Store) Delete(ctx context.Context, name string) (reg *Registry, found bool, err error) {
	log := otelzap.Ctx(ctx)
	name = strings.TrimSpace(name)

	err = s.mutate(ctx, func(r *Registry) error {
		removed := r.Remove(name)
		found = removed > 0
		reg = r
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if found {
		log.Info("Deleted service definition", zap.String("service", name))
	} else {
		log.Debug("Delete of unknown service is a no-op", zap.String("service", name))
	}
	return reg, found, nil
}

func (s *Store) mutate(ctx context.Context, fn func(*Registry) error) error {
	return s.withLock(ctx, func() error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		if err := fn(reg); err != nil {
			return err
		}
		return s.save(ctx, reg)
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), shared.DirPermStandard); err != nil {
		return microns_err.NewIOError("mkdir", filepath.Dir(lockPath), err)
	}
	unlock, err := acquireFileLock(ctx, lockPath)
	if err != nil {
		return microns_err.NewIOError("lock", lockPath, err)
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			otelzap.Ctx(ctx).Warn("Failed to release registry lock",
				zap.String("lock_file", lockPath), zap.Error(uerr))
		}
	}()

	return fn()
}

func (s *Store) load(ctx context.Context) (*Registry, error) {
	data, ok, err := microns_io.ReadFileIfExists(ctx, s.path)
	if err != nil {
		return nil, err
	}
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		otelzap.Ctx(ctx).Debug("No persisted registry, starting empty", zap.String("path", s.path))
		return Empty(), nil
	}

	reg := &Registry{}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, microns_err.NewIOError("parse", s.path, err)
	}
	reg.normalize()

	otelzap.Ctx(ctx).Debug("Registry loaded",
		zap.String("path", s.path),
		zap.Int("managed", len(reg.Managed)),
		zap.Int("infra", len(reg.Infra)))
	return reg, nil
}

func (s *Store) save(ctx context.Context, reg *Registry) error {
	if reg == nil {
		return cerr.AssertionFailedf("nil registry")
	}
	reg.normalize()

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return microns_err.NewInternalError(fmt.Sprintf("encode registry %s", s.path), err)
	}
	data = append(data, '\n')

	if err := microns_io.WriteFileAtomic(ctx, s.path, data, shared.FilePermStandard); err != nil {
		return err
	}

	otelzap.Ctx(ctx).Debug("Registry saved",
		zap.String("path", s.path),
		zap.Int("services", reg.Len()))
	return nil
}
