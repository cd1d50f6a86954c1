// pkg/watch/watcher.go

package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/logger"
	cerr "github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

// Config selects the files to watch and what to run when they change.
type Config struct {
	Paths    []string
	Debounce time.Duration
	OnChange func(ctx context.Context) error
}

// Watcher calls OnChange once per burst of changes to any watched file.
// Parent directories are watched, so files replaced by rename (atomic
// writes) or created later are still seen.
type Watcher struct {
	cfg   Config
	files map[string]struct{}
	fw    *fsnotify.Watcher
	done  chan struct{}
	runs  sync.WaitGroup
}

// Start begins watching. The watcher stops when ctx is cancelled.
func Start(ctx context.Context, cfg Config) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, cerr.AssertionFailedf("watch: OnChange is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, cerr.Wrap(err, "create file watcher")
	}

	w := &Watcher{cfg: cfg, files: map[string]struct{}{}, fw: fw, done: make(chan struct{})}
	dirs := map[string]struct{}{}
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, cerr.Wrapf(err, "resolve %s", p)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, cerr.WithHint(cerr.Wrapf(err, "watch %s", dir),
				"the directory must exist before it can be watched")
		}
	}

	otelzap.Ctx(ctx).Info("Watching for changes",
		zap.Strings("files", cfg.Paths),
		zap.Duration("debounce", cfg.Debounce))

	go w.loop(ctx)
	return w, nil
}

// Wait blocks until the watcher has stopped and any in-flight OnChange has
// returned.
func (w *Watcher) Wait() {
	<-w.done
	w.runs.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	log := otelzap.Ctx(ctx)
	defer close(w.done)
	defer func() { _ = w.fw.Close() }()

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			log.Debug("Change detected", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.cfg.Debounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warn("File watcher error", zap.Error(err))
		case <-timer.C:
			w.fire(ctx)
		case <-ctx.Done():
			log.Info("Stopped watching", zap.Error(ctx.Err()))
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) fire(ctx context.Context) {
	w.runs.Add(1)
	defer w.runs.Done()

	// Failures are logged by the lifecycle hook; the watcher keeps running.
	var err error
	defer logger.LogCommandLifecycle("watch.regenerate")(&err)
	err = w.cfg.OnChange(ctx)
}
