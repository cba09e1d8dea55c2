package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/telemetry"
)

const defaultReloadDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes and hands the result to
// onChange. Invalid configs are logged and skipped.
type Watcher struct {
	path     string
	loader   *Loader
	onChange func(domain.Config)
	debounce time.Duration
	logger   *zap.Logger
}

func NewWatcher(path string, loader *Loader, onChange func(domain.Config), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewLoader(logger)
	}
	return &Watcher{
		path:     path,
		loader:   loader,
		onChange: onChange,
		debounce: defaultReloadDebounce,
		logger:   logger.Named("config_watcher"),
	}
}

// Run blocks until ctx is canceled. The parent directory is watched so
// editors that replace the file atomically are still observed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(w.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("config watcher error", zap.Error(err))
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerChan(timer):
			timer = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	cfg, err := w.loader.Load(ctx, w.path)
	if err != nil {
		w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", telemetry.EventField(telemetry.EventConfigReloaded), zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
