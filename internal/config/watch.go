package config

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 150 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk and publishes
// every version that validates. Invalid edits are logged and skipped.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan *Config
	logger  *zap.Logger
}

// NewWatcher watches the directory holding path, since editors often
// replace a file rather than write it in place.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:    abs,
		watcher: fw,
		updates: make(chan *Config, 1),
		logger:  logger.With(zap.String("config", abs)),
	}, nil
}

func (w *Watcher) Updates() <-chan *Config { return w.updates }

// Run blocks until ctx is cancelled. It closes Updates on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.updates)
	defer w.watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("config watcher closed")
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("config watcher closed")
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-pending:
			pending = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("reload failed", zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config rejected", zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", zap.String("mode", cfg.Mode), zap.Int("count", cfg.Count))

	// keep only the newest version
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- cfg:
	case <-ctx.Done():
	}
}
