package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce absorbs the bursts editors produce when saving (truncate,
// write, rename) into one reload.
const reloadDebounce = 300 * time.Millisecond

// Watcher re-reads the config file when it changes on disk and hands the
// validated result to the callback. Invalid or unreadable content keeps the
// running configuration and only logs.
type Watcher struct {
	path     string
	log      *slog.Logger
	onChange func(*Config)

	fs *fsnotify.Watcher

	timerMu sync.Mutex
	timer   *time.Timer

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Watch starts watching path. The parent directory is watched rather than
// the file itself because editors commonly replace the file by rename,
// which would silently drop a direct watch.
func Watch(path string, onChange func(*Config), log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		log:      log,
		onChange: onChange,
		fs:       fs,
		stopCh:   make(chan struct{}),
	}
	go w.eventLoop()
	return w, nil
}

// Stop cancels the watch and any pending reload.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.fs.Close()

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
	})
}

func (w *Watcher) eventLoop() {
	base := filepath.Base(w.path)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.resetDebounce()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) resetDebounce() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Reset(reloadDebounce)
		return
	}
	w.timer = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.log.Warn("config reload skipped", "error", err)
		return
	}
	w.log.Info("config file changed, reloading", "path", w.path)
	w.onChange(cfg)
}
