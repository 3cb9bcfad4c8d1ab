package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchDebounce coalesces the bursts of events editors emit for one save.
const watchDebounce = 100 * time.Millisecond

// Holder keeps the live configuration and reloads it from disk on file
// changes or SIGHUP. Listeners run only when a reload changes something.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	onError  []func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads the file at path.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Holder{
		config: cfg,
		path:   abs,
		logger: logger.With().Str("component", "config").Logger(),
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// OnChange registers fn to run after every reload that changes the config.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReloadError registers fn to run when a reload fails.
func (h *Holder) OnReloadError(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// Reload reads the file again. On failure the current config is kept.
// A file that parses to the current config is not reported as a change.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config reload failed, keeping current config")
		for _, fn := range h.errorListeners() {
			fn(err)
		}
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	if reflect.DeepEqual(prev, next) {
		h.mu.Unlock()
		h.logger.Debug().Msg("config unchanged")
		return nil
	}
	h.config = next
	listeners := h.onChange
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

func (h *Holder) errorListeners() []func(error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onError
}

// WatchFile reloads whenever the config file is written or replaced. The
// directory is watched so atomic saves are seen.
func (h *Holder) WatchFile() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = w

	go h.watchLoop(w)
	h.logger.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("SIGHUP received")
				_ = h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It may be called more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop(w *fsnotify.Watcher) {
	name := filepath.Base(h.path)
	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(watchDebounce)
			}

		case <-pending:
			pending = nil
			_ = h.Reload()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(prev, next *Config) {
	ev := h.logger.Info()
	if prev.Logging.Level != next.Logging.Level {
		ev = ev.Str("log_level", next.Logging.Level)
	}
	if prev.Auth.APIKeyHash != next.Auth.APIKeyHash {
		ev = ev.Bool("api_key_required", next.Auth.APIKeyHash != "")
	}
	ev.Msg("configuration reloaded")

	if fields := RestartRequired(prev, next); len(fields) > 0 {
		h.logger.Warn().Strs("fields", fields).Msg("changed settings take effect after a restart")
	}
}

// startupSettings are read once when the server starts.
var startupSettings = []struct {
	name    string
	changed func(prev, next *Config) bool
}{
	{"server.host", func(p, n *Config) bool { return p.Server.Host != n.Server.Host }},
	{"server.port", func(p, n *Config) bool { return p.Server.Port != n.Server.Port }},
	{"server.timeouts", func(p, n *Config) bool {
		return p.Server.ReadTimeout != n.Server.ReadTimeout ||
			p.Server.WriteTimeout != n.Server.WriteTimeout ||
			p.Server.RequestTimeout != n.Server.RequestTimeout ||
			p.Server.ShutdownTimeout != n.Server.ShutdownTimeout
	}},
	{"storage.driver", func(p, n *Config) bool { return p.Storage.Driver != n.Storage.Driver }},
	{"storage.sqlite.dsn", func(p, n *Config) bool { return p.Storage.SQLite.DSN != n.Storage.SQLite.DSN }},
	{"storage.redis", func(p, n *Config) bool { return p.Storage.Redis != n.Storage.Redis }},
	{"events.driver", func(p, n *Config) bool { return p.Events.Driver != n.Events.Driver }},
	{"events.nats", func(p, n *Config) bool { return p.Events.NATS != n.Events.NATS }},
	{"logging.format", func(p, n *Config) bool { return p.Logging.Format != n.Logging.Format }},
	{"metrics", func(p, n *Config) bool { return p.Metrics != n.Metrics }},
	{"openapi.enabled", func(p, n *Config) bool { return p.OpenAPI.Enabled != n.OpenAPI.Enabled }},
}

// RestartRequired lists the startup-only settings that differ between prev
// and next, in NonReloadableFields order.
func RestartRequired(prev, next *Config) []string {
	var out []string
	for _, s := range startupSettings {
		if s.changed(prev, next) {
			out = append(out, s.name)
		}
	}
	return out
}

// ReloadableFields returns the settings applied without a restart.
func ReloadableFields() []string {
	return []string{"logging.level", "auth.api_key_hash"}
}

// NonReloadableFields returns the settings that need a restart.
func NonReloadableFields() []string {
	out := make([]string, len(startupSettings))
	for i, s := range startupSettings {
		out[i] = s.name
	}
	return out
}
