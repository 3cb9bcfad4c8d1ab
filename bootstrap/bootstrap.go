// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/formgate/adapters/clock"
	"github.com/artpar/formgate/adapters/events"
	"github.com/artpar/formgate/adapters/hasher"
	apihttp "github.com/artpar/formgate/adapters/http"
	"github.com/artpar/formgate/adapters/idgen"
	"github.com/artpar/formgate/adapters/memory"
	"github.com/artpar/formgate/adapters/metrics"
	"github.com/artpar/formgate/adapters/redis"
	"github.com/artpar/formgate/adapters/sqlite"
	"github.com/artpar/formgate/app"
	"github.com/artpar/formgate/config"
	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/ports"
)

// Version is set at build time.
var Version = "dev"

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Store      ports.FormStore
	Events     ports.EventPublisher
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Service    *app.FormService
	Handler    http.Handler
	HTTPServer *http.Server

	apiKeyHash atomic.Pointer[string]
	clock      ports.Clock
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger *zerolog.Logger
	store  ports.FormStore
	events ports.EventPublisher
	clock  ports.Clock
	ids    ports.IDGenerator
	hasher ports.Hasher
}

// WithLogger replaces the logger built from the config.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithStore replaces the configured form store.
func WithStore(s ports.FormStore) Option {
	return func(o *options) { o.store = s }
}

// WithEventPublisher replaces the configured event publisher.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(o *options) { o.events = p }
}

// WithClock replaces the wall clock.
func WithClock(c ports.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(g ports.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithHasher replaces the bcrypt API key hasher.
func WithHasher(h ports.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

// New creates and initializes the application from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{
		clock:  clock.Real{},
		ids:    idgen.UUID{},
		hasher: hasher.NewBcrypt(0),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := SetupLogger(cfg.Logging)
	if o.logger != nil {
		logger = *o.logger
	}
	logger.Info().Str("version", Version).Msg("initializing formgate")

	a := &App{
		Logger: logger,
		Config: cfg,
		clock:  o.clock,
	}
	a.apiKeyHash.Store(&cfg.Auth.APIKeyHash)

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.Registry)
		logger.Info().Msg("prometheus metrics enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.Store = o.store
	if a.Store == nil {
		store, err := OpenStore(ctx, cfg, o.ids)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Store = store
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("form store ready")

	a.Events = o.events
	if a.Events == nil {
		pub, err := OpenPublisher(cfg)
		if err != nil {
			a.Store.Close()
			return nil, fmt.Errorf("open event publisher: %w", err)
		}
		a.Events = pub
	}

	a.Service = app.NewFormService(a.Store, a.Events, o.clock, o.ids, a.Metrics, logger)

	routerCfg := apihttp.RouterConfig{
		Version:        Version,
		Metrics:        a.Metrics,
		EnableOpenAPI:  cfg.OpenAPI.Enabled,
		Hasher:         o.hasher,
		APIKeyHash:     a.APIKeyHash,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if a.Registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	}
	a.Handler = apihttp.NewRouter(
		apihttp.NewFormHandler(a.Service, logger),
		apihttp.NewHealthHandler(storeHealth{a.Store}),
		logger,
		routerCfg,
	)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

// OpenStore opens the form store selected by cfg.Storage.Driver. Sections
// loaded from the store use ids for duplicated field ids.
func OpenStore(ctx context.Context, cfg *config.Config, ids form.IDGenerator) (ports.FormStore, error) {
	opts := []form.SectionOption{form.WithIDGenerator(ids)}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memory.NewFormStore(opts...), nil

	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return sqlite.NewFormStore(db, opts...), nil

	case config.StorageRedis:
		rc, err := redisConfig(cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		return redis.Open(ctx, rc, opts...)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// redisConfig starts from the FORMGATE_REDIS_* environment and overlays the
// fields set in the config file.
func redisConfig(c config.RedisConfig) (redis.Config, error) {
	rc, err := redis.ConfigFromEnv()
	if err != nil {
		return redis.Config{}, err
	}
	if c.Addr != "" {
		rc.Addr = c.Addr
	}
	if c.Password != "" {
		rc.Password = c.Password
	}
	if c.DB != 0 {
		rc.DB = c.DB
	}
	if c.Prefix != "" {
		rc.KeyPrefix = c.Prefix
	}
	return rc, nil
}

// OpenPublisher opens the event publisher selected by cfg.Events.Driver.
func OpenPublisher(cfg *config.Config) (ports.EventPublisher, error) {
	switch cfg.Events.Driver {
	case config.EventsNone:
		return events.Noop{}, nil
	case config.EventsNATS:
		return events.ConnectNATS(cfg.Events.NATS.URL, cfg.Events.NATS.SubjectPrefix)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
}

// APIKeyHash returns the current admin key hash.
func (a *App) APIKeyHash() string {
	if p := a.apiKeyHash.Load(); p != nil {
		return *p
	}
	return ""
}

// ApplyConfig applies the reloadable settings of cfg: the log level and the
// admin API key hash.
func (a *App) ApplyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	hash := cfg.Auth.APIKeyHash
	a.apiKeyHash.Store(&hash)
	a.Metrics.RecordReload(nil, a.clock.Now())
}

// WatchConfig applies every successful reload of h and counts failures.
func (a *App) WatchConfig(h *config.Holder) {
	h.OnChange(a.ApplyConfig)
	h.OnReloadError(func(err error) {
		a.Metrics.RecordReload(err, a.clock.Now())
	})
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	return a.Shutdown()
}

// Shutdown drains the HTTP server and closes the publisher and the store.
func (a *App) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("event publisher close error")
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("form store close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// SetupLogger builds the process logger and sets the global level.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// storeHealth reports the store as ready when a lookup of an unknown form
// fails with form.ErrNotFound.
type storeHealth struct {
	store ports.FormStore
}

func (h storeHealth) HealthCheck(ctx context.Context) error {
	_, err := h.store.Get(ctx, "__health__")
	if err == nil || errors.Is(err, form.ErrNotFound) {
		return nil
	}
	return err
}
