package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/vrsandeep/stockpile-go/internal/artifacts"
	"github.com/vrsandeep/stockpile-go/internal/collection"
	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/db"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
	"github.com/vrsandeep/stockpile-go/internal/jobs"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/notify"
	"github.com/vrsandeep/stockpile-go/internal/pipeline"
	"github.com/vrsandeep/stockpile-go/internal/preview"
	"github.com/vrsandeep/stockpile-go/internal/provider"
	"github.com/vrsandeep/stockpile-go/internal/provider/freepik"
	"github.com/vrsandeep/stockpile-go/internal/provider/pexels"
	"github.com/vrsandeep/stockpile-go/internal/provider/pixabay"
	"github.com/vrsandeep/stockpile-go/internal/session"
	"github.com/vrsandeep/stockpile-go/internal/store"
	"github.com/vrsandeep/stockpile-go/internal/websocket"
)

// sessionBackend is where collections live between page loads.
type sessionBackend interface {
	collection.Persister
	ClearCollections() error
}

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	config    *config.Config
	db        *sql.DB
	store     *store.Store
	backend   sessionBackend
	hub       *websocket.Hub
	reporter  notify.Reporter
	keyring   *session.Keyring
	artifacts *artifacts.Store
	previews  *preview.Service
	providers *provider.Registry
	jobs      *jobs.JobManager

	// Runs outlive the request that started them; they stop with the app.
	ctx    context.Context
	cancel context.CancelFunc
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New() (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds the application from an already loaded configuration.
func NewWithConfig(cfg *config.Config) (*App, error) {
	// Run history is always kept in sqlite, whatever the session backend.
	database, err := db.InitDB(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.Session.Path == ":memory:" {
		database.SetMaxOpenConns(1)
	}

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:    cfg,
		db:        database,
		store:     store.New(database),
		hub:       websocket.NewHub(),
		providers: provider.NewRegistry(),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.reporter = notify.Multi{notify.Log{}, notify.NewHub(a.hub)}

	if err := a.openSession(); err != nil {
		a.Close()
		return nil, err
	}

	a.artifacts, err = artifacts.New(cfg.Downloads.Path)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.keyring = session.NewKeyring(map[string]string{
		config.ProviderPexels:  cfg.Providers.Pexels.APIKey,
		config.ProviderPixabay: cfg.Providers.Pixabay.APIKey,
		config.ProviderFreepik: cfg.Providers.Freepik.APIKey,
	})

	// Downloads share one paced client; previews are fetched on their own.
	client := fetch.New(cfg.HTTP.Timeout, cfg.Downloads.RequestInterval)
	a.previews = preview.NewService(fetch.New(cfg.HTTP.Timeout, 0))

	register[models.PexelsPhoto](a, pexels.New(client, cfg.Providers.Pexels))
	register[models.PixabayHit](a, pixabay.New(client, cfg.Providers.Pixabay))
	register[models.FreepikResource](a, freepik.New(client, cfg.Providers.Freepik))

	a.jobs = jobs.NewManager(a)
	jobs.RegisterDefaultJobs(a.jobs)

	go a.hub.Run()

	log.Println("Core application setup complete.")
	return a, nil
}

func (a *App) openSession() error {
	cfg := a.config.Session
	switch cfg.Backend {
	case config.BackendRedis:
		rs, err := session.NewRedisStore(a.ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return fmt.Errorf("failed to open redis session: %w", err)
		}
		a.backend = rs
	case config.BackendMemory:
		a.backend = session.NewMemoryStore()
	case config.BackendSQLite, "":
		a.backend = a.store
	default:
		return fmt.Errorf("unknown session backend %q", cfg.Backend)
	}

	if cfg.ResetOnStart {
		if err := a.backend.ClearCollections(); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}
	log.Printf("Session backend: %s", cfg.Backend)
	return nil
}

func register[T models.Resource](a *App, p provider.Provider[T]) {
	info := p.Info()
	coll := collection.New(collection.Options[T]{
		Provider:  info.ID,
		Limit:     info.Limit,
		Notifier:  a.reporter,
		Persister: a.backend,
	})
	a.providers.Register(newBinding(p, coll, pipeline.Options[T]{
		Saver:      a.artifacts,
		Reporter:   a.reporter,
		Recorder:   a.store,
		ResetDelay: a.config.Downloads.ResetDelay,
	}))
}

func (a *App) Config() *config.Config          { return a.config }
func (a *App) DB() *sql.DB                     { return a.db }
func (a *App) Store() *store.Store             { return a.store }
func (a *App) WsHub() *websocket.Hub           { return a.hub }
func (a *App) Keyring() *session.Keyring       { return a.keyring }
func (a *App) Artifacts() *artifacts.Store     { return a.artifacts }
func (a *App) Previews() *preview.Service      { return a.previews }
func (a *App) JobManager() *jobs.JobManager    { return a.jobs }
func (a *App) History() jobs.HistoryPruner     { return a.store }
func (a *App) Reporter() jobs.ProgressReporter { return a.reporter }
func (a *App) Context() context.Context        { return a.ctx }

// Providers lists the served providers.
func (a *App) Providers() []models.ProviderInfo { return a.providers.GetAll() }

// Binding returns the provider binding for id.
func (a *App) Binding(id string) (Binding, bool) {
	p, ok := a.providers.Get(id)
	if !ok {
		return nil, false
	}
	b, ok := p.(Binding)
	return b, ok
}

// APIKey returns the key to use for a provider: the override when given,
// else the one in the keyring.
func (a *App) APIKey(providerID, override string) string {
	if override != "" {
		return override
	}
	key, _ := a.keyring.Get(providerID)
	return key
}

// Close stops running downloads and releases the application's resources.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.hub != nil {
		a.hub.Stop()
	}
	if rs, ok := a.backend.(*session.RedisStore); ok {
		rs.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
