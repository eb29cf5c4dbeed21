package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/listmagify/recs-engine/internal/catalog"
	"github.com/listmagify/recs-engine/internal/dismissal"
	"github.com/listmagify/recs-engine/internal/ingest"
	"github.com/listmagify/recs-engine/internal/query"
	"github.com/listmagify/recs-engine/internal/server"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

// Runner holds every dependency the CLI's subcommands act on.
type Runner struct {
	config    *shared.Config
	store     *store.Store
	ingestor  *ingest.Ingestor
	query     *query.Engine
	dismissal *dismissal.Service
	catalog   catalog.Client
	enricher  *catalog.Enricher
	pool      *server.Pool
	logger    *log.Logger
	output    io.Writer
}

// RunnerConfig contains the options for creating a Runner.
type RunnerConfig struct {
	Config  *shared.Config
	Store   *store.Store
	Catalog catalog.Client
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner wires a Runner from its dependencies, defaulting the config,
// logger, output stream and catalog client when left unset, the same way the
// teacher's NewRunner defaults an unconfigured logger, output stream, or HTTP
// client. The store is not defaulted and must be supplied.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Config == nil {
		cfg.Config = shared.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.NullClient{}
	}

	return &Runner{
		config:    cfg.Config,
		store:     cfg.Store,
		ingestor:  ingest.New(cfg.Store),
		query:     query.New(cfg.Store),
		dismissal: dismissal.New(cfg.Store),
		catalog:   cfg.Catalog,
		enricher:  catalog.NewEnricher(cfg.Catalog, catalog.EnricherOpts{}),
		pool:      server.NewPool(),
		logger:    cfg.Logger,
		output:    cfg.Output,
	}
}

// router assembles the HTTP dispatch surface from this Runner's dependencies.
func (r *Runner) router() *server.BasicRouter {
	return server.NewRouter(server.Deps{
		Store:               r.store,
		Ingestor:            r.ingestor,
		Query:               r.query,
		Dismissal:           r.dismissal,
		Enricher:            r.enricher,
		Pool:                r.pool,
		RecsEnabled:         func() bool { return r.config.Recs.Enabled },
		StatsAllowedUserIDs: r.config.Recs.StatsAllowedUserIDs,
		Log:                 func(msg string, args ...any) { r.logger.Info(msg, args...) },
	})
}

// Close releases the Runner's worker pool. The underlying store is owned by
// the caller (see openRunner) and is closed separately.
func (r *Runner) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// openRunner opens the store named by config and wires a Runner around it.
// The returned close function must be called once the Runner is no longer
// needed.
func openRunner(config *shared.Config) (*Runner, func(), error) {
	s, err := store.Open(config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}

	r := NewRunner(RunnerConfig{Config: config, Store: s})
	return r, func() { r.Close(); s.Close() }, nil
}
