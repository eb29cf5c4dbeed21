package server

import (
	"context"
	"net/http"
	"time"

	"github.com/listmagify/recs-engine/internal/catalog"
	"github.com/listmagify/recs-engine/internal/dismissal"
	"github.com/listmagify/recs-engine/internal/ingest"
	"github.com/listmagify/recs-engine/internal/query"
	"github.com/listmagify/recs-engine/internal/store"
)

const (
	ingestDeadline = 30 * time.Second
	queryDeadline  = 10 * time.Second
)

// Deps wires the services a fully assembled Router dispatches to.
type Deps struct {
	Store               *store.Store
	Ingestor            *ingest.Ingestor
	Query               *query.Engine
	Dismissal           *dismissal.Service
	Enricher            *catalog.Enricher
	Pool                *Pool
	RecsEnabled         func() bool
	StatsAllowedUserIDs []string
	Log                 func(msg string, args ...any)
}

// NewRouter assembles the recs-engine's dispatch surface: the recs-enabled
// gate, per-request deadlines, logging, and the five wire endpoints from
// spec.md §6.
func NewRouter(deps Deps) *BasicRouter {
	r := NewBasicRouter()

	if deps.Log != nil {
		r.Use(Logging(deps.Log))
	}
	r.Use(RecsEnabledGate(deps.RecsEnabled))

	pool := deps.Pool
	if pool == nil {
		pool = NewPool()
	}

	r.Handler(withDeadline(ingestDeadline, &CaptureHandler{Ingestor: deps.Ingestor, Pool: pool}))
	r.Handler(withDeadline(queryDeadline, &SeedHandler{Engine: deps.Query, Enricher: deps.Enricher}))
	r.Handler(withDeadline(queryDeadline, &AppendixHandler{Engine: deps.Query, Enricher: deps.Enricher}))
	r.Handler(&DismissHandler{Service: deps.Dismissal})
	r.Handler(&StatsHandler{Store: deps.Store, AllowedUserIDs: deps.StatsAllowedUserIDs})

	return r
}

// withDeadline wraps a Handler so every request it serves is bounded by d,
// matching spec.md §5's per-request ingestion/query timeouts.
func withDeadline(d time.Duration, h Handler) Handler {
	return &deadlineHandler{inner: h, deadline: d}
}

type deadlineHandler struct {
	inner    Handler
	deadline time.Duration
}

func (h *deadlineHandler) Routes() []string { return h.inner.Routes() }

func (h *deadlineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deadline)
	defer cancel()
	h.inner.ServeHTTP(w, r.WithContext(ctx))
}
