package catalog

import (
	"context"
	"sync"

	"github.com/listmagify/recs-engine/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultNumWorkers = 4
	defaultRateLimit  = 5.0
)

// EnricherOpts configures an Enricher's concurrency and outbound rate.
type EnricherOpts struct {
	NumWorkers int     // concurrent catalog fetches (default 4)
	RateLimit  float64 // requests per second (default 5)
}

// Enricher attaches catalog metadata to recommendations without ever failing
// the underlying query: a batch or per-track lookup failure just leaves the
// affected recommendations with a nil Track.
type Enricher struct {
	client  Client
	workers int
	limiter *rate.Limiter
}

// NewEnricher returns an Enricher backed by client. A nil client or a
// NullClient both degrade to a no-op enrichment pass.
func NewEnricher(client Client, opts EnricherOpts) *Enricher {
	if client == nil {
		client = NullClient{}
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultNumWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	return &Enricher{
		client:  client,
		workers: opts.NumWorkers,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

type batchJob struct {
	ids []models.TrackID
}

type batchResult struct {
	tracks []models.TrackMetadata
}

// Enrich attaches TrackMetadata to each recommendation in place, fanning the
// candidate set out over a small worker pool in batches of up to 50 IDs.
func (e *Enricher) Enrich(ctx context.Context, recs []models.Recommendation) []models.Recommendation {
	if len(recs) == 0 {
		return recs
	}

	batches := chunk(recs, maxBatchSize)

	jobs := make(chan batchJob, len(batches))
	results := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, jobs, results)
	}

	for _, b := range batches {
		jobs <- batchJob{ids: b}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	byID := make(map[models.TrackID]models.TrackMetadata, len(recs))
	for res := range results {
		for _, t := range res.tracks {
			byID[t.ID] = t
		}
	}

	for i := range recs {
		if meta, ok := byID[recs[i].TrackID]; ok {
			m := meta
			recs[i].Track = &m
		}
	}
	return recs
}

func (e *Enricher) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan batchJob, results chan<- batchResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return
		}

		tracks, err := e.client.SeveralTracks(ctx, job.ids)
		if err != nil {
			// A failed batch just yields no metadata for those tracks; the
			// overall query never fails because of a catalog outage.
			continue
		}
		results <- batchResult{tracks: tracks}
	}
}

func chunk(recs []models.Recommendation, size int) [][]models.TrackID {
	var out [][]models.TrackID
	for i := 0; i < len(recs); i += size {
		end := i + size
		if end > len(recs) {
			end = len(recs)
		}
		ids := make([]models.TrackID, 0, end-i)
		for _, r := range recs[i:end] {
			ids = append(ids, r.TrackID)
		}
		out = append(out, ids)
	}
	return out
}
