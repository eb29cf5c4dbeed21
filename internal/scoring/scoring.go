// package scoring implements the pure seed-mode and appendix-mode ranking functions.
package scoring

import (
	"context"
	"math"
	"sort"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/store"
)

const (
	// WeightSeq weights the adjacency (sequential) signal.
	WeightSeq = 1.0
	// WeightCooc weights the co-occurrence signal.
	WeightCooc = 0.7
)

// Mode selects which scoring function Score applies.
type Mode int

const (
	// Seed scores candidates against 1-5 seed tracks using both adjacency and co-occurrence.
	Seed Mode = iota
	// Appendix scores candidates against an entire playlist using co-occurrence only.
	Appendix
)

// NeighborFetcher supplies the edges scoring needs, decoupling this package from the store.
type NeighborFetcher interface {
	NeighborsSeq(trackID models.TrackID) ([]store.SeqNeighbor, error)
	NeighborsCooccur(trackID models.TrackID) ([]store.CooccurNeighbor, error)
}

// Candidate is a scored track prior to ranking.
type Candidate struct {
	TrackID      models.TrackID
	Score        float32
	RawAdjacency int64 // raw edge weight used for tie-breaking: adjacency in Seed mode, co-occurrence in Appendix mode
}

// Score computes candidate scores for the given seeds under mode. The seeds
// themselves are never included as candidates. ctx is polled between seed
// iterations so a cancelled request stops scoring instead of running to
// completion against a client that has already given up.
func Score(ctx context.Context, mode Mode, seeds []models.TrackID, fetcher NeighborFetcher) (map[models.TrackID]*Candidate, error) {
	switch mode {
	case Seed:
		return scoreSeed(ctx, seeds, fetcher)
	case Appendix:
		return scoreAppendix(ctx, seeds, fetcher)
	default:
		return nil, nil
	}
}

func scoreSeed(ctx context.Context, seeds []models.TrackID, fetcher NeighborFetcher) (map[models.TrackID]*Candidate, error) {
	seedSet := toSet(seeds)
	candidates := make(map[models.TrackID]*Candidate)

	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seqNeighbors, err := fetcher.NeighborsSeq(seed)
		if err != nil {
			return nil, err
		}
		coocNeighbors, err := fetcher.NeighborsCooccur(seed)
		if err != nil {
			return nil, err
		}

		seqByTrack := make(map[models.TrackID]int64, len(seqNeighbors))
		var totalSeqWeight int64
		for _, n := range seqNeighbors {
			seqByTrack[n.TrackID] += n.Weight
			totalSeqWeight += n.Weight
		}
		seqDamping := math.Log1p(float64(totalSeqWeight))

		var totalCoocWeight int64
		for _, n := range coocNeighbors {
			totalCoocWeight += n.Weight
		}
		coocDamping := math.Log1p(float64(totalCoocWeight))

		for trackID, rawWeight := range seqByTrack {
			if seedSet[trackID] {
				continue
			}
			c := candidateFor(candidates, trackID)
			if seqDamping > 0 {
				c.Score += float32(WeightSeq * float64(rawWeight) / seqDamping)
			}
			c.RawAdjacency += rawWeight
		}

		for _, n := range coocNeighbors {
			if seedSet[n.TrackID] {
				continue
			}
			c := candidateFor(candidates, n.TrackID)
			if coocDamping > 0 {
				c.Score += float32(WeightCooc * float64(n.Weight) / coocDamping)
			}
		}
	}

	return candidates, nil
}

func scoreAppendix(ctx context.Context, playlist []models.TrackID, fetcher NeighborFetcher) (map[models.TrackID]*Candidate, error) {
	playlistSet := toSet(playlist)
	candidates := make(map[models.TrackID]*Candidate)
	damping := math.Log1p(float64(len(playlist)))

	for _, seed := range playlist {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		coocNeighbors, err := fetcher.NeighborsCooccur(seed)
		if err != nil {
			return nil, err
		}

		for _, n := range coocNeighbors {
			if playlistSet[n.TrackID] {
				continue
			}
			c := candidateFor(candidates, n.TrackID)
			if damping > 0 {
				c.Score += float32(float64(n.Weight) / damping)
			}
			c.RawAdjacency += n.Weight
		}
	}

	return candidates, nil
}

func candidateFor(candidates map[models.TrackID]*Candidate, trackID models.TrackID) *Candidate {
	c, ok := candidates[trackID]
	if !ok {
		c = &Candidate{TrackID: trackID}
		candidates[trackID] = c
	}
	return c
}

func toSet(ids []models.TrackID) map[models.TrackID]bool {
	set := make(map[models.TrackID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Rank sorts candidates by score descending, tie-broken by RawAdjacency
// descending then TrackID ascending, and attaches a 1-based rank.
func Rank(candidates map[models.TrackID]*Candidate) []models.Recommendation {
	list := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		list = append(list, c)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		if list[i].RawAdjacency != list[j].RawAdjacency {
			return list[i].RawAdjacency > list[j].RawAdjacency
		}
		return list[i].TrackID < list[j].TrackID
	})

	out := make([]models.Recommendation, len(list))
	for i, c := range list {
		out[i] = models.Recommendation{
			TrackID: c.TrackID,
			Score:   c.Score,
			Rank:    i + 1,
		}
	}
	return out
}
