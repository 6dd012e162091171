// Package similarity implements the three retrieval modes layered on top of
// the retriever's raw vector-ANN hits: deduplicated cases, unmodified raw
// chunks, and per-case grouped bundles.
package similarity

import (
	"context"
	"sort"

	"github.com/lexiq-ai/lexiq/retrieval"
)

// hitSource is the narrow capability the similarity engine needs from a
// retriever. Depending on this instead of *retrieval.Retriever keeps the
// similarity engine's reference to the retriever one-directional and lets
// tests substitute a stub.
type hitSource interface {
	RetrieveWithScores(ctx context.Context, queryText string, k int) ([]retrieval.Hit, error)
}

// Engine implements the three similarity modes over a Retriever. It holds a
// weak reference to the retriever — never the reverse — to avoid a cyclic
// dependency between the two components.
type Engine struct {
	retriever hitSource
}

// New returns an Engine built on top of the given retriever.
func New(r *retrieval.Retriever) *Engine {
	return &Engine{retriever: r}
}

// byDistanceThenOrdinalThenCase sorts hits deterministically: ascending
// distance, then ascending chunk_ordinal, then ascending case key. This is
// the single tie-break rule used by every mode below.
func byDistanceThenOrdinalThenCase(hits []retrieval.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		if hits[i].Chunk.ChunkOrdinal != hits[j].Chunk.ChunkOrdinal {
			return hits[i].Chunk.ChunkOrdinal < hits[j].Chunk.ChunkOrdinal
		}
		return hits[i].Chunk.CaseKey < hits[j].Chunk.CaseKey
	})
}

// DedupedCases is Mode A: the default mode. It returns up to k hits, each
// from a distinct case, ordered ascending by the best (lowest) distance
// found for that case.
func (e *Engine) DedupedCases(ctx context.Context, query string, k int) ([]retrieval.Hit, error) {
	raw, err := e.retriever.RetrieveWithScores(ctx, query, 3*k)
	if err != nil {
		return nil, err
	}
	byDistanceThenOrdinalThenCase(raw)

	best := make(map[string]retrieval.Hit)
	var order []string
	for _, h := range raw {
		key := h.Chunk.CaseKey
		existing, seen := best[key]
		if !seen {
			best[key] = h
			order = append(order, key)
			if len(order) >= k {
				// Hits arrive in ascending distance order, so no later hit
				// can lower an already-held case's distance.
				break
			}
			continue
		}
		if h.Distance < existing.Distance {
			best[key] = h
		}
	}

	out := make([]retrieval.Hit, 0, k)
	for _, key := range order {
		out = append(out, best[key])
		if len(out) >= k {
			break
		}
	}
	byDistanceThenOrdinalThenCase(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// RawChunks is Mode B: the retriever's top-k hits, unchanged, duplicates
// allowed.
func (e *Engine) RawChunks(ctx context.Context, query string, k int) ([]retrieval.Hit, error) {
	return e.retriever.RetrieveWithScores(ctx, query, k)
}

// CaseGroup is one per-case bundle returned by Grouped (Mode C): the hits
// for a single case, sorted by distance and truncated to maxChunksPerCase.
type CaseGroup struct {
	CaseKey      string
	Hits         []retrieval.Hit
	BestDistance float64
}

// Grouped is Mode C: the top kCases groups, each holding up to
// maxChunksPerCase hits for that case, ordered by the case's best distance.
func (e *Engine) Grouped(ctx context.Context, query string, kCases, maxChunksPerCase int) ([]CaseGroup, error) {
	raw, err := e.retriever.RetrieveWithScores(ctx, query, kCases*maxChunksPerCase*3)
	if err != nil {
		return nil, err
	}
	byDistanceThenOrdinalThenCase(raw)

	groupIndex := make(map[string]int)
	var groups []CaseGroup
	for _, h := range raw {
		key := h.Chunk.CaseKey
		idx, ok := groupIndex[key]
		if !ok {
			groups = append(groups, CaseGroup{CaseKey: key})
			idx = len(groups) - 1
			groupIndex[key] = idx
		}
		groups[idx].Hits = append(groups[idx].Hits, h)
	}

	for i := range groups {
		byDistanceThenOrdinalThenCase(groups[i].Hits)
		if len(groups[i].Hits) > maxChunksPerCase {
			groups[i].Hits = groups[i].Hits[:maxChunksPerCase]
		}
		groups[i].BestDistance = groups[i].Hits[0].Distance
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].BestDistance != groups[j].BestDistance {
			return groups[i].BestDistance < groups[j].BestDistance
		}
		return groups[i].CaseKey < groups[j].CaseKey
	})

	if len(groups) > kCases {
		groups = groups[:kCases]
	}
	return groups, nil
}
