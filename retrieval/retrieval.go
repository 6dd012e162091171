// Package retrieval embeds a query and runs top-k approximate nearest
// neighbor search against the vector index, returning full Chunk metadata
// alongside raw distances. It is the only place downstream components read
// metadata out of the index.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexiq-ai/lexiq/llm"
	"github.com/lexiq-ai/lexiq/store"
)

// ErrIndexNotReady is returned when the retriever is asked to search before
// its store handle has been opened.
var ErrIndexNotReady = errors.New("retrieval: index not ready")

// Retriever performs vector-ANN search over the chunk index. It holds a
// read-only handle to the store; only the Vector Index itself may write.
type Retriever struct {
	store    *store.Store
	embedder llm.Provider
}

// New creates a Retriever. store may be nil to represent an unopened index;
// Retrieve/RetrieveWithScores will then return ErrIndexNotReady.
func New(s *store.Store, embedder llm.Provider) *Retriever {
	return &Retriever{store: s, embedder: embedder}
}

// Hit is a single retrieval result: a chunk and its distance from the query.
type Hit struct {
	Chunk    store.Chunk
	Distance float64
}

// Retrieve embeds queryText with the same embedding function used at ingest
// time and returns the top-k nearest chunks, ascending by distance.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, k int) ([]Hit, error) {
	return r.RetrieveWithScores(ctx, queryText, k)
}

// RetrieveWithScores is identical to Retrieve; distances are always
// included on Hit, so there is no reduced variant to fall back to.
func (r *Retriever) RetrieveWithScores(ctx context.Context, queryText string, k int) ([]Hit, error) {
	if r.store == nil {
		return nil, ErrIndexNotReady
	}

	embeddings, err := r.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding query: empty vector returned")
	}

	results, err := r.store.VectorSearch(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, res := range results {
		hits[i] = Hit{Chunk: res.Chunk, Distance: res.Distance}
	}
	slog.Debug("retrieval: search complete", "k", k, "hits", len(hits))
	return hits, nil
}

// RetrieveByCitation runs a vector search with a citation string as the query
// and returns the top-k hits; it does not check whether any hit's citation
// metadata contains the string.
func (r *Retriever) RetrieveByCitation(ctx context.Context, citation string, k int) ([]Hit, error) {
	return r.RetrieveWithScores(ctx, citation, k)
}

// FollowUpSuggestions ranks chunks by full-text relevance to topic, for the
// chat engine's optional session-topic follow-up suggestion step. This is
// never part of the core retrieval contract and is not used by the
// similarity engine.
func (r *Retriever) FollowUpSuggestions(ctx context.Context, topic string, limit int) ([]Hit, error) {
	if r.store == nil {
		return nil, ErrIndexNotReady
	}

	translated := extractSignificantTerms(topic)
	ftsQuery := sanitizeFTSQuery(topic, nil)
	if detectIdentifiers(topic) {
		slog.Debug("retrieval: identifiers detected in follow-up topic", "topic", topic)
	}
	_ = translated // significant terms already folded into ftsQuery via sanitizeFTSQuery

	if isSynthesisQuery(topic) {
		limit *= 2
	}

	results, err := r.store.FTSSearch(ctx, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("follow-up fts search: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, res := range results {
		hits[i] = Hit{Chunk: res.Chunk, Distance: res.Distance}
	}
	return hits, nil
}
