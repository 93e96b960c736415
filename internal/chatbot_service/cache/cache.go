package cache

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"EduConnect/internal/embedding"
	"EduConnect/pkg/logger"
)

// SemanticCache is an append-only store of (question, embedding, answer)
// triples supporting exact-match and similarity-based lookup. The three
// parallel slices always have equal length; index i in each refers to the
// same logical entry. Entries are never updated or evicted.
//
// All methods are safe for concurrent use. The mutex also serializes the
// append-then-persist sequence in Add so concurrent writers cannot corrupt
// the persisted snapshot.
type SemanticCache struct {
	mu         sync.RWMutex
	questions  []string
	embeddings [][]float32
	answers    []string

	store     Store
	embedder  embedding.Embedding
	threshold float64
	log       *logger.Logger
}

// New loads the persisted snapshot from store and returns a ready cache.
// An unreadable or inconsistent snapshot is logged and replaced by an
// empty cache; it never fails construction.
func New(store Store, embedder embedding.Embedding, threshold float64, log *logger.Logger) *SemanticCache {
	c := &SemanticCache{
		store:     store,
		embedder:  embedder,
		threshold: threshold,
		log:       log,
	}

	snap, err := store.Load()
	if err != nil {
		log.Error(fmt.Sprintf("Failed to load cache snapshot, starting empty: %v", err))
		return c
	}
	if len(snap.Questions) != len(snap.Embeddings) || len(snap.Questions) != len(snap.Answers) {
		log.Error(fmt.Sprintf("Cache snapshot arrays have mismatched lengths (%d/%d/%d), starting empty",
			len(snap.Questions), len(snap.Embeddings), len(snap.Answers)))
		return c
	}

	c.questions = snap.Questions
	c.embeddings = snap.Embeddings
	c.answers = snap.Answers
	log.Info(fmt.Sprintf("Loaded %d cached questions", len(c.questions)))
	return c
}

// Len returns the number of cached entries.
func (c *SemanticCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.questions)
}

// ExactMatch performs a linear scan for the verbatim question and returns
// the stored answer. No embedding computation happens here.
func (c *SemanticCache) ExactMatch(question string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, q := range c.questions {
		if q == question {
			return c.answers[i], true
		}
	}
	return "", false
}

// FindSimilar looks for a cached question semantically close to the given
// one. It returns the cached answer and the best cosine similarity seen.
//
// Only entries whose extracted topic overlaps the query's topic (symmetric
// substring containment) are scored; this is a cheap pre-filter, not the
// similarity measure, and it limits recall for differently-worded topics.
// Embedding failures are logged and reported as a miss, never propagated.
func (c *SemanticCache) FindSimilar(ctx context.Context, question string) (string, float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.questions) == 0 {
		c.log.Debug("Cache is empty, skipping similarity search")
		return "", 0, false
	}

	queryTopic := ExtractTopic(question)
	c.log.Debug(fmt.Sprintf("Extracted topic: %s", queryTopic))

	queryEmbedding, err := c.embedder.Embed(ctx, question)
	if err != nil {
		c.log.Error(fmt.Sprintf("Failed to embed query for similarity search: %v", err))
		return "", 0, false
	}

	bestIdx := -1
	var bestScore float64
	for i, cached := range c.questions {
		cachedTopic := ExtractTopic(cached)

		// Topic pre-filter: skip entries with no topic overlap.
		if !strings.Contains(queryTopic, cachedTopic) && !strings.Contains(cachedTopic, queryTopic) {
			continue
		}

		score := cosineSimilarity(queryEmbedding, c.embeddings[i])
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx >= 0 && bestScore >= c.threshold {
		c.log.Info(fmt.Sprintf("Most similar cached question: '%s' with similarity %.4f", c.questions[bestIdx], bestScore))
		return c.answers[bestIdx], bestScore, true
	}

	c.log.Info(fmt.Sprintf("No good cache match, best similarity was %.4f", bestScore))
	return "", bestScore, false
}

// Add embeds the question, appends the triple to all three slices and
// persists the whole snapshot. A persistence failure is logged but does
// not roll back the in-memory append, so memory and disk can diverge
// until the next successful save.
func (c *SemanticCache) Add(ctx context.Context, question, answer string) error {
	emb, err := c.embedder.Embed(ctx, question)
	if err != nil {
		return fmt.Errorf("failed to embed question for caching: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.questions = append(c.questions, question)
	c.embeddings = append(c.embeddings, emb)
	c.answers = append(c.answers, answer)

	snap := &Snapshot{
		Questions:  c.questions,
		Embeddings: c.embeddings,
		Answers:    c.answers,
	}
	if err := c.store.Save(snap); err != nil {
		c.log.Error(fmt.Sprintf("Failed to persist cache: %v", err))
	}

	c.log.Info(fmt.Sprintf("Added question to cache: %.50s", question))
	return nil
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched dimensions or a zero-norm vector score 0, which silently
// excludes malformed stored vectors from matching.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
