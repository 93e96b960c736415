package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EduConnect/pkg/logger"
)

// fakeEmbedder returns canned vectors and counts Embed calls so tests can
// assert which lookups touch the embedding provider.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// memStore keeps the snapshot in memory and can be told to fail.
type memStore struct {
	snap    *Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load() (*Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snap == nil {
		return &Snapshot{}, nil
	}
	return m.snap, nil
}

func (m *memStore) Save(snap *Snapshot) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	return nil
}

func testLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("cache-test", "")
}

func TestNewStartsEmptyOnMismatchedSnapshot(t *testing.T) {
	store := &memStore{snap: &Snapshot{
		Questions:  []string{"a", "b"},
		Embeddings: [][]float32{{1}},
		Answers:    []string{"x", "y"},
	}}

	c := New(store, &fakeEmbedder{}, 0.85, testLogger())
	assert.Equal(t, 0, c.Len())
}

func TestNewStartsEmptyOnLoadError(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk gone")}

	c := New(store, &fakeEmbedder{}, 0.85, testLogger())
	assert.Equal(t, 0, c.Len())
}

func TestExactMatchDoesNotEmbed(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{snap: &Snapshot{
		Questions:  []string{"What is photosynthesis"},
		Embeddings: [][]float32{{1, 0, 0}},
		Answers:    []string{"A process plants use to make food."},
	}}
	c := New(store, emb, 0.85, testLogger())

	answer, ok := c.ExactMatch("What is photosynthesis")
	require.True(t, ok)
	assert.Equal(t, "A process plants use to make food.", answer)
	assert.Equal(t, 0, emb.calls, "exact match must not compute embeddings")

	_, ok = c.ExactMatch("What is photosynthesis?")
	assert.False(t, ok, "exact match is verbatim only")
}

func TestAddThenExactMatch(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{}
	c := New(store, emb, 0.85, testLogger())

	require.NoError(t, c.Add(context.Background(), "What is recursion", "A function calling itself."))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, store.saves)

	answer, ok := c.ExactMatch("What is recursion")
	require.True(t, ok)
	assert.Equal(t, "A function calling itself.", answer)
}

func TestAddEmbeddingFailureLeavesCacheUnchanged(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("provider down")}
	store := &memStore{}
	c := New(store, emb, 0.85, testLogger())

	err := c.Add(context.Background(), "question", "answer")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, store.saves)
}

func TestAddSurvivesPersistenceFailure(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &memStore{saveErr: errors.New("read-only filesystem")}
	c := New(store, emb, 0.85, testLogger())

	require.NoError(t, c.Add(context.Background(), "q", "a"))
	assert.Equal(t, 1, c.Len(), "in-memory append is kept even when persistence fails")
}

func TestFindSimilarEmptyCacheSkipsEmbedding(t *testing.T) {
	emb := &fakeEmbedder{}
	c := New(&memStore{}, emb, 0.85, testLogger())

	_, _, ok := c.FindSimilar(context.Background(), "anything")
	assert.False(t, ok)
	assert.Equal(t, 0, emb.calls)
}

func TestFindSimilarHitAboveThreshold(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"Explain the process of photosynthesis": {0.9, 0.1, 0},
	}}
	store := &memStore{snap: &Snapshot{
		Questions:  []string{"Tell me about photosynthesis"},
		Embeddings: [][]float32{{1, 0, 0}},
		Answers:    []string{"Plants convert light into chemical energy."},
	}}
	c := New(store, emb, 0.85, testLogger())

	answer, score, ok := c.FindSimilar(context.Background(), "Explain the process of photosynthesis")
	require.True(t, ok)
	assert.Equal(t, "Plants convert light into chemical energy.", answer)
	assert.GreaterOrEqual(t, score, 0.85)
}

func TestFindSimilarMissBelowThreshold(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"something about photosynthesis": {0, 1, 0},
	}}
	store := &memStore{snap: &Snapshot{
		Questions:  []string{"Tell me about photosynthesis"},
		Embeddings: [][]float32{{1, 0, 0}},
		Answers:    []string{"cached"},
	}}
	c := New(store, emb, 0.85, testLogger())

	_, score, ok := c.FindSimilar(context.Background(), "something about photosynthesis")
	assert.False(t, ok)
	assert.Less(t, score, 0.85)
}

func TestFindSimilarTopicPreFilterSkipsUnrelatedEntries(t *testing.T) {
	// The cached entry is an identical vector, but its topic shares no
	// substring with the query topic, so it is never scored.
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"Tell me about thermodynamics": {1, 0, 0},
	}}
	store := &memStore{snap: &Snapshot{
		Questions:  []string{"Tell me about photosynthesis"},
		Embeddings: [][]float32{{1, 0, 0}},
		Answers:    []string{"cached"},
	}}
	c := New(store, emb, 0.85, testLogger())

	_, score, ok := c.FindSimilar(context.Background(), "Tell me about thermodynamics")
	assert.False(t, ok)
	assert.Zero(t, score)
}

func TestFindSimilarEmbeddingFailureIsAMiss(t *testing.T) {
	store := &memStore{snap: &Snapshot{
		Questions:  []string{"q"},
		Embeddings: [][]float32{{1}},
		Answers:    []string{"a"},
	}}
	c := New(store, &fakeEmbedder{err: errors.New("provider down")}, 0.85, testLogger())

	_, _, ok := c.FindSimilar(context.Background(), "q variant")
	assert.False(t, ok)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Malformed vectors score zero instead of panicking.
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
