package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gift-recommender/internal/types"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	return f.vector, f.err
}

// blockingEmbedder hangs until its context ends.
type blockingEmbedder struct{}

func (blockingEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeStore struct {
	semantic    []types.RelevantHint
	semanticErr error
	recent      []types.RelevantHint
	recentErr   error

	gotLimit     int
	gotThreshold float64
	recentCalls  int
}

func (f *fakeStore) SemanticSearch(_ context.Context, _ uuid.UUID, _ []float32, limit int, threshold float64) ([]types.RelevantHint, error) {
	f.gotLimit = limit
	f.gotThreshold = threshold
	return f.semantic, f.semanticErr
}

func (f *fakeStore) RecentHints(_ context.Context, _ uuid.UUID, limit int) ([]types.RelevantHint, error) {
	f.recentCalls++
	f.gotLimit = limit
	return f.recent, f.recentErr
}

func vec() []float32 {
	return make([]float32, EmbeddingDimensions)
}

func hint(text string, similarity float64) types.RelevantHint {
	return types.RelevantHint{ID: uuid.New(), Text: text, Similarity: similarity, Source: types.HintSourceText, CreatedAt: time.Now()}
}

func TestBuildQuery(t *testing.T) {
	profile := &types.PartnerProfile{Interests: []string{"Travel", "Cooking", "Photography", "Reading", "Coffee"}}
	milestone := &types.MilestoneContext{Name: "Sarah's Birthday", Type: types.MilestoneBirthday}

	q := BuildQuery(profile, types.OccasionMajorMilestone, milestone)
	assert.Equal(t, "Sarah's Birthday birthday a major milestone Travel Cooking Photography", q)

	q = BuildQuery(profile, types.OccasionJustBecause, nil)
	assert.Equal(t, "just because Travel Cooking Photography", q)
}

func TestRetrieve_Semantic(t *testing.T) {
	store := &fakeStore{semantic: []types.RelevantHint{hint("loves ceramics", 0.82)}}
	embedder := &fakeEmbedder{vector: vec()}

	hints := NewRetriever(embedder, store).Retrieve(context.Background(), uuid.New(), "birthday pottery")

	require.Len(t, hints, 1)
	assert.Equal(t, 0.82, hints[0].Similarity)
	assert.Equal(t, DefaultLimit, store.gotLimit)
	assert.Equal(t, DefaultThreshold, store.gotThreshold)
	assert.Equal(t, 0, store.recentCalls)
	assert.Equal(t, []string{"birthday pottery"}, embedder.calls)
}

func TestRetrieve_EmbedderFailureFallsBack(t *testing.T) {
	store := &fakeStore{recent: []types.RelevantHint{hint("wants a new espresso machine", 0.5)}}
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}

	hints := NewRetriever(embedder, store).Retrieve(context.Background(), uuid.New(), "query")

	require.Len(t, hints, 1)
	assert.Equal(t, 0.0, hints[0].Similarity)
	assert.Equal(t, 1, store.recentCalls)
}

func TestRetrieve_SearchFailureFallsBack(t *testing.T) {
	store := &fakeStore{semanticErr: errors.New("db down"), recent: []types.RelevantHint{hint("a", 0)}}

	hints := NewRetriever(&fakeEmbedder{vector: vec()}, store).Retrieve(context.Background(), uuid.New(), "query")

	assert.Len(t, hints, 1)
	assert.Equal(t, 1, store.recentCalls)
}

func TestRetrieve_WrongDimensionsFallsBack(t *testing.T) {
	store := &fakeStore{recent: []types.RelevantHint{hint("a", 0)}}

	hints := NewRetriever(&fakeEmbedder{vector: []float32{1, 2, 3}}, store).Retrieve(context.Background(), uuid.New(), "query")

	assert.Len(t, hints, 1)
	assert.Equal(t, 1, store.recentCalls)
}

func TestRetrieve_NoEmbedder(t *testing.T) {
	store := &fakeStore{recent: []types.RelevantHint{hint("a", 0), hint("b", 0)}}

	hints := NewRetriever(nil, store, WithLimit(5)).Retrieve(context.Background(), uuid.New(), "query")

	assert.Len(t, hints, 2)
	assert.Equal(t, 5, store.gotLimit)
}

func TestRetrieve_FallbackFailureIsEmpty(t *testing.T) {
	store := &fakeStore{semanticErr: errors.New("db down"), recentErr: errors.New("still down")}

	hints := NewRetriever(&fakeEmbedder{vector: vec()}, store).Retrieve(context.Background(), uuid.New(), "query")

	assert.NotNil(t, hints)
	assert.Empty(t, hints)
}

func TestRetrieve_EmptySemanticResultIsNotFallback(t *testing.T) {
	store := &fakeStore{recent: []types.RelevantHint{hint("a", 0)}}

	hints := NewRetriever(&fakeEmbedder{vector: vec()}, store, WithThreshold(0.5)).Retrieve(context.Background(), uuid.New(), "query")

	assert.Empty(t, hints)
	assert.Equal(t, 0.5, store.gotThreshold)
	assert.Equal(t, 0, store.recentCalls)
}

func TestRetrieve_SlowEmbedderFallsBackWithinTimeout(t *testing.T) {
	store := &fakeStore{recent: []types.RelevantHint{hint("saving up for a film camera", 0)}}
	r := NewRetriever(blockingEmbedder{}, store, WithTimeout(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	hints := r.Retrieve(ctx, uuid.New(), "query")

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, hints, 1)
	assert.Equal(t, 1, store.recentCalls)
	assert.NoError(t, ctx.Err())
}
