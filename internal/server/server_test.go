package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gift-recommender/internal/aggregation"
	"github.com/jonathan/gift-recommender/internal/config"
	"github.com/jonathan/gift-recommender/internal/db"
	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/server/ratelimit"
	"github.com/jonathan/gift-recommender/internal/supplier"
	"github.com/jonathan/gift-recommender/internal/types"
)

var (
	ownerID     = uuid.MustParse("99999999-8888-4777-8666-555555555555")
	vaultID     = uuid.MustParse("11111111-2222-4333-8444-555555555555")
	milestoneID = uuid.MustParse("8d1f6c1e-2a4b-4c3d-9e8f-0a1b2c3d4e5f")
)

func testVault() *types.Vault {
	return &types.Vault{
		ID:     vaultID,
		UserID: ownerID,
		Profile: types.PartnerProfile{
			Interests:             []string{"Travel", "Cooking", "Photography", "Reading", "Coffee"},
			Dislikes:              []string{"Golf", "Sports", "Gaming", "Cars", "Country Music"},
			Vibes:                 []types.Vibe{types.VibeRomantic, types.VibeOutdoorsy},
			PrimaryLoveLanguage:   types.LoveQualityTime,
			SecondaryLoveLanguage: types.LoveReceivingGifts,
		},
		Budgets: []types.BudgetRange{
			{OccasionType: types.OccasionJustBecause, MinCents: 1000, MaxCents: 3000, Currency: "USD"},
			{OccasionType: types.OccasionMinor, MinCents: 2000, MaxCents: 5000, Currency: "USD"},
			{OccasionType: types.OccasionMajorMilestone, MinCents: 5000, MaxCents: 20000, Currency: "USD"},
		},
		Milestones: []types.MilestoneContext{
			{ID: milestoneID, Type: types.MilestoneAnniversary, Name: "Anniversary",
				Date: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), BudgetTier: types.OccasionMajorMilestone},
		},
	}
}

// memoryStore is an in-memory VaultStore.
type memoryStore struct {
	mu       sync.Mutex
	vaults   map[uuid.UUID]*types.Vault
	recs     map[uuid.UUID]db.StoredRecommendation
	feedback map[uuid.UUID]types.RejectionReason
	pingErr  error
	saveErr  error
}

func newMemoryStore() *memoryStore {
	v := testVault()
	return &memoryStore{
		vaults:   map[uuid.UUID]*types.Vault{v.ID: v},
		recs:     map[uuid.UUID]db.StoredRecommendation{},
		feedback: map[uuid.UUID]types.RejectionReason{},
	}
}

func (m *memoryStore) LoadVault(_ context.Context, id, userID uuid.UUID) (*types.Vault, error) {
	v, ok := m.vaults[id]
	if !ok || v.UserID != userID {
		return nil, nil
	}
	return v, nil
}

func (m *memoryStore) SaveRecommendations(_ context.Context, vid uuid.UUID, mid *uuid.UUID, items []types.Candidate) ([]db.StoredRecommendation, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make([]db.StoredRecommendation, 0, len(items))
	for _, c := range items {
		rec := db.StoredRecommendation{ID: uuid.New(), VaultID: vid, MilestoneID: mid, Candidate: c, CreatedAt: time.Now()}
		m.recs[rec.ID] = rec
		saved = append(saved, rec)
	}
	return saved, nil
}

func (m *memoryStore) GetRecommendations(_ context.Context, vid uuid.UUID, ids []uuid.UUID) ([]db.StoredRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.StoredRecommendation
	for _, id := range ids {
		if rec, ok := m.recs[id]; ok && rec.VaultID == vid {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStore) RecordFeedback(_ context.Context, _ uuid.UUID, ids []uuid.UUID, reason types.RejectionReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.feedback[id] = reason
	}
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return m.pingErr }

// stubRecommender returns canned results.
type stubRecommender struct {
	result *pipeline.Result
	err    error
}

func (s *stubRecommender) Generate(context.Context, *types.Vault, types.OccasionType, *uuid.UUID) (*pipeline.Result, error) {
	return s.result, s.err
}

func (s *stubRecommender) Refresh(context.Context, *types.Vault, pipeline.RefreshRequest) (*pipeline.Result, error) {
	return s.result, s.err
}

type testEnv struct {
	server *Server
	store  *memoryStore
	jwt    *JWTService
}

func newTestEnv(t *testing.T, rec Recommender, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	if rec == nil {
		agg := aggregation.New([]supplier.CandidateSupplier{supplier.NewFixture("")}, time.Second, nil)
		rec = pipeline.New(pipeline.Deps{Aggregator: agg})
	}
	if limiter == nil {
		limiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	jwtService := NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 1})
	store := newMemoryStore()

	s, err := New(Config{Port: 0}, Deps{
		Store:       store,
		Recommender: rec,
		Tokens:      jwtService.AsTokenValidator(),
		RateLimiter: limiter,
	})
	require.NoError(t, err)
	return &testEnv{server: s, store: store, jwt: jwtService}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != uuid.Nil {
		token, err := e.jwt.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) RecommendationsResponse {
	t.Helper()
	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

const generatePath = "/vaults/11111111-2222-4333-8444-555555555555/recommendations"

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/health", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	env.store.pingErr = errors.New("connection refused")
	w = env.do(t, http.MethodGet, "/health", nil, uuid.Nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestGenerate_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, generatePath, nil, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, generatePath, GenerateRequest{OccasionType: types.OccasionMinor}, ownerID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decodeResponse(t, w)
	assert.Empty(t, resp.Error)
	require.Len(t, resp.Recommendations, 3)
	assert.NotNil(t, resp.RelevantHints)
	for _, item := range resp.Recommendations {
		assert.NotEqual(t, uuid.Nil, item.RecommendationID)
		assert.NotEmpty(t, item.ID)
		assert.NotEmpty(t, item.Reason)
		assert.True(t, item.Price() >= 2000 && item.Price() <= 5000, item.Title)
	}
	assert.Len(t, env.store.recs, 3)
}

func TestGenerate_EmptyBodyUsesMilestoneTier(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, generatePath, GenerateRequest{MilestoneID: &milestoneID}, ownerID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	require.NotEmpty(t, resp.Recommendations)
	for _, item := range resp.Recommendations {
		assert.GreaterOrEqual(t, item.Price(), 5000)
		stored := env.store.recs[item.RecommendationID]
		require.NotNil(t, stored.MilestoneID)
		assert.Equal(t, milestoneID, *stored.MilestoneID)
	}

	// No body at all is also fine.
	req := httptest.NewRequest(http.MethodPost, generatePath, nil)
	token, err := env.jwt.GenerateToken(ownerID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerate_RequestErrors(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	unknownMilestone := uuid.New()

	tests := []struct {
		name   string
		path   string
		body   any
		user   uuid.UUID
		status int
		errMsg string
	}{
		{"other user's vault", generatePath, nil, uuid.New(), http.StatusNotFound, "vault not found"},
		{"bad vault id", "/vaults/not-a-uuid/recommendations", nil, ownerID, http.StatusBadRequest, "vault_id"},
		{"unknown occasion", generatePath, map[string]string{"occasion_type": "wedding"}, ownerID, http.StatusBadRequest, "occasion_type"},
		{"unknown field", generatePath, map[string]string{"budget": "lots"}, ownerID, http.StatusBadRequest, "invalid JSON"},
		{"unknown milestone", generatePath, GenerateRequest{MilestoneID: &unknownMilestone}, ownerID, http.StatusNotFound, "milestone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body, tt.user)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.errMsg)
		})
	}
}

func TestGenerate_EmptyPoolIsNotAnHTTPError(t *testing.T) {
	env := newTestEnv(t, &stubRecommender{result: &pipeline.Result{
		Items: []types.Candidate{},
		Hints: []types.RelevantHint{},
		Error: pipeline.ErrMsgNoCandidates,
	}}, nil)

	w := env.do(t, http.MethodPost, generatePath, nil, ownerID)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.Equal(t, pipeline.ErrMsgNoCandidates, resp.Error)
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Recommendations)
	assert.Empty(t, env.store.recs)
}

func TestGenerate_PipelineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"invalid stored profile", &pipeline.Error{Kind: pipeline.ErrInvalidProfile, Message: "bad"}, http.StatusUnprocessableEntity, "invalid partner profile"},
		{"internal", errors.New("database exploded"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubRecommender{err: tt.err}, nil)
			w := env.do(t, http.MethodPost, generatePath, nil, ownerID)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "exploded")
		})
	}
}

func TestGenerate_SaveFailure(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.store.saveErr = errors.New("disk full")

	w := env.do(t, http.MethodPost, generatePath, GenerateRequest{OccasionType: types.OccasionMinor}, ownerID)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRefresh_ExcludesRejected(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, generatePath, GenerateRequest{OccasionType: types.OccasionMinor}, ownerID)
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeResponse(t, w)
	require.Len(t, first.Recommendations, 3)

	rejectedIDs := make([]uuid.UUID, 0, 3)
	rejectedCandidates := map[string]bool{}
	for _, item := range first.Recommendations {
		rejectedIDs = append(rejectedIDs, item.RecommendationID)
		rejectedCandidates[item.ID] = true
	}

	w = env.do(t, http.MethodPost, generatePath+"/refresh", RefreshRequest{
		RejectedIDs:     rejectedIDs,
		RejectionReason: types.RejectShowDifferent,
		OccasionType:    types.OccasionMinor,
	}, ownerID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	second := decodeResponse(t, w)
	assert.Empty(t, second.Error)
	require.NotEmpty(t, second.Recommendations)
	for _, item := range second.Recommendations {
		assert.False(t, rejectedCandidates[item.ID], "rejected candidate %s came back", item.ID)
	}
	for _, id := range rejectedIDs {
		assert.Equal(t, types.RejectShowDifferent, env.store.feedback[id])
	}
}

func TestRefresh_RequestErrors(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name   string
		body   any
		status int
		errMsg string
	}{
		{"missing reason", map[string]any{"rejected_recommendation_ids": []uuid.UUID{uuid.New()}}, http.StatusBadRequest, "rejection_reason"},
		{"unknown reason", RefreshRequest{RejectedIDs: []uuid.UUID{uuid.New()}, RejectionReason: "too_loud"}, http.StatusBadRequest, "rejection_reason"},
		{"no ids", RefreshRequest{RejectionReason: types.RejectTooCheap}, http.StatusBadRequest, "rejected_recommendation_ids"},
		{"unknown ids", RefreshRequest{RejectedIDs: []uuid.UUID{uuid.New()}, RejectionReason: types.RejectTooCheap}, http.StatusBadRequest, "no matching recommendations"},
		{"empty body", nil, http.StatusBadRequest, "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, generatePath+"/refresh", tt.body, ownerID)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.errMsg)
		})
	}
}

func TestRateLimit_GenerateEndpoint(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/vaults/{vault_id}/recommendations", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	})
	env := newTestEnv(t, &stubRecommender{result: &pipeline.Result{}}, limiter)

	w := env.do(t, http.MethodPost, generatePath, nil, ownerID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = env.do(t, http.MethodPost, generatePath, nil, ownerID)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// Health is never limited.
	w = env.do(t, http.MethodGet, "/health", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodOptions, generatePath, nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
