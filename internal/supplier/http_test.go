package supplier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gift-recommender/internal/types"
)

func TestHTTP_FetchGifts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gifts", r.URL.Path)
		assert.Equal(t, []string{"Travel", "Coffee"}, r.URL.Query()["interest"])
		assert.Equal(t, "2000", r.URL.Query().Get("min_cents"))
		assert.Equal(t, "5000", r.URL.Query().Get("max_cents"))
		assert.Equal(t, "USD", r.URL.Query().Get("currency"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(catalogResponse{Items: []types.Candidate{
			{ID: "g1", Title: "Pour-Over Kit", PriceCents: types.Cents(3500), Currency: "USD",
				Provenance: types.Provenance{MatchedInterest: "Coffee"}},
			{ID: "", Title: "missing id"},
			{ID: "g2", Title: "  "},
		}})
	}))
	defer server.Close()

	s := NewHTTP("acme", server.URL+"/", server.Client())
	gifts, err := s.FetchGifts(context.Background(), []string{"Travel", "Coffee"}, budget)
	require.NoError(t, err)

	require.Len(t, gifts, 1)
	assert.Equal(t, "acme", gifts[0].Source)
	assert.Equal(t, types.CandidateGift, gifts[0].Type)
	assert.Equal(t, "Coffee", gifts[0].Provenance.MatchedInterest)
	assert.Equal(t, 3500, gifts[0].Price())
}

func TestHTTP_FetchExperiences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/experiences", r.URL.Path)
		assert.Equal(t, []string{"romantic"}, r.URL.Query()["vibe"])
		assert.Equal(t, "Denver", r.URL.Query().Get("city"))
		assert.False(t, r.URL.Query().Has("state"))

		_, _ = w.Write([]byte(`{"items":[{"id":"e1","title":"Wine Tasting","type":"date","source":"vendor"}]}`))
	}))
	defer server.Close()

	s := NewHTTP("", server.URL, nil)
	exps, err := s.FetchExperiences(context.Background(), []types.Vibe{types.VibeRomantic}, budget, &types.Location{City: "Denver"})
	require.NoError(t, err)

	require.Len(t, exps, 1)
	assert.Equal(t, types.CandidateDate, exps[0].Type)
	assert.Equal(t, "vendor", exps[0].Source)
	assert.Equal(t, "http", s.Name())
}

func TestHTTP_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gifts" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	s := NewHTTP("acme", server.URL, server.Client())

	_, err := s.FetchGifts(context.Background(), nil, budget)
	var supErr *Error
	require.True(t, errors.As(err, &supErr))
	assert.Equal(t, "acme", supErr.Supplier)
	assert.Contains(t, err.Error(), "503")

	_, err = s.FetchExperiences(context.Background(), nil, budget, nil)
	assert.ErrorContains(t, err, "failed to decode response")
}
