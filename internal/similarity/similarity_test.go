package similarity

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rapantix/internal/types"
)

func TestClampTopN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ClampTopN(0))
	assert.Equal(t, 1, ClampTopN(-5))
	assert.Equal(t, 15, ClampTopN(15))
	assert.Equal(t, MaxTopN, ClampTopN(500))
}

func TestHTTPScorer_Similar(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/similar", r.URL.Path)
		var req types.SimilarRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "feu", req.Word)
		assert.Equal(t, MaxTopN, req.TopN)
		_ = json.NewEncoder(w).Encode(types.SimilarResponse{
			Origin:     "word2vec",
			Normalized: "feu",
			Results:    []types.SimilarWord{{Term: "flamme", Score: 0.81}},
		})
	}))
	defer srv.Close()

	got, err := NewHTTPScorer(srv.URL+"/", 0, nil).Similar(context.Background(), "feu", 100)
	require.NoError(t, err)
	assert.Equal(t, []types.SimilarWord{{Term: "flamme", Score: 0.81}}, got)
}

func TestHTTPScorer_MissingScore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"term":"ville"},{"term":"cite","score":null},{"term":"rue","score":0.4}]}`))
	}))
	defer srv.Close()

	got, err := NewHTTPScorer(srv.URL, 0, nil).Similar(context.Background(), "quartier", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, math.IsNaN(got[0].Score))
	assert.True(t, math.IsNaN(got[1].Score))
	assert.InDelta(t, 0.4, got[2].Score, 1e-9)

	data, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"term":"ville","score":null}`, string(data))
}

func TestHTTPScorer_Failures(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	_, err := NewHTTPScorer(bad.URL, 0, nil).Similar(context.Background(), "feu", 5)
	assert.ErrorIs(t, err, ErrUnavailable)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer garbage.Close()
	_, err = NewHTTPScorer(garbage.URL, 0, nil).Similar(context.Background(), "feu", 5)
	assert.ErrorIs(t, err, ErrUnavailable)

	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()
	_, err = NewHTTPScorer(url, 0, nil).Similar(context.Background(), "feu", 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseNeighbours(t *testing.T) {
	t.Parallel()

	got, err := parseNeighbours(` [{"term":"flamme","score":0.8},{"term":" ","score":0.9},{"term":"brasier","score":1.4},{"term":"cendre","score":-1}] `, 10)
	require.NoError(t, err)
	assert.Equal(t, []types.SimilarWord{
		{Term: "flamme", Score: 0.8},
		{Term: "brasier", Score: 1},
		{Term: "cendre", Score: 0},
	}, got)

	got, err = parseNeighbours(`[{"term":"a","score":0.1},{"term":"b","score":0.2}]`, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = parseNeighbours("", 5)
	assert.Error(t, err)
	_, err = parseNeighbours("not json", 5)
	assert.Error(t, err)
}

func TestNewGeminiScorer_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiScorer(context.Background(), GeminiConfig{}, nil)
	assert.Error(t, err)
}
