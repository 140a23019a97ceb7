package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Analyze_BuildsPathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(AnalysisResult{SupplierID: "sup-1", Status: "queued"})
	})

	result, err := c.Analyze(context.Background(), "sup-1", true, true)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/suppliers/sup-1/analyze", gotPath)
	assert.Contains(t, gotQuery, "force=true")
	assert.Contains(t, gotQuery, "async=true")
	assert.Equal(t, "queued", result.Status)
}

func TestClient_Analyze_RequiresSupplierID(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, err = c.Analyze(context.Background(), "", false, false)
	assert.Error(t, err)
}

func TestClient_AnalyzeBatch(t *testing.T) {
	var gotBody map[string][]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"statuses": []BatchStatus{
				{SupplierID: "sup-1", Status: "queued"},
				{SupplierID: "ghost", Status: "not_found"},
			},
		})
	})

	statuses, err := c.AnalyzeBatch(context.Background(), []string{"sup-1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sup-1", "ghost"}, gotBody["supplier_ids"])
	require.Len(t, statuses, 2)
	assert.Equal(t, "not_found", statuses[1].Status)
}

func TestClient_Search_EncodesParams(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(SearchResult{Total: 1, NewPrequalified: []SearchItem{
			{SupplierID: "sup-1", CompositeScore: 88.5, Recommendation: "prequalified"},
		}})
	})

	result, err := c.Search(context.Background(), SearchParams{
		Query:        "pharma",
		RelationType: "new",
		MinComposite: 80,
		Limit:        10,
	})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "query=pharma")
	assert.Contains(t, gotQuery, "relation_type=new")
	assert.Contains(t, gotQuery, "min_composite=80")
	assert.Contains(t, gotQuery, "limit=10")
	require.Len(t, result.NewPrequalified, 1)
	assert.Equal(t, 88.5, result.NewPrequalified[0].CompositeScore)
}

func TestClient_RecommendationLifecycle(t *testing.T) {
	now := time.Now().UTC()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/recommendations", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Recommendation{
			ID:            "rec-1",
			SupplierID:    body["supplier_id"],
			RecommendedBy: body["actor"],
			Type:          body["type"],
			Status:        "pending",
			CreatedAt:     now,
		})
	})
	mux.HandleFunc("POST /api/v1/recommendations/rec-1/review", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Recommendation{ID: "rec-1", Status: "approved", ReviewedBy: "manager"})
	})
	mux.HandleFunc("GET /api/v1/recommendations/pending", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"recommendations": []Recommendation{{ID: "rec-1", Status: "pending"}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL)
	require.NoError(t, err)

	rec, err := c.CreateRecommendation(context.Background(), "sup-1", "analyst", "audit", "verify gmp")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "analyst", rec.RecommendedBy)

	pending, err := c.PendingRecommendations(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	reviewed, err := c.ReviewRecommendation(context.Background(), "rec-1", "approve", "manager", "")
	require.NoError(t, err)
	assert.Equal(t, "approved", reviewed.Status)
}
