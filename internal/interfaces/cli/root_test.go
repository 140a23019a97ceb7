package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--server", serverURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand_RendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/suppliers/sup-1/analyze", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"supplier_id":     "sup-1",
			"status":          "completed",
			"composite_score": 87.3,
			"recommendation":  "prequalified",
			"confidence":      0.9,
		})
	}))
	t.Cleanup(server.Close)

	out, err := executeCommand(t, server.URL, "analyze", "sup-1")
	require.NoError(t, err)
	assert.Contains(t, out, "sup-1")
	assert.Contains(t, out, "87.3")
	assert.Contains(t, out, "prequalified")
}

func TestAnalyzeCommand_BatchForMultipleArgs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyses/batch", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"statuses": []map[string]string{
				{"supplier_id": "sup-1", "status": "queued"},
				{"supplier_id": "ghost", "status": "not_found"},
			},
		})
	}))
	t.Cleanup(server.Close)

	out, err := executeCommand(t, server.URL, "analyze", "sup-1", "ghost")
	require.NoError(t, err)
	assert.Contains(t, out, "queued")
	assert.Contains(t, out, "not_found")
}

func TestAnalyzeCommand_JSONOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"supplier_id": "sup-1",
			"status":      "skipped",
		})
	}))
	t.Cleanup(server.Close)

	out, err := executeCommand(t, server.URL, "analyze", "sup-1", "-o", "json")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "skipped", result["status"])
}

func TestSearchCommand_PassesFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pharma", q.Get("query"))
		assert.Equal(t, "new", q.Get("relation_type"))
		assert.Equal(t, "80", q.Get("min_composite"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"existing_partners": []interface{}{},
			"new_prequalified": []map[string]interface{}{
				{"supplier_id": "sup-1", "company_name": "Acme Pharma", "composite_score": 88.0},
			},
			"needs_review": []interface{}{},
			"total":        1,
		})
	}))
	t.Cleanup(server.Close)

	out, err := executeCommand(t, server.URL, "search", "pharma", "--relation", "new", "--min-composite", "80")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Pharma")
	assert.Contains(t, out, "new_prequalified")
}

func TestRecommendCreateCommand_RequiresFlags(t *testing.T) {
	_, err := executeCommand(t, "http://localhost:1", "recommend", "create", "sup-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestAnalyzeCommand_SurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "SUP_001",
			"message": "supplier not found",
		})
	}))
	t.Cleanup(server.Close)

	_, err := executeCommand(t, server.URL, "analyze", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier not found")
}

func TestFormatTable(t *testing.T) {
	out := formatTable(
		[]string{"ID", "NAME"},
		[][]string{{"1", "Acme"}, {"2", "Bolt Industries"}},
	)
	assert.Contains(t, out, "ID  NAME")
	assert.Contains(t, out, "--  ----")
	assert.Contains(t, out, "2   Bolt Industries")
}

func TestFormatTable_Empty(t *testing.T) {
	assert.Equal(t, "", formatTable(nil, nil))
}
