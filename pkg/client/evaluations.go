package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// AnalysisResult is the outcome of a single supplier analysis.
type AnalysisResult struct {
	SupplierID     string  `json:"supplier_id"`
	Status         string  `json:"status"`
	CompositeScore float64 `json:"composite_score,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// BatchStatus is the dispatch status for one supplier in a batch request.
type BatchStatus struct {
	SupplierID string `json:"supplier_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// CriterionScores holds the six weighted criterion scores.
type CriterionScores struct {
	Certifications   float64 `json:"certifications"`
	Experience       float64 `json:"experience"`
	Documentation    float64 `json:"documentation"`
	Capacity         float64 `json:"capacity"`
	Price            float64 `json:"price"`
	GeopoliticalRisk float64 `json:"geopolitical_risk"`
}

// SearchItem is one row of a search result.
type SearchItem struct {
	SupplierID     string          `json:"supplier_id"`
	CompanyName    string          `json:"company_name"`
	Country        string          `json:"country,omitempty"`
	RelationType   string          `json:"relation_type"`
	Scores         CriterionScores `json:"scores"`
	CompositeScore float64         `json:"composite_score"`
	Confidence     float64         `json:"confidence"`
	Recommendation string          `json:"recommendation"`
	State          string          `json:"state"`
	LastAnalyzedAt *time.Time      `json:"last_analyzed_at,omitempty"`
}

// SearchResult groups matches into the three review buckets.
type SearchResult struct {
	ExistingPartners []SearchItem `json:"existing_partners"`
	NewPrequalified  []SearchItem `json:"new_prequalified"`
	NeedsReview      []SearchItem `json:"needs_review"`
	Total            int          `json:"total"`
}

// SearchParams narrows a supplier search.  Zero values mean "no constraint".
type SearchParams struct {
	Query          string
	RelationType   string
	Recommendation string
	State          string
	Country        string
	MinComposite   float64
	Limit          int
	Offset         int
}

// DashboardStats is the aggregate view backing the operations dashboard.
type DashboardStats struct {
	TotalSuppliers         int64            `json:"total_suppliers"`
	TotalAnalyzed          int64            `json:"total_analyzed"`
	CoveragePercent        float64          `json:"coverage_percent"`
	ByRecommendation       map[string]int64 `json:"by_recommendation"`
	ByRelation             map[string]int64 `json:"by_relation"`
	PendingRecommendations int64            `json:"pending_recommendations"`
	GeneratedAt            time.Time        `json:"generated_at"`
}

// Recommendation is a prequalification recommendation under review.
type Recommendation struct {
	ID            string     `json:"id"`
	EvaluationID  string     `json:"evaluation_id"`
	SupplierID    string     `json:"supplier_id"`
	RecommendedBy string     `json:"recommended_by"`
	Type          string     `json:"type"`
	Priority      string     `json:"priority"`
	Justification string     `json:"justification"`
	Status        string     `json:"status"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes   string     `json:"review_notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Analyze runs (or queues, with async) an evaluation of one supplier.
func (c *Client) Analyze(ctx context.Context, supplierID string, force, async bool) (*AnalysisResult, error) {
	if supplierID == "" {
		return nil, fmt.Errorf("client: supplierID is required")
	}
	q := url.Values{}
	if force {
		q.Set("force", "true")
	}
	if async {
		q.Set("async", "true")
	}
	path := "/api/v1/suppliers/" + url.PathEscape(supplierID) + "/analyze"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result AnalysisResult
	if err := c.post(ctx, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeBatch queues evaluation of several suppliers.
func (c *Client) AnalyzeBatch(ctx context.Context, supplierIDs []string) ([]BatchStatus, error) {
	if len(supplierIDs) == 0 {
		return nil, fmt.Errorf("client: supplierIDs is required")
	}
	body := map[string]interface{}{"supplier_ids": supplierIDs}
	var resp struct {
		Statuses []BatchStatus `json:"statuses"`
	}
	if err := c.post(ctx, "/api/v1/analyses/batch", body, &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

// Search returns evaluations bucketed for the review board.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q := url.Values{}
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	if params.RelationType != "" {
		q.Set("relation_type", params.RelationType)
	}
	if params.Recommendation != "" {
		q.Set("recommendation", params.Recommendation)
	}
	if params.State != "" {
		q.Set("state", params.State)
	}
	if params.Country != "" {
		q.Set("country", params.Country)
	}
	if params.MinComposite > 0 {
		q.Set("min_composite", strconv.FormatFloat(params.MinComposite, 'f', -1, 64))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	path := "/api/v1/evaluations/search"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result SearchResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DashboardStats returns aggregate evaluation statistics.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.get(ctx, "/api/v1/dashboard/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateRecommendation opens a recommendation for review.
func (c *Client) CreateRecommendation(ctx context.Context, supplierID, actor, recType, justification string) (*Recommendation, error) {
	body := map[string]string{
		"supplier_id":   supplierID,
		"actor":         actor,
		"type":          recType,
		"justification": justification,
	}
	var rec Recommendation
	if err := c.post(ctx, "/api/v1/recommendations", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReviewRecommendation applies a reviewer decision.
func (c *Client) ReviewRecommendation(ctx context.Context, recommendationID, decision, reviewer, notes string) (*Recommendation, error) {
	if recommendationID == "" {
		return nil, fmt.Errorf("client: recommendationID is required")
	}
	body := map[string]string{
		"decision": decision,
		"reviewer": reviewer,
		"notes":    notes,
	}
	var rec Recommendation
	path := "/api/v1/recommendations/" + url.PathEscape(recommendationID) + "/review"
	if err := c.post(ctx, path, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PendingRecommendations returns the review queue.
func (c *Client) PendingRecommendations(ctx context.Context) ([]Recommendation, error) {
	var resp struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := c.get(ctx, "/api/v1/recommendations/pending", &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}
