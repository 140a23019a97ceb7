// Package evaluation implements the analysis pipeline: scoring, confidence
// estimation, classification, orchestration and search over supplier
// evaluations.
package evaluation

import (
	"sort"
	"strings"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
)

// CriterionWeights is the fixed weight vector of the grading scheme.
// The six weights sum to exactly 1.0.
type CriterionWeights struct {
	Certifications   float64
	Experience       float64
	Documentation    float64
	Capacity         float64
	Price            float64
	GeopoliticalRisk float64
}

// Weights is the canonical grading weight vector.
var Weights = CriterionWeights{
	Certifications:   0.35,
	Experience:       0.20,
	Documentation:    0.15,
	Capacity:         0.15,
	Price:            0.10,
	GeopoliticalRisk: 0.05,
}

// AsSlice returns the weights in criterion order.
func (w CriterionWeights) AsSlice() []float64 {
	return []float64{w.Certifications, w.Experience, w.Documentation, w.Capacity, w.Price, w.GeopoliticalRisk}
}

// Sum returns the total of the weight vector.
func (w CriterionWeights) Sum() float64 {
	total := 0.0
	for _, v := range w.AsSlice() {
		total += v
	}
	return total
}

// Experience sub-factor weights.
const (
	subWeightCompanyAge    = 0.10
	subWeightMarkets       = 0.30
	subWeightInstitutional = 0.25
	subWeightCompliance    = 0.25
	subWeightReputation    = 0.10
)

// Fixed neutral baselines.  Price has no external market feed and the
// company-age and reputation proxies have no real data source; these are
// documented simplifications carried over unchanged.
const (
	priceNeutralScore       = 75.0
	complianceBaseScore     = 80.0
	reputationBaseScore     = 70.0
	riskDefaultScore        = 60.0
	riskUnknownCountryScore = 50.0
)

// countryRiskScores maps declared country to a geopolitical risk score.
// Higher is lower risk.
var countryRiskScores = map[string]float64{
	"India":        85,
	"Germany":      90,
	"China":        70,
	"Brazil":       75,
	"South Africa": 80,
}

// knownRiskCountries returns the countries with a dedicated risk profile,
// sorted for stable output.
func knownRiskCountries() []string {
	countries := make([]string, 0, len(countryRiskScores))
	for country := range countryRiskScores {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	return countries
}

// Scorer computes the six criterion scores and the weighted composite.
// Pure and deterministic: identical inputs always produce identical output.
type Scorer struct {
	weights CriterionWeights
}

// NewScorer returns a Scorer using the canonical weight vector.
func NewScorer() *Scorer {
	return &Scorer{weights: Weights}
}

// Score computes the full criterion vector and composite for one supplier.
func (s *Scorer) Score(sup *supplier.Supplier, data evaluation.ExternalData) (evaluation.CriterionScores, float64) {
	scores := evaluation.CriterionScores{
		Certifications:   s.scoreCertifications(data),
		Experience:       s.scoreExperience(sup, data),
		Documentation:    s.scoreDocumentation(sup),
		Capacity:         s.scoreCapacity(data),
		Price:            priceNeutralScore,
		GeopoliticalRisk: s.scoreGeopoliticalRisk(sup),
	}
	return scores, s.Composite(scores)
}

// Composite is the weighted sum of the criterion vector.
func (s *Scorer) Composite(scores evaluation.CriterionScores) float64 {
	w := s.weights
	return clamp100(scores.Certifications*w.Certifications +
		scores.Experience*w.Experience +
		scores.Documentation*w.Documentation +
		scores.Capacity*w.Capacity +
		scores.Price*w.Price +
		scores.GeopoliticalRisk*w.GeopoliticalRisk)
}

// scoreCertifications awards points for active registry records: WHO
// prequalification +40, national regulator +25, regional regulator +20,
// plus 5 per manufacturing certificate capped at 15.
func (s *Scorer) scoreCertifications(data evaluation.ExternalData) float64 {
	score := 0.0
	if whoActive(data) {
		score += 40
	}
	if fdaActive(data) {
		score += 25
	}
	if emaAuthorized(data) {
		score += 20
	}
	score += minf(15, float64(data.GMPCertificateCount())*5)
	return clamp100(score)
}

// scoreExperience is a five-way weighted sub-composite.
func (s *Scorer) scoreExperience(sup *supplier.Supplier, data evaluation.ExternalData) float64 {
	score := s.scoreCompanyAge(sup)*subWeightCompanyAge +
		s.scoreMarketsServed(data)*subWeightMarkets +
		s.scoreInstitutionalReferences(data)*subWeightInstitutional +
		s.scoreComplianceHistory(data)*subWeightCompliance +
		s.scorePublicReputation(data)*subWeightReputation
	return clamp100(score)
}

// scoreCompanyAge is a name-keyword proxy for company maturity; no real
// incorporation data is available.
func (s *Scorer) scoreCompanyAge(sup *supplier.Supplier) float64 {
	if sup == nil {
		return 50
	}
	name := sup.CompanyName
	if containsAny(name, "pharma", "laboratories", "industries") {
		return 85
	}
	if containsAny(name, "bio", "med", "health") {
		return 70
	}
	return 60
}

func (s *Scorer) scoreMarketsServed(data evaluation.ExternalData) float64 {
	score := 0.0
	if whoActive(data) {
		score += 40
	}
	if fdaActive(data) {
		score += 25
	}
	if emaAuthorized(data) {
		score += 20
	}
	score += minf(15, float64(data.GMPCertificateCount())*3)
	return clamp100(score)
}

func (s *Scorer) scoreInstitutionalReferences(data evaluation.ExternalData) float64 {
	score := 0.0
	references := 0
	if whoActive(data) {
		score += 50
	}
	if fdaActive(data) {
		score += 30
	}
	if emaAuthorized(data) {
		score += 25
	}
	for _, key := range []string{evaluation.SourceWHOPrequalification, evaluation.SourceFDARegistration, evaluation.SourceEMAAuthorization} {
		if data.Has(key) {
			references++
		}
	}
	if references >= 2 {
		score += 15
	}
	return clamp100(score)
}

func (s *Scorer) scoreComplianceHistory(data evaluation.ExternalData) float64 {
	score := complianceBaseScore
	if whoActive(data) {
		score += 15
	}
	if fdaActive(data) {
		score += 10
	}
	if emaAuthorized(data) {
		score += 10
	}
	return clamp100(score)
}

// scorePublicReputation checks active status only for the WHO record;
// national and regional presence count as-is.
func (s *Scorer) scorePublicReputation(data evaluation.ExternalData) float64 {
	score := reputationBaseScore
	if whoActive(data) {
		score += 20
	}
	if data.Has(evaluation.SourceFDARegistration) {
		score += 15
	}
	if data.Has(evaluation.SourceEMAAuthorization) {
		score += 10
	}
	return clamp100(score)
}

// scoreDocumentation grades document count and validation ratio.
func (s *Scorer) scoreDocumentation(sup *supplier.Supplier) float64 {
	if sup == nil {
		return 0
	}
	score := minf(50, float64(sup.DocumentCount)*10)
	if sup.DocumentCount > 0 {
		ratio := float64(sup.ValidatedDocumentCount) / float64(sup.DocumentCount)
		score += ratio * 50
	}
	return clamp100(score)
}

// scoreCapacity infers production capacity from source presence, with a
// flat base of 10.
func (s *Scorer) scoreCapacity(data evaluation.ExternalData) float64 {
	score := 10.0
	if data.Has(evaluation.SourceWHOPrequalification) {
		score += 40
	}
	if data.Has(evaluation.SourceFDARegistration) {
		score += 30
	}
	if data.Has(evaluation.SourceEMAAuthorization) {
		score += 20
	}
	return clamp100(score)
}

// scoreGeopoliticalRisk looks up the declared country; unknown countries
// get the neutral default, suppliers with no country a lower one.
func (s *Scorer) scoreGeopoliticalRisk(sup *supplier.Supplier) float64 {
	if sup == nil || sup.Country == "" {
		return riskUnknownCountryScore
	}
	if score, ok := countryRiskScores[sup.Country]; ok {
		return score
	}
	return riskDefaultScore
}

func whoActive(data evaluation.ExternalData) bool {
	res, ok := data[evaluation.SourceWHOPrequalification]
	return ok && res.Payload.WHO != nil && res.Payload.WHO.Active
}

func fdaActive(data evaluation.ExternalData) bool {
	res, ok := data[evaluation.SourceFDARegistration]
	return ok && res.Payload.FDA != nil && res.Payload.FDA.Registered
}

func emaAuthorized(data evaluation.ExternalData) bool {
	res, ok := data[evaluation.SourceEMAAuthorization]
	return ok && res.Payload.EMA != nil && res.Payload.EMA.Authorized
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
