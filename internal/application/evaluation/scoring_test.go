package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
)

func whoResult(active bool) evaluation.SourceResult {
	return evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadWHOPrequalification,
			WHO:  &evaluation.WHOPrequalification{Active: active, PrequalificationID: "WHO-001"},
		},
		Confidence: 0.95,
	}
}

func fdaResult(registered bool) evaluation.SourceResult {
	return evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadFDARegistration,
			FDA:  &evaluation.FDARegistration{Registered: registered, RegistrationNumber: "FDA-123"},
		},
		Confidence: 0.9,
	}
}

func emaResult(authorized bool) evaluation.SourceResult {
	return evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadEMAAuthorization,
			EMA:  &evaluation.EMAAuthorization{Authorized: authorized},
		},
		Confidence: 0.9,
	}
}

func gmpResult(count int) evaluation.SourceResult {
	certs := make([]evaluation.GMPCertificate, count)
	for i := range certs {
		certs[i] = evaluation.GMPCertificate{Number: "GMP"}
	}
	return evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadGMPCertificates,
			GMP:  &evaluation.GMPCertificates{Certificates: certs},
		},
		Confidence: 0.8,
	}
}

func fullExternalData() evaluation.ExternalData {
	return evaluation.ExternalData{
		evaluation.SourceWHOPrequalification: whoResult(true),
		evaluation.SourceFDARegistration:     fdaResult(true),
		evaluation.SourceEMAAuthorization:    emaResult(true),
		evaluation.SourceGMPCertificates:     gmpResult(3),
	}
}

func testSupplier() *supplier.Supplier {
	return &supplier.Supplier{
		ID:                     "sup-1",
		CompanyName:            "Acme Pharma Industries",
		Country:                "Germany",
		DocumentCount:          5,
		ValidatedDocumentCount: 4,
	}
}

func TestWeights_SumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, Weights.Sum(), 1e-12)
	assert.Len(t, Weights.AsSlice(), 6)
}

func TestScorer_Score_FullData(t *testing.T) {
	scorer := NewScorer()
	scores, composite := scorer.Score(testSupplier(), fullExternalData())

	assert.Equal(t, 100.0, scores.Certifications)
	// 85*.10 + 94*.30 + 100*.25 + 100*.25 + 100*.10
	assert.InDelta(t, 96.7, scores.Experience, 1e-9)
	assert.Equal(t, 90.0, scores.Documentation)
	assert.Equal(t, 100.0, scores.Capacity)
	assert.Equal(t, 75.0, scores.Price)
	assert.Equal(t, 90.0, scores.GeopoliticalRisk)
	assert.InDelta(t, 94.84, composite, 1e-9)
}

func TestScorer_Score_NoData(t *testing.T) {
	scorer := NewScorer()
	scores, composite := scorer.Score(nil, evaluation.ExternalData{})

	assert.Equal(t, 0.0, scores.Certifications)
	// 50*.10 + 80*.25 + 70*.10
	assert.InDelta(t, 32.0, scores.Experience, 1e-9)
	assert.Equal(t, 0.0, scores.Documentation)
	assert.Equal(t, 10.0, scores.Capacity)
	assert.Equal(t, 75.0, scores.Price)
	assert.Equal(t, 50.0, scores.GeopoliticalRisk)
	assert.InDelta(t, 17.9, composite, 1e-9)
}

func TestScorer_Score_Deterministic(t *testing.T) {
	scorer := NewScorer()
	sup := testSupplier()
	data := fullExternalData()

	s1, c1 := scorer.Score(sup, data)
	s2, c2 := scorer.Score(sup, data)
	assert.Equal(t, s1, s2)
	assert.Equal(t, c1, c2)
}

func TestScorer_Score_Bounds(t *testing.T) {
	scorer := NewScorer()
	for _, data := range []evaluation.ExternalData{
		{},
		fullExternalData(),
		{evaluation.SourceGMPCertificates: gmpResult(50)},
	} {
		scores, composite := scorer.Score(testSupplier(), data)
		for _, v := range scores.AsSlice() {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
		assert.GreaterOrEqual(t, composite, 0.0)
		assert.LessOrEqual(t, composite, 100.0)
	}
}

func TestScorer_Certifications(t *testing.T) {
	scorer := NewScorer()
	tests := []struct {
		name string
		data evaluation.ExternalData
		want float64
	}{
		{"no sources", evaluation.ExternalData{}, 0},
		{"who active only", evaluation.ExternalData{evaluation.SourceWHOPrequalification: whoResult(true)}, 40},
		{"who inactive scores nothing", evaluation.ExternalData{evaluation.SourceWHOPrequalification: whoResult(false)}, 0},
		{"fda and ema active", evaluation.ExternalData{
			evaluation.SourceFDARegistration:  fdaResult(true),
			evaluation.SourceEMAAuthorization: emaResult(true),
		}, 45},
		{"gmp capped at 15", evaluation.ExternalData{evaluation.SourceGMPCertificates: gmpResult(10)}, 15},
		{"two certificates", evaluation.ExternalData{evaluation.SourceGMPCertificates: gmpResult(2)}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.scoreCertifications(tt.data))
		})
	}
}

func TestScorer_CompanyAgeProxy(t *testing.T) {
	scorer := NewScorer()
	tests := []struct {
		name string
		sup  *supplier.Supplier
		want float64
	}{
		{"pharma keyword", &supplier.Supplier{CompanyName: "Globo Pharma Ltd"}, 85},
		{"laboratories keyword", &supplier.Supplier{CompanyName: "Stern Laboratories"}, 85},
		{"bio keyword", &supplier.Supplier{CompanyName: "BioGenix"}, 70},
		{"health keyword", &supplier.Supplier{CompanyName: "Vital Health Corp"}, 70},
		{"no keyword", &supplier.Supplier{CompanyName: "Acme Widgets"}, 60},
		{"nil supplier", nil, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.scoreCompanyAge(tt.sup))
		})
	}
}

func TestScorer_InstitutionalReferences_BonusNeedsTwoSources(t *testing.T) {
	scorer := NewScorer()

	// Presence counts toward the bonus even when the record is inactive.
	data := evaluation.ExternalData{
		evaluation.SourceWHOPrequalification: whoResult(true),
		evaluation.SourceFDARegistration:     fdaResult(false),
	}
	assert.Equal(t, 65.0, scorer.scoreInstitutionalReferences(data))

	single := evaluation.ExternalData{evaluation.SourceWHOPrequalification: whoResult(true)}
	assert.Equal(t, 50.0, scorer.scoreInstitutionalReferences(single))
}

func TestScorer_PublicReputation_PresenceVsActive(t *testing.T) {
	scorer := NewScorer()

	// WHO must be active; national and regional presence suffices.
	data := evaluation.ExternalData{
		evaluation.SourceWHOPrequalification: whoResult(false),
		evaluation.SourceFDARegistration:     fdaResult(false),
		evaluation.SourceEMAAuthorization:    emaResult(false),
	}
	assert.Equal(t, 95.0, scorer.scorePublicReputation(data))
}

func TestScorer_Documentation(t *testing.T) {
	scorer := NewScorer()
	tests := []struct {
		name string
		sup  *supplier.Supplier
		want float64
	}{
		{"nil supplier", nil, 0},
		{"no documents", &supplier.Supplier{}, 0},
		{"three unvalidated", &supplier.Supplier{DocumentCount: 3}, 30},
		{"all validated", &supplier.Supplier{DocumentCount: 10, ValidatedDocumentCount: 10}, 100},
		{"count capped at five", &supplier.Supplier{DocumentCount: 8, ValidatedDocumentCount: 4}, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.scoreDocumentation(tt.sup))
		})
	}
}

func TestScorer_Capacity_PresenceOnly(t *testing.T) {
	scorer := NewScorer()

	data := evaluation.ExternalData{
		evaluation.SourceWHOPrequalification: whoResult(false),
		evaluation.SourceFDARegistration:     fdaResult(false),
	}
	assert.Equal(t, 80.0, scorer.scoreCapacity(data))
	assert.Equal(t, 10.0, scorer.scoreCapacity(evaluation.ExternalData{}))
}

func TestScorer_GeopoliticalRisk(t *testing.T) {
	scorer := NewScorer()
	tests := []struct {
		name string
		sup  *supplier.Supplier
		want float64
	}{
		{"profiled country", &supplier.Supplier{Country: "India"}, 85},
		{"lowest profiled", &supplier.Supplier{Country: "China"}, 70},
		{"unprofiled country", &supplier.Supplier{Country: "France"}, 60},
		{"no country", &supplier.Supplier{}, 50},
		{"nil supplier", nil, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.scoreGeopoliticalRisk(tt.sup))
		})
	}
}

func TestKnownRiskCountries_Sorted(t *testing.T) {
	countries := knownRiskCountries()
	require.Equal(t, []string{"Brazil", "China", "Germany", "India", "South Africa"}, countries)
}
