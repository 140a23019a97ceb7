package evaluation

import (
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/types/common"
)

// SourceType classifies what kind of evidence a registry provides.
type SourceType string

const (
	SourceTypeCertification SourceType = "certification"
	SourceTypeRegistration  SourceType = "registration"
	SourceTypeAudit         SourceType = "audit"
	SourceTypeOther         SourceType = "other"
)

// Source keys for the fixed registry set.
const (
	SourceWHOPrequalification = "who_prequalification"
	SourceFDARegistration     = "fda_registration"
	SourceEMAAuthorization    = "ema_authorization"
	SourceGMPCertificates     = "gmp_certificates"
)

// PayloadKind tags the concrete variant carried by a SourcePayload.
type PayloadKind string

const (
	PayloadWHOPrequalification PayloadKind = "who_prequalification"
	PayloadFDARegistration     PayloadKind = "fda_registration"
	PayloadEMAAuthorization    PayloadKind = "ema_authorization"
	PayloadGMPCertificates     PayloadKind = "gmp_certificates"
	PayloadOpaque              PayloadKind = "opaque"
)

// WHOPrequalification is the normalized WHO prequalification record.
type WHOPrequalification struct {
	Active             bool   `json:"active"`
	PrequalificationID string `json:"prequalification_id,omitempty"`
	ProductCategory    string `json:"product_category,omitempty"`
	ListedSince        string `json:"listed_since,omitempty"`
}

// FDARegistration is the normalized national-regulator registration record.
type FDARegistration struct {
	Registered         bool   `json:"registered"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	FacilityType       string `json:"facility_type,omitempty"`
}

// EMAAuthorization is the normalized regional-regulator authorization record.
type EMAAuthorization struct {
	Authorized          bool   `json:"authorized"`
	AuthorizationNumber string `json:"authorization_number,omitempty"`
	Scope               string `json:"scope,omitempty"`
}

// GMPCertificate is one manufacturing certificate entry.
type GMPCertificate struct {
	Number     string `json:"number"`
	IssuedBy   string `json:"issued_by,omitempty"`
	ValidUntil string `json:"valid_until,omitempty"`
}

// GMPCertificates is the normalized manufacturing-certification record.
type GMPCertificates struct {
	Certificates []GMPCertificate `json:"certificates"`
}

// Count returns the number of certificates.
func (g *GMPCertificates) Count() int {
	if g == nil {
		return 0
	}
	return len(g.Certificates)
}

// SourcePayload is a tagged union over the known registry payloads.  Exactly
// one variant pointer is set for a known Kind; unknown sources carry their
// raw fields in Extra.
type SourcePayload struct {
	Kind  PayloadKind            `json:"kind"`
	WHO   *WHOPrequalification   `json:"who,omitempty"`
	FDA   *FDARegistration       `json:"fda,omitempty"`
	EMA   *EMAAuthorization      `json:"ema,omitempty"`
	GMP   *GMPCertificates       `json:"gmp,omitempty"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Validate checks that the variant pointer matches the declared kind.
func (p SourcePayload) Validate() error {
	switch p.Kind {
	case PayloadWHOPrequalification:
		if p.WHO == nil {
			return errors.NewValidation("WHO payload variant is nil")
		}
	case PayloadFDARegistration:
		if p.FDA == nil {
			return errors.NewValidation("FDA payload variant is nil")
		}
	case PayloadEMAAuthorization:
		if p.EMA == nil {
			return errors.NewValidation("EMA payload variant is nil")
		}
	case PayloadGMPCertificates:
		if p.GMP == nil {
			return errors.NewValidation("GMP payload variant is nil")
		}
	case PayloadOpaque:
	default:
		return errors.NewValidation("unknown payload kind: " + string(p.Kind))
	}
	return nil
}

// SourceResult is one normalized lookup result.
type SourceResult struct {
	Payload    SourcePayload `json:"payload"`
	Confidence float64       `json:"confidence"`
}

// ExternalData maps source key to the normalized result of the latest
// collection pass.  Sources that failed or were unavailable are absent.
type ExternalData map[string]SourceResult

// Has reports whether the source produced data in this pass.
func (d ExternalData) Has(sourceKey string) bool {
	_, ok := d[sourceKey]
	return ok
}

// DistinctSources returns the number of sources that produced data.
func (d ExternalData) DistinctSources() int { return len(d) }

// SourceKeys returns the keys of the collected sources.
func (d ExternalData) SourceKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	return keys
}

// GMPCertificateCount returns the certificate count from the GMP source,
// zero when the source was not collected.
func (d ExternalData) GMPCertificateCount() int {
	res, ok := d[SourceGMPCertificates]
	if !ok {
		return 0
	}
	return res.Payload.GMP.Count()
}

// ExternalSourceRecord is the persisted form of one lookup result.  Records
// are append-only: every collection pass writes fresh rows, preserving the
// full history.
type ExternalSourceRecord struct {
	ID           string        `json:"id"`
	EvaluationID string        `json:"evaluation_id"`
	SourceName   string        `json:"source_name"`
	SourceType   SourceType    `json:"source_type"`
	SourceURL    string        `json:"source_url,omitempty"`
	Payload      SourcePayload `json:"payload"`
	Confidence   float64       `json:"confidence"`
	CollectedAt  time.Time     `json:"collected_at"`
}

// NewExternalSourceRecord builds a record for one successful lookup.
func NewExternalSourceRecord(evaluationID, sourceName string, sourceType SourceType, sourceURL string, payload SourcePayload, confidence float64) (*ExternalSourceRecord, error) {
	if evaluationID == "" {
		return nil, errors.NewValidation("evaluationID cannot be empty")
	}
	if sourceName == "" {
		return nil, errors.NewValidation("sourceName cannot be empty")
	}
	if confidence < 0 || confidence > 1 {
		return nil, errors.NewValidation("source confidence out of range [0,1]")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &ExternalSourceRecord{
		ID:           string(common.NewID()),
		EvaluationID: evaluationID,
		SourceName:   sourceName,
		SourceType:   sourceType,
		SourceURL:    sourceURL,
		Payload:      payload,
		Confidence:   confidence,
		CollectedAt:  time.Time(common.NewTimestamp()),
	}, nil
}
