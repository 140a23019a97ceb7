// Package registry implements the external source collectors: one client
// per registry, and the parallel collector that aggregates their lookups
// into the normalized data an analysis consumes.
package registry

import (
	"context"
	"encoding/json"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/remote"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Source is one external registry.  Lookup returns nil when the registry
// has no record for the supplier.
type Source interface {
	Name() string
	Type() evaluation.SourceType
	Lookup(ctx context.Context, sup *supplier.Supplier) (*evaluation.SourceResult, error)
}

// lookupRequest is the common query sent to every registry endpoint.
type lookupRequest struct {
	CompanyName string `json:"company_name"`
	LegalName   string `json:"legal_name,omitempty"`
	Country     string `json:"country,omitempty"`
}

func newLookupRequest(sup *supplier.Supplier) lookupRequest {
	return lookupRequest{
		CompanyName: sup.CompanyName,
		LegalName:   sup.LegalName,
		Country:     sup.Country,
	}
}

// Fallback confidences when the registry does not report one.
const (
	defaultWHOConfidence = 0.95
	defaultFDAConfidence = 0.90
	defaultEMAConfidence = 0.90
	defaultGMPConfidence = 0.85
)

type whoSource struct {
	invoker remote.Invoker
}

// NewWHOSource returns the WHO prequalification list client.
func NewWHOSource(invoker remote.Invoker) Source { return &whoSource{invoker: invoker} }

func (s *whoSource) Name() string                { return evaluation.SourceWHOPrequalification }
func (s *whoSource) Type() evaluation.SourceType { return evaluation.SourceTypeCertification }

func (s *whoSource) Lookup(ctx context.Context, sup *supplier.Supplier) (*evaluation.SourceResult, error) {
	var resp struct {
		Found      bool    `json:"found"`
		Confidence float64 `json:"confidence"`
		evaluation.WHOPrequalification
	}
	if err := s.invoke(ctx, sup, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadWHOPrequalification,
			WHO:  &resp.WHOPrequalification,
		},
		Confidence: confidenceOr(resp.Confidence, defaultWHOConfidence),
	}, nil
}

func (s *whoSource) invoke(ctx context.Context, sup *supplier.Supplier, dest any) error {
	raw, err := s.invoker.Invoke(ctx, "/v1/registries/who/prequalification", newLookupRequest(sup))
	if err != nil {
		return err
	}
	return decodeLookup(raw, dest)
}

type fdaSource struct {
	invoker remote.Invoker
}

// NewFDASource returns the national drug-establishment registry client.
func NewFDASource(invoker remote.Invoker) Source { return &fdaSource{invoker: invoker} }

func (s *fdaSource) Name() string                { return evaluation.SourceFDARegistration }
func (s *fdaSource) Type() evaluation.SourceType { return evaluation.SourceTypeRegistration }

func (s *fdaSource) Lookup(ctx context.Context, sup *supplier.Supplier) (*evaluation.SourceResult, error) {
	var resp struct {
		Found      bool    `json:"found"`
		Confidence float64 `json:"confidence"`
		evaluation.FDARegistration
	}
	raw, err := s.invoker.Invoke(ctx, "/v1/registries/fda/establishments", newLookupRequest(sup))
	if err != nil {
		return nil, err
	}
	if err := decodeLookup(raw, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadFDARegistration,
			FDA:  &resp.FDARegistration,
		},
		Confidence: confidenceOr(resp.Confidence, defaultFDAConfidence),
	}, nil
}

type emaSource struct {
	invoker remote.Invoker
}

// NewEMASource returns the regional authorization registry client.
func NewEMASource(invoker remote.Invoker) Source { return &emaSource{invoker: invoker} }

func (s *emaSource) Name() string                { return evaluation.SourceEMAAuthorization }
func (s *emaSource) Type() evaluation.SourceType { return evaluation.SourceTypeRegistration }

func (s *emaSource) Lookup(ctx context.Context, sup *supplier.Supplier) (*evaluation.SourceResult, error) {
	var resp struct {
		Found      bool    `json:"found"`
		Confidence float64 `json:"confidence"`
		evaluation.EMAAuthorization
	}
	raw, err := s.invoker.Invoke(ctx, "/v1/registries/ema/authorizations", newLookupRequest(sup))
	if err != nil {
		return nil, err
	}
	if err := decodeLookup(raw, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadEMAAuthorization,
			EMA:  &resp.EMAAuthorization,
		},
		Confidence: confidenceOr(resp.Confidence, defaultEMAConfidence),
	}, nil
}

type gmpSource struct {
	invoker remote.Invoker
}

// NewGMPSource returns the manufacturing-certificate registry client.
func NewGMPSource(invoker remote.Invoker) Source { return &gmpSource{invoker: invoker} }

func (s *gmpSource) Name() string                { return evaluation.SourceGMPCertificates }
func (s *gmpSource) Type() evaluation.SourceType { return evaluation.SourceTypeCertification }

func (s *gmpSource) Lookup(ctx context.Context, sup *supplier.Supplier) (*evaluation.SourceResult, error) {
	var resp struct {
		Found        bool                        `json:"found"`
		Confidence   float64                     `json:"confidence"`
		Certificates []evaluation.GMPCertificate `json:"certificates"`
	}
	raw, err := s.invoker.Invoke(ctx, "/v1/registries/gmp/certificates", newLookupRequest(sup))
	if err != nil {
		return nil, err
	}
	if err := decodeLookup(raw, &resp); err != nil {
		return nil, err
	}
	if !resp.Found || len(resp.Certificates) == 0 {
		return nil, nil
	}
	return &evaluation.SourceResult{
		Payload: evaluation.SourcePayload{
			Kind: evaluation.PayloadGMPCertificates,
			GMP:  &evaluation.GMPCertificates{Certificates: resp.Certificates},
		},
		Confidence: confidenceOr(resp.Confidence, defaultGMPConfidence),
	}, nil
}

// NewSources builds the registry set named in the configuration; an empty
// list enables all four.
func NewSources(enabled []string, invoker remote.Invoker) []Source {
	all := map[string]func(remote.Invoker) Source{
		evaluation.SourceWHOPrequalification: NewWHOSource,
		evaluation.SourceFDARegistration:     NewFDASource,
		evaluation.SourceEMAAuthorization:    NewEMASource,
		evaluation.SourceGMPCertificates:     NewGMPSource,
	}
	if len(enabled) == 0 {
		enabled = []string{
			evaluation.SourceWHOPrequalification,
			evaluation.SourceFDARegistration,
			evaluation.SourceEMAAuthorization,
			evaluation.SourceGMPCertificates,
		}
	}
	sources := make([]Source, 0, len(enabled))
	for _, name := range enabled {
		if build, ok := all[name]; ok {
			sources = append(sources, build(invoker))
		}
	}
	return sources
}

func decodeLookup(raw json.RawMessage, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeRegistryParseError, "failed to decode registry response")
	}
	return nil
}

func confidenceOr(v, fallback float64) float64 {
	if v <= 0 || v > 1 {
		return fallback
	}
	return v
}
