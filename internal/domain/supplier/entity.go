// Package supplier holds the supplier reference entity.  Supplier master data
// is owned by the enclosing application; this package carries only the fields
// the evaluation core reads.
package supplier

import (
	"strings"
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Status defines the lifecycle state of a supplier record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// Supplier is the reference projection of a candidate supplier.
type Supplier struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	LegalName   string `json:"legal_name,omitempty"`
	Country     string `json:"country,omitempty"`
	Status      Status `json:"status"`
	// Document counters feed the documentary-quality criterion.
	DocumentCount          int       `json:"document_count"`
	ValidatedDocumentCount int       `json:"validated_document_count"`
	RegisteredAt           time.Time `json:"registered_at"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Validate checks the structural invariants of the supplier record.
func (s *Supplier) Validate() error {
	if s.ID == "" {
		return errors.NewValidation("supplier ID cannot be empty")
	}
	if strings.TrimSpace(s.CompanyName) == "" {
		return errors.NewValidation("company name cannot be empty")
	}
	if s.ValidatedDocumentCount > s.DocumentCount {
		return errors.NewValidation("validated document count cannot exceed document count")
	}
	switch s.Status {
	case StatusActive, StatusInactive, StatusBlocked, "":
	default:
		return errors.NewValidation("invalid status: " + string(s.Status))
	}
	return nil
}

// DisplayName returns the legal name when set, otherwise the company name.
func (s *Supplier) DisplayName() string {
	if s.LegalName != "" {
		return s.LegalName
	}
	return s.CompanyName
}

// MatchesName reports whether the query is a case-insensitive substring of
// either the company or legal name.  An empty query matches everything.
func (s *Supplier) MatchesName(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.CompanyName), q) ||
		strings.Contains(strings.ToLower(s.LegalName), q)
}
