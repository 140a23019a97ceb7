package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupplier_DisplayName(t *testing.T) {
	s := &Supplier{CompanyName: "Beta Bio"}
	assert.Equal(t, "Beta Bio", s.DisplayName())

	s.LegalName = "Beta Biologics GmbH"
	assert.Equal(t, "Beta Biologics GmbH", s.DisplayName())
}

func TestSupplier_MatchesName(t *testing.T) {
	s := &Supplier{CompanyName: "Alpha Pharma", LegalName: "Alpha Pharmaceuticals Ltd"}

	assert.True(t, s.MatchesName(""))
	assert.True(t, s.MatchesName("alpha"))
	assert.True(t, s.MatchesName("PHARMACEUTICALS"))
	assert.False(t, s.MatchesName("beta"))
}
