package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	u, err := New(AssetMeta{Ticker: "VTI"}, AssetMeta{Ticker: "TQQQ", Sleeve: Growth})
	require.NoError(t, err)

	vti := u.Meta("VTI")
	assert.Equal(t, Core, vti.Sleeve)
	assert.Equal(t, ETF, vti.AssetType)
	assert.Equal(t, High, vti.TaxEfficiency)
	assert.False(t, vti.Leveraged)

	assert.True(t, u.Meta("TQQQ").Leveraged)
	assert.Equal(t, []string{"TQQQ", "VTI"}, u.Tickers())
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		metas []AssetMeta
	}{
		{"empty ticker", []AssetMeta{{}}},
		{"duplicate", []AssetMeta{{Ticker: "BND"}, {Ticker: "BND"}}},
		{"bad sleeve", []AssetMeta{{Ticker: "BND", Sleeve: "satellite"}}},
		{"bad type", []AssetMeta{{Ticker: "BND", AssetType: "bond"}}},
		{"bad efficiency", []AssetMeta{{Ticker: "BND", TaxEfficiency: "none"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.metas...)
			assert.Error(t, err)
		})
	}
}

func TestMetaFallbackForUnknownTicker(t *testing.T) {
	t.Parallel()

	u := MustNew()
	_, ok := u.Lookup("SOXL")
	assert.False(t, ok)

	m := u.Meta("SOXL")
	assert.Equal(t, "SOXL", m.Ticker)
	assert.True(t, m.Leveraged)
	assert.Equal(t, Core, m.Sleeve)
}

func TestPrefersTaxAdvantaged(t *testing.T) {
	t.Parallel()

	assert.True(t, AssetMeta{Stabilizer: true, TaxEfficiency: High}.PrefersTaxAdvantaged())
	assert.True(t, AssetMeta{TaxEfficiency: Low}.PrefersTaxAdvantaged())
	assert.True(t, AssetMeta{TaxEfficiency: Medium}.PrefersTaxAdvantaged())
	assert.False(t, AssetMeta{TaxEfficiency: High, Sleeve: Growth}.PrefersTaxAdvantaged())
	assert.False(t, AssetMeta{TaxEfficiency: Low, Sleeve: Growth}.PrefersTaxAdvantaged(), "growth goes to taxable")
	assert.False(t, AssetMeta{TaxEfficiency: Medium, AssetType: Stock}.PrefersTaxAdvantaged(), "stocks go to taxable")
	assert.False(t, AssetMeta{Stabilizer: true, Sleeve: Core, AssetType: Stock}.PrefersTaxAdvantaged())
}

func TestWithDoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	u := MustNew(AssetMeta{Ticker: "VTI"})
	u2, err := u.With(AssetMeta{Ticker: "NVDA", Sleeve: Growth, AssetType: Stock})
	require.NoError(t, err)

	assert.Equal(t, 1, u.Len())
	assert.Equal(t, 2, u2.Len())
	assert.Equal(t, Stock, u2.Meta("NVDA").AssetType)
}
