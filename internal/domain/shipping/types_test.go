package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplodeParcels(t *testing.T) {
	tests := []struct {
		name string
		rows []Parcel
		want int
	}{
		{
			name: "single parcel",
			rows: []Parcel{{Weight: decimal.NewFromInt(5), Count: 1}},
			want: 1,
		},
		{
			name: "count replicates",
			rows: []Parcel{{Weight: decimal.NewFromInt(5), Count: 3}},
			want: 3,
		},
		{
			name: "mixed rows",
			rows: []Parcel{
				{Weight: decimal.NewFromInt(5), Count: 2},
				{Weight: decimal.NewFromInt(1), Count: 1},
			},
			want: 3,
		},
		{
			name: "zero count treated as one",
			rows: []Parcel{{Weight: decimal.NewFromInt(5), Count: 0}},
			want: 1,
		},
		{
			name: "empty input",
			rows: nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExplodeParcels(tt.rows)
			assert.Len(t, got, tt.want)
			for _, p := range got {
				assert.Equal(t, 1, p.Count)
			}
		})
	}
}

func TestExplodeParcelsPreservesDimensions(t *testing.T) {
	src := Parcel{
		Length: decimal.NewFromInt(12),
		Width:  decimal.NewFromInt(10),
		Height: decimal.NewFromInt(8),
		Weight: decimal.NewFromFloat(2.5),
		Count:  4,
	}

	got := ExplodeParcels([]Parcel{src})
	require.Len(t, got, 4)
	for _, p := range got {
		assert.True(t, p.Length.Equal(src.Length))
		assert.True(t, p.Width.Equal(src.Width))
		assert.True(t, p.Height.Equal(src.Height))
		assert.True(t, p.Weight.Equal(src.Weight))
	}
}

func TestProviderValid(t *testing.T) {
	assert.True(t, ProviderEasyPost.Valid())
	assert.True(t, ProviderUPS.Valid())
	assert.True(t, ProviderFedEx.Valid())
	assert.False(t, Provider("DHL").Valid())
	assert.False(t, Provider("").Valid())
}

func TestCleanAccountNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"123456", "123456"},
		{"12-34 56", "123456"},
		{"A1B2C3#", "A1B2C3"},
		{"  987654321\n", "987654321"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanAccountNumber(tt.raw))
	}
}

func TestInferBillingProvider(t *testing.T) {
	tests := []struct {
		name    string
		account string
		want    Provider
		ok      bool
	}{
		{"six chars infers UPS", "A1B2C3", ProviderUPS, true},
		{"nine digits infers FedEx", "123456789", ProviderFedEx, true},
		{"seven digits unmatched", "1234567", "", false},
		{"empty unmatched", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferBillingProvider(tt.account)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteIsOrder(t *testing.T) {
	assert.True(t, Quote{ShipmentID: "order_abc123"}.IsOrder())
	assert.False(t, Quote{ShipmentID: "shp_abc123"}.IsOrder())
	assert.False(t, Quote{}.IsOrder())
}

func TestBillingActive(t *testing.T) {
	assert.True(t, Billing{ThirdParty: true, Account: "123456"}.Active())
	assert.False(t, Billing{ThirdParty: true}.Active())
	assert.False(t, Billing{Account: "123456"}.Active())
}
