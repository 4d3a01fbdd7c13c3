package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

func testCompany() CompanyDefaults {
	return CompanyDefaults{
		Name:  "Case Club",
		Phone: "(714) 779-8794",
		Email: "shipping@caseclub.test",
	}
}

func testRatesInput() FetchRatesInput {
	return FetchRatesInput{
		Reference: "SHIP-00042",
		PickupAddress: shipping.Address{
			Street1: "1 Warehouse Way",
			City:    "Anaheim",
			State:   "California",
			Zip:     "92801",
			Country: "US",
		},
		PickupContact: shipping.Contact{
			FirstName: "Pat",
			LastName:  "Shipper",
			Phone:     "714-555-0101",
			Email:     "pat@caseclub.test",
		},
		DeliveryAddress: shipping.Address{
			Street1: "500 Main St",
			City:    "Phoenix",
			State:   "AZ",
			Zip:     "85001",
			Country: "US",
		},
		Parcels: []shipping.Parcel{
			{
				Length: decimal.NewFromInt(12),
				Width:  decimal.NewFromInt(10),
				Height: decimal.NewFromInt(6),
				Weight: decimal.NewFromInt(5),
				Count:  1,
			},
		},
		Currency: "USD",
	}
}

func testQuote(provider shipping.Provider, carrier string, price float64) shipping.Quote {
	return shipping.Quote{
		Provider:    provider,
		Carrier:     carrier,
		ServiceName: carrier + " Ground",
		TotalPrice:  decimal.NewFromFloat(price),
	}
}

func TestRateService_FetchShippingRates_AggregatorOnly(t *testing.T) {
	aggregator := new(MockAggregator)
	var captured shipping.RateRequest
	aggregator.On("GetQuotes", mock.Anything, mock.AnythingOfType("shipping.RateRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(shipping.RateRequest)
		}).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderEasyPost, "USPS", 8.50),
			testQuote(shipping.ProviderEasyPost, "FedExDefault", 14.80),
		}, nil)

	service := NewRateService(aggregator, nil, nil, testCompany(), nil)

	in := testRatesInput()
	in.Parcels = []shipping.Parcel{
		{Length: decimal.NewFromInt(12), Width: decimal.NewFromInt(10), Height: decimal.NewFromInt(6), Weight: decimal.NewFromInt(5), Count: 2},
		{Length: decimal.NewFromInt(8), Width: decimal.NewFromInt(8), Height: decimal.NewFromInt(4), Weight: decimal.NewFromInt(2), Count: 1},
	}

	quotes, err := service.FetchShippingRates(context.Background(), in)

	require.NoError(t, err)
	assert.Len(t, quotes, 2)
	aggregator.AssertExpectations(t)

	// Counts explode into identical single units.
	require.Len(t, captured.Parcels, 3)
	for _, parcel := range captured.Parcels {
		assert.Equal(t, 1, parcel.Count)
	}
	assert.Equal(t, "CA", captured.From.State)
	assert.Equal(t, "Pat Shipper", captured.From.Name)
	assert.Equal(t, "7145550101", captured.From.Phone)
	assert.Equal(t, "SHIP-00042", captured.Reference)
}

func TestRateService_FetchShippingRates_ContactFallbacks(t *testing.T) {
	aggregator := new(MockAggregator)
	var captured shipping.RateRequest
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(shipping.RateRequest)
		}).
		Return([]shipping.Quote{}, nil)

	service := NewRateService(aggregator, nil, nil, testCompany(), nil)

	in := testRatesInput()
	in.DeliveryContact = shipping.Contact{}

	_, err := service.FetchShippingRates(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "Receiving Dept", captured.To.Name)
	assert.Equal(t, "Case Club", captured.To.Company)
	assert.Equal(t, "7147798794", captured.To.Phone)
	assert.Equal(t, "shipping@caseclub.test", captured.To.Email)
}

func TestRateService_FetchShippingRates_AggregatorFailureDowngraded(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Return(nil, errors.New("easypost: HTTP 500"))

	service := NewRateService(aggregator, nil, nil, testCompany(), nil)

	quotes, err := service.FetchShippingRates(context.Background(), testRatesInput())

	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestRateService_FetchShippingRates_ThirdPartyUPS(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderEasyPost, "USPS", 8.50),
			testQuote(shipping.ProviderEasyPost, "UPS", 11.20),
		}, nil)

	ups := &MockRateSource{provider: shipping.ProviderUPS}
	var captured shipping.RateRequest
	ups.On("GetQuotes", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(shipping.RateRequest)
		}).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderUPS, "UPS", 10.40),
			testQuote(shipping.ProviderUPS, "UPS", 18.90),
		}, nil)

	service := NewRateService(aggregator, ups, nil, testCompany(), nil)

	in := testRatesInput()
	in.Billing = shipping.Billing{ThirdParty: true, Account: "A1-23 45", PostalCode: "92801"}

	quotes, err := service.FetchShippingRates(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "A12345", captured.Billing.Account)
	require.Len(t, quotes, 2)
	for _, q := range quotes {
		assert.Equal(t, shipping.ProviderUPS, q.Provider)
	}
}

func TestRateService_FetchShippingRates_ThirdPartyFedEx(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderEasyPost, "FedExDefault", 14.80),
		}, nil)

	ups := &MockRateSource{provider: shipping.ProviderUPS}
	fedex := &MockRateSource{provider: shipping.ProviderFedEx}
	fedex.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderFedEx, "FedEx", 13.10),
		}, nil)

	service := NewRateService(aggregator, ups, fedex, testCompany(), nil)

	in := testRatesInput()
	in.Parcels[0].Count = 3
	in.Billing = shipping.Billing{ThirdParty: true, Account: "123456789"}

	quotes, err := service.FetchShippingRates(context.Background(), in)

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, shipping.ProviderFedEx, quotes[0].Provider)
	ups.AssertNotCalled(t, "GetQuotes", mock.Anything, mock.Anything)
}

func TestRateService_FetchShippingRates_DirectFailurePropagates(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{}, nil)

	ups := &MockRateSource{provider: shipping.ProviderUPS}
	ups.On("GetQuotes", mock.Anything, mock.Anything).
		Return(nil, errors.New("UPS: HTTP 401"))

	service := NewRateService(aggregator, ups, nil, testCompany(), nil)

	in := testRatesInput()
	in.Billing = shipping.Billing{ThirdParty: true, Account: "123456"}

	_, err := service.FetchShippingRates(context.Background(), in)

	assert.ErrorContains(t, err, "HTTP 401")
}

func TestRateService_FetchShippingRates_SenderBilledMultiParcel(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderEasyPost, "USPS", 21.00),
		}, nil)

	fedex := &MockRateSource{provider: shipping.ProviderFedEx}
	fedex.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderFedEx, "FedEx", 26.40),
		}, nil)

	service := NewRateService(aggregator, nil, fedex, testCompany(), nil)

	in := testRatesInput()
	in.Parcels[0].Count = 2

	quotes, err := service.FetchShippingRates(context.Background(), in)

	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func TestRateService_FetchShippingRates_UnrecognizedAccountLength(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("GetQuotes", mock.Anything, mock.Anything).
		Return([]shipping.Quote{
			testQuote(shipping.ProviderEasyPost, "USPS", 8.50),
		}, nil)

	ups := &MockRateSource{provider: shipping.ProviderUPS}
	fedex := &MockRateSource{provider: shipping.ProviderFedEx}

	service := NewRateService(aggregator, ups, fedex, testCompany(), nil)

	in := testRatesInput()
	in.Billing = shipping.Billing{ThirdParty: true, Account: "12345678"}

	quotes, err := service.FetchShippingRates(context.Background(), in)

	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	ups.AssertNotCalled(t, "GetQuotes", mock.Anything, mock.Anything)
	fedex.AssertNotCalled(t, "GetQuotes", mock.Anything, mock.Anything)
}

func TestRateService_FetchShippingRates_NoParcels(t *testing.T) {
	service := NewRateService(nil, nil, nil, testCompany(), nil)

	in := testRatesInput()
	in.Parcels = nil

	_, err := service.FetchShippingRates(context.Background(), in)

	assert.ErrorContains(t, err, "no parcels")
}

func TestSortQuotesByPrice(t *testing.T) {
	quotes := []shipping.Quote{
		testQuote(shipping.ProviderEasyPost, "FedExDefault", 14.80),
		testQuote(shipping.ProviderEasyPost, "USPS", 8.50),
		testQuote(shipping.ProviderUPS, "UPS", 10.40),
	}

	SortQuotesByPrice(quotes)

	assert.Equal(t, "USPS", quotes[0].Carrier)
	assert.Equal(t, "UPS", quotes[1].Carrier)
	assert.Equal(t, "FedExDefault", quotes[2].Carrier)
}
