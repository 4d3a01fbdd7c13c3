package shipping

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// RateService fans a rate request out to the enabled carrier integrations
// and combines their quotes into one list.
type RateService struct {
	aggregator shipping.Aggregator
	ups        shipping.RateSource
	fedex      shipping.RateSource
	company    CompanyDefaults
	logger     *zap.Logger
}

// NewRateService creates a rate-shopping service. Any of the carrier
// integrations may be nil when disabled in configuration.
func NewRateService(
	aggregator shipping.Aggregator,
	ups shipping.RateSource,
	fedex shipping.RateSource,
	company CompanyDefaults,
	logger *zap.Logger,
) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{
		aggregator: aggregator,
		ups:        ups,
		fedex:      fedex,
		company:    company,
		logger:     logger,
	}
}

// FetchShippingRates collects quotes for a shipment from every applicable
// carrier. The aggregator is always queried when enabled and its failures
// degrade to a logged warning with no contribution. Carrier-direct clients
// are queried when the billing account number implies them, or for
// sender-billed multi-parcel shipments. When third-party billing is active
// the combined list is filtered down to the implied carrier's quotes.
//
// Quotes are returned unsorted; the caller orders them for display.
func (s *RateService) FetchShippingRates(ctx context.Context, in FetchRatesInput) ([]shipping.Quote, error) {
	parcels := shipping.ExplodeParcels(in.Parcels)
	if len(parcels) == 0 {
		return nil, fmt.Errorf("shipment %s has no parcels", in.Reference)
	}

	billing := in.Billing
	billing.Account = shipping.CleanAccountNumber(billing.Account)

	req := shipping.RateRequest{
		From:      s.canonicalAddress(in.PickupAddress, in.PickupContact),
		To:        s.canonicalAddress(in.DeliveryAddress, in.DeliveryContact),
		Parcels:   parcels,
		Billing:   billing,
		Currency:  in.Currency,
		Reference: in.Reference,
	}

	var quotes []shipping.Quote

	if s.aggregator != nil {
		aggregated, err := s.aggregator.GetQuotes(ctx, req)
		if err != nil {
			s.logger.Warn("fetching aggregator rates failed",
				zap.String("shipment", in.Reference),
				zap.Error(err),
			)
		} else {
			quotes = append(quotes, aggregated...)
		}
	}

	if billing.Active() {
		provider, ok := shipping.InferBillingProvider(billing.Account)
		if ok {
			direct, err := s.directQuotes(ctx, provider, req)
			if err != nil {
				return nil, err
			}
			quotes = append(quotes, direct...)
			quotes = filterByProvider(quotes, provider)
		}
	} else if len(parcels) > 1 && s.fedex != nil {
		direct, err := s.fedex.GetQuotes(ctx, req)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, direct...)
	}

	return quotes, nil
}

// directQuotes dispatches to the carrier-direct client the billing account
// implies. A missing client is not an error: the shipment simply gets no
// direct quotes for that carrier.
func (s *RateService) directQuotes(ctx context.Context, provider shipping.Provider, req shipping.RateRequest) ([]shipping.Quote, error) {
	var source shipping.RateSource
	switch provider {
	case shipping.ProviderUPS:
		source = s.ups
	case shipping.ProviderFedEx:
		source = s.fedex
	}
	if source == nil {
		s.logger.Warn("billed carrier integration is not configured",
			zap.String("shipment", req.Reference),
			zap.String("provider", string(provider)),
		)
		return nil, nil
	}
	return source.GetQuotes(ctx, req)
}

// canonicalAddress merges a raw address and its contact into the carrier
// address block, filling name, phone and email from the contact and then
// the company defaults so required fields never go out blank.
func (s *RateService) canonicalAddress(addr shipping.Address, contact shipping.Contact) shipping.Address {
	c := shipping.NormalizeContact(contact, s.company.Phone, s.company.Email)
	out := shipping.NormalizeAddress(addr, s.company.Phone)
	if out.Name == "" {
		out.Name = shipping.ContactDisplayName(c)
	}
	if out.Company == "" {
		out.Company = s.company.Name
	}
	if phone := shipping.CleanPhone(c.Phone); phone != "" {
		out.Phone = phone
	}
	if out.Email == "" {
		out.Email = c.Email
	}
	return out
}

// filterByProvider keeps only the quotes produced by the billed carrier.
// Third-party billing means every other quote would be billed to the wrong
// account, so this is a hard filter rather than a preference.
func filterByProvider(quotes []shipping.Quote, provider shipping.Provider) []shipping.Quote {
	filtered := quotes[:0]
	for _, q := range quotes {
		if q.Provider == provider {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// SortQuotesByPrice orders quotes ascending by total price in place.
func SortQuotesByPrice(quotes []shipping.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].TotalPrice.LessThan(quotes[j].TotalPrice)
	})
}
