package shipping

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// LabelService serves the printable label for a booked shipment.
type LabelService struct {
	aggregator  shipping.Aggregator
	labels      LabelMaterializer
	shipments   shipping.ShipmentRepository
	labelFormat string
	logger      *zap.Logger
}

// NewLabelService creates a label service. labelFormat is the raster
// format requested from the aggregator when a label must be re-fetched.
func NewLabelService(
	aggregator shipping.Aggregator,
	labels LabelMaterializer,
	shipments shipping.ShipmentRepository,
	labelFormat string,
	logger *zap.Logger,
) *LabelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelService{
		aggregator:  aggregator,
		labels:      labels,
		shipments:   shipments,
		labelFormat: labelFormat,
		logger:      logger,
	}
}

// GetLabel returns the printable label URL for a booked shipment. The
// label stored at purchase time is served directly; aggregator shipments
// with no stored label are re-fetched from the aggregator and the result
// is written back to the record. Carrier-direct labels only exist at
// purchase time, so a missing stored label there is unrecoverable.
func (s *LabelService) GetLabel(ctx context.Context, reference string) (string, error) {
	record, err := s.shipments.GetByReference(ctx, reference)
	if err != nil {
		return "", err
	}
	if record.ShippingLabel != "" {
		return record.ShippingLabel, nil
	}
	if !record.Booked() {
		return "", fmt.Errorf("%w: shipment %s is not booked", shipping.ErrLabelUnavailable, reference)
	}

	switch record.Provider {
	case shipping.ProviderEasyPost:
		return s.fetchAggregatorLabel(ctx, record)
	case shipping.ProviderUPS, shipping.ProviderFedEx:
		return "", fmt.Errorf("%w: no stored label for %s shipment %s",
			shipping.ErrLabelUnavailable, record.Provider, reference)
	default:
		return "", fmt.Errorf("%w: %q", shipping.ErrUnknownProvider, record.Provider)
	}
}

func (s *LabelService) fetchAggregatorLabel(ctx context.Context, record *shipping.ShipmentRecord) (string, error) {
	if s.aggregator == nil {
		return "", fmt.Errorf("%w: aggregator integration is disabled", shipping.ErrCarrierUnavailable)
	}

	assets, err := s.aggregator.GetShippingLabel(ctx, record.ShipmentID, s.labelFormat)
	if err != nil {
		return "", fmt.Errorf("fetching label for %s: %w", record.Reference, err)
	}
	materialized, err := s.labels.Materialize(ctx, assets)
	if err != nil {
		return "", fmt.Errorf("storing label for %s: %w", record.Reference, err)
	}

	record.ShippingLabel = materialized.URL
	if len(record.LabelBundle) == 0 {
		record.LabelBundle = materialized.Bundle
	}
	if err := s.shipments.Update(ctx, record); err != nil {
		return "", fmt.Errorf("recording label on %s: %w", record.Reference, err)
	}

	s.logger.Info("shipping label fetched",
		zap.String("shipment", record.Reference),
		zap.String("shipment_id", record.ShipmentID),
	)
	return materialized.URL, nil
}
