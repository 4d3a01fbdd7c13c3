package shipping

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// deliveredStatus is the aggregator's terminal tracking status.
const deliveredStatus = "delivered"

// TrackingService refreshes tracking data on booked shipment records and
// their linked delivery notes.
//
// Aggregator shipments are read back from the aggregator directly.
// Carrier-direct shipments cannot be read with the purchasing credentials
// once third-party billed, so their tracking numbers ride the aggregator's
// tracker facility instead.
type TrackingService struct {
	aggregator shipping.Aggregator
	shipments  shipping.ShipmentRepository
	notes      shipping.DeliveryNoteRepository
	logger     *zap.Logger
}

// NewTrackingService creates a tracking service.
func NewTrackingService(
	aggregator shipping.Aggregator,
	shipments shipping.ShipmentRepository,
	notes shipping.DeliveryNoteRepository,
	logger *zap.Logger,
) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		aggregator: aggregator,
		shipments:  shipments,
		notes:      notes,
		logger:     logger,
	}
}

// UpdateTracking fetches the current tracking snapshot for a booked
// shipment, writes it onto the record and its delivery notes, and returns
// it. A delivered snapshot moves the record to the Delivered status.
func (s *TrackingService) UpdateTracking(ctx context.Context, reference string) (*shipping.TrackingData, error) {
	record, err := s.shipments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.refreshRecord(ctx, record)
}

// RefreshUndelivered walks every booked, undelivered shipment and updates
// its tracking data. Per-record failures are logged and skipped so one
// broken shipment cannot stall the daily refresh. Returns the number of
// records updated.
func (s *TrackingService) RefreshUndelivered(ctx context.Context) (int, error) {
	records, err := s.shipments.ListUndelivered(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing undelivered shipments: %w", err)
	}

	updated := 0
	for _, record := range records {
		if _, err := s.refreshRecord(ctx, record); err != nil {
			s.logger.Warn("tracking refresh failed",
				zap.String("shipment", record.Reference),
				zap.String("provider", string(record.Provider)),
				zap.Error(err),
			)
			continue
		}
		updated++
	}

	s.logger.Info("tracking refresh completed",
		zap.Int("total", len(records)),
		zap.Int("updated", updated),
	)
	return updated, nil
}

func (s *TrackingService) refreshRecord(ctx context.Context, record *shipping.ShipmentRecord) (*shipping.TrackingData, error) {
	if !record.Booked() {
		return nil, fmt.Errorf("shipment %s has no carrier booking", record.Reference)
	}
	if s.aggregator == nil {
		return nil, fmt.Errorf("%w: aggregator integration is disabled", shipping.ErrCarrierUnavailable)
	}

	var (
		tracking *shipping.TrackingData
		err      error
	)
	switch record.Provider {
	case shipping.ProviderEasyPost:
		tracking, err = s.aggregator.GetTrackingData(ctx, record.ShipmentID)
	case shipping.ProviderUPS, shipping.ProviderFedEx:
		code := firstTrackingCode(record.AWBNumber)
		if code == "" {
			return nil, fmt.Errorf("shipment %s has no tracking number", record.Reference)
		}
		tracking, err = s.aggregator.RegisterTracker(ctx, code, strings.ToLower(string(record.Provider)))
	default:
		return nil, fmt.Errorf("%w: %q", shipping.ErrUnknownProvider, record.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching tracking for %s: %w", record.Reference, err)
	}

	if tracking.AWBNumber != "" {
		record.AWBNumber = tracking.AWBNumber
	}
	record.TrackingStatus = tracking.Status
	record.TrackingStatusInfo = tracking.StatusDetail
	record.TrackingURL = tracking.URL
	if strings.EqualFold(tracking.Status, deliveredStatus) {
		record.Status = shipping.ShipmentStatusDelivered
	}

	if err := s.shipments.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("recording tracking on %s: %w", record.Reference, err)
	}
	// The shipment already carries the fresh tracking data; a delivery
	// note that fails to sync is caught on the next poll.
	if err := s.propagateTracking(ctx, record); err != nil {
		s.logger.Warn("failed to propagate tracking to delivery notes",
			zap.String("shipment", record.Reference),
			zap.Error(err))
	}
	return tracking, nil
}

// propagateTracking copies the shipment's tracking fields onto its linked
// delivery notes.
func (s *TrackingService) propagateTracking(ctx context.Context, record *shipping.ShipmentRecord) error {
	notes, err := s.notes.ListByShipment(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("listing delivery notes for %s: %w", record.Reference, err)
	}
	for _, note := range notes {
		note.AWBNumber = record.AWBNumber
		note.TrackingStatus = record.TrackingStatus
		note.TrackingURL = record.TrackingURL
		if err := s.notes.Update(ctx, note); err != nil {
			return fmt.Errorf("updating delivery note %s: %w", note.Reference, err)
		}
	}
	return nil
}

// firstTrackingCode extracts the first tracking number from a comma-joined
// multi-parcel AWB string.
func firstTrackingCode(awb string) string {
	first, _, _ := strings.Cut(awb, ",")
	return strings.TrimSpace(first)
}
