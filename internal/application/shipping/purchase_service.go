package shipping

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/label"
)

// LabelMaterializer converts raw carrier label assets into one stored
// printable artifact. Satisfied by the infrastructure label converter.
type LabelMaterializer interface {
	Materialize(ctx context.Context, assets []shipping.LabelAsset) (*label.MaterializedLabel, error)
}

// PurchaseService buys the service a quote describes and records the
// booking on the host shipment document.
type PurchaseService struct {
	aggregator shipping.Aggregator
	ups        shipping.LabelPurchaser
	fedex      shipping.LabelPurchaser
	labels     LabelMaterializer
	shipments  shipping.ShipmentRepository
	notes      shipping.DeliveryNoteRepository
	logger     *zap.Logger
}

// NewPurchaseService creates a purchase service. Carrier integrations may
// be nil when disabled; purchasing against a disabled provider fails.
func NewPurchaseService(
	aggregator shipping.Aggregator,
	ups shipping.LabelPurchaser,
	fedex shipping.LabelPurchaser,
	labels LabelMaterializer,
	shipments shipping.ShipmentRepository,
	notes shipping.DeliveryNoteRepository,
	logger *zap.Logger,
) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		aggregator: aggregator,
		ups:        ups,
		fedex:      fedex,
		labels:     labels,
		shipments:  shipments,
		notes:      notes,
		logger:     logger,
	}
}

// CreateShipment purchases the quoted service, materializes the returned
// labels into one printable artifact, writes the booking onto the host
// shipment record (status Booked) and propagates carrier fields to the
// linked delivery notes. The updated record is returned.
func (s *PurchaseService) CreateShipment(ctx context.Context, in CreateShipmentInput) (*shipping.ShipmentRecord, error) {
	purchaser, err := s.purchaser(in.Quote.Provider)
	if err != nil {
		return nil, err
	}

	result, assets, err := purchaser.Purchase(ctx, in.Quote)
	if err != nil {
		return nil, fmt.Errorf("purchasing %s service for %s: %w", in.Quote.Provider, in.Reference, err)
	}
	if result.Provider == "" {
		result.Provider = in.Quote.Provider
	}

	if len(assets) > 0 {
		materialized, err := s.labels.Materialize(ctx, assets)
		if err != nil {
			return nil, fmt.Errorf("storing label for %s: %w", in.Reference, err)
		}
		result.ShippingLabel = materialized.URL
		if len(result.LabelBundle) == 0 {
			result.LabelBundle = materialized.Bundle
		}
	}

	record, err := s.bookRecord(ctx, in.Reference, result)
	if err != nil {
		return nil, err
	}

	if err := s.propagateToDeliveryNotes(ctx, record, in.DeliveryNotes); err != nil {
		return nil, err
	}

	s.logger.Info("shipment booked",
		zap.String("shipment", in.Reference),
		zap.String("provider", string(result.Provider)),
		zap.String("carrier", result.Carrier),
		zap.String("shipment_id", result.ShipmentID),
		zap.String("awb_number", result.AWBNumber),
	)
	return record, nil
}

func (s *PurchaseService) purchaser(provider shipping.Provider) (shipping.LabelPurchaser, error) {
	var p shipping.LabelPurchaser
	switch provider {
	case shipping.ProviderEasyPost:
		p = s.aggregator
	case shipping.ProviderUPS:
		p = s.ups
	case shipping.ProviderFedEx:
		p = s.fedex
	default:
		return nil, fmt.Errorf("%w: %q", shipping.ErrUnknownProvider, provider)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s integration is disabled", shipping.ErrCarrierUnavailable, provider)
	}
	return p, nil
}

// bookRecord writes the purchase onto the host shipment record, creating
// the record when the host document has not been seen before.
func (s *PurchaseService) bookRecord(ctx context.Context, reference string, result *shipping.PurchaseResult) (*shipping.ShipmentRecord, error) {
	record, err := s.shipments.GetByReference(ctx, reference)
	if err != nil {
		record = &shipping.ShipmentRecord{Reference: reference}
		if createErr := s.shipments.Create(ctx, record); createErr != nil {
			return nil, fmt.Errorf("creating shipment record %s: %w", reference, createErr)
		}
	}

	record.Provider = result.Provider
	record.ShipmentID = result.ShipmentID
	record.Carrier = result.Carrier
	record.CarrierService = result.CarrierService
	record.Amount = result.Amount
	record.AWBNumber = result.AWBNumber
	record.ShippingLabel = result.ShippingLabel
	record.LabelBundle = result.LabelBundle
	record.Status = shipping.ShipmentStatusBooked

	if err := s.shipments.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("recording booking on %s: %w", reference, err)
	}
	return record, nil
}

// propagateToDeliveryNotes writes the booked carrier and service onto the
// linked delivery note records, creating them on first sight.
func (s *PurchaseService) propagateToDeliveryNotes(ctx context.Context, record *shipping.ShipmentRecord, references []string) error {
	if len(references) == 0 {
		return nil
	}

	existing, err := s.notes.ListByShipment(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("listing delivery notes for %s: %w", record.Reference, err)
	}
	byReference := make(map[string]*shipping.DeliveryNoteRecord, len(existing))
	for _, note := range existing {
		byReference[note.Reference] = note
	}

	seen := make(map[string]bool, len(references))
	for _, reference := range references {
		if reference == "" || seen[reference] {
			continue
		}
		seen[reference] = true

		note, ok := byReference[reference]
		if !ok {
			note = &shipping.DeliveryNoteRecord{
				ShipmentRecordID: record.ID,
				Reference:        reference,
			}
		}
		note.Carrier = record.Carrier
		note.CarrierService = record.CarrierService
		note.AWBNumber = record.AWBNumber

		if ok {
			err = s.notes.Update(ctx, note)
		} else {
			err = s.notes.Create(ctx, note)
		}
		if err != nil {
			return fmt.Errorf("updating delivery note %s: %w", reference, err)
		}
	}
	return nil
}
