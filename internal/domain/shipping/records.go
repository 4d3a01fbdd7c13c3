package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentStatus tracks a host shipment record through its lifecycle.
type ShipmentStatus string

const (
	ShipmentStatusDraft     ShipmentStatus = "Draft"
	ShipmentStatusBooked    ShipmentStatus = "Booked"
	ShipmentStatusDelivered ShipmentStatus = "Delivered"
	ShipmentStatusCancelled ShipmentStatus = "Cancelled"
)

// ShipmentRecord is the host ERP shipment document. Purchases write the
// carrier booking onto it; the tracking refresher keeps its status current.
type ShipmentRecord struct {
	ID        uuid.UUID
	Reference string // host document name, unique

	Provider       Provider
	ShipmentID     string // carrier correlation id
	Carrier        string
	CarrierService string
	Amount         decimal.Decimal
	AWBNumber      string

	ShippingLabel string   // merged printable artifact URL
	LabelBundle   []string // per-package label URLs

	TrackingStatus     string
	TrackingStatusInfo string
	TrackingURL        string

	Status    ShipmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booked reports whether a carrier purchase has been written to the record.
func (r *ShipmentRecord) Booked() bool {
	return r.Status == ShipmentStatusBooked && r.ShipmentID != ""
}

// DeliveryNoteRecord is a host delivery note linked to a shipment. Carrier
// and tracking fields are propagated from the parent shipment on purchase
// and on every tracking refresh.
type DeliveryNoteRecord struct {
	ID               uuid.UUID
	ShipmentRecordID uuid.UUID
	Reference        string // host document name

	Carrier        string
	CarrierService string
	AWBNumber      string
	TrackingStatus string
	TrackingURL    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShipmentRepository persists host shipment records.
type ShipmentRepository interface {
	Create(ctx context.Context, record *ShipmentRecord) error
	Update(ctx context.Context, record *ShipmentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ShipmentRecord, error)
	GetByReference(ctx context.Context, reference string) (*ShipmentRecord, error)
	// ListUndelivered returns booked records whose tracking status is not
	// terminal, for the daily tracking refresh.
	ListUndelivered(ctx context.Context) ([]*ShipmentRecord, error)
}

// DeliveryNoteRepository persists delivery notes linked to shipments.
type DeliveryNoteRepository interface {
	Create(ctx context.Context, note *DeliveryNoteRecord) error
	Update(ctx context.Context, note *DeliveryNoteRecord) error
	ListByShipment(ctx context.Context, shipmentRecordID uuid.UUID) ([]*DeliveryNoteRecord, error)
}
