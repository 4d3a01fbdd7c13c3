package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// ShipmentRecordModel is the persistence model for the ShipmentRecord
// domain entity.
type ShipmentRecordModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Reference string    `gorm:"type:varchar(140);not null;uniqueIndex:idx_shipment_reference"`

	Provider       string          `gorm:"type:varchar(20)"`
	ShipmentID     string          `gorm:"type:varchar(100);index:idx_shipment_carrier_id"`
	Carrier        string          `gorm:"type:varchar(50)"`
	CarrierService string          `gorm:"type:varchar(100)"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2)"`
	AWBNumber      string          `gorm:"type:varchar(255)"`

	ShippingLabel   string `gorm:"type:text"`
	LabelBundleJSON string `gorm:"type:text;column:label_bundle"`

	TrackingStatus     string `gorm:"type:varchar(50)"`
	TrackingStatusInfo string `gorm:"type:varchar(255)"`
	TrackingURL        string `gorm:"type:text"`

	Status    string    `gorm:"type:varchar(20);not null;default:'Draft';index:idx_shipment_status"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentRecordModel) TableName() string {
	return "shipment_records"
}

// ToDomain converts the persistence model to a domain ShipmentRecord.
func (m *ShipmentRecordModel) ToDomain() *shipping.ShipmentRecord {
	record := &shipping.ShipmentRecord{
		ID:                 m.ID,
		Reference:          m.Reference,
		Provider:           shipping.Provider(m.Provider),
		ShipmentID:         m.ShipmentID,
		Carrier:            m.Carrier,
		CarrierService:     m.CarrierService,
		Amount:             m.Amount,
		AWBNumber:          m.AWBNumber,
		ShippingLabel:      m.ShippingLabel,
		TrackingStatus:     m.TrackingStatus,
		TrackingStatusInfo: m.TrackingStatusInfo,
		TrackingURL:        m.TrackingURL,
		Status:             shipping.ShipmentStatus(m.Status),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}

	if m.LabelBundleJSON != "" {
		var bundle []string
		if err := json.Unmarshal([]byte(m.LabelBundleJSON), &bundle); err == nil {
			record.LabelBundle = bundle
		}
	}

	return record
}

// FromDomain populates the persistence model from a domain ShipmentRecord.
func (m *ShipmentRecordModel) FromDomain(r *shipping.ShipmentRecord) {
	m.ID = r.ID
	m.Reference = r.Reference
	m.Provider = string(r.Provider)
	m.ShipmentID = r.ShipmentID
	m.Carrier = r.Carrier
	m.CarrierService = r.CarrierService
	m.Amount = r.Amount
	m.AWBNumber = r.AWBNumber
	m.ShippingLabel = r.ShippingLabel
	m.TrackingStatus = r.TrackingStatus
	m.TrackingStatusInfo = r.TrackingStatusInfo
	m.TrackingURL = r.TrackingURL
	m.Status = string(r.Status)
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt

	if len(r.LabelBundle) > 0 {
		if data, err := json.Marshal(r.LabelBundle); err == nil {
			m.LabelBundleJSON = string(data)
		}
	} else {
		m.LabelBundleJSON = ""
	}
}

// DeliveryNoteRecordModel is the persistence model for the
// DeliveryNoteRecord domain entity.
type DeliveryNoteRecordModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	ShipmentRecordID uuid.UUID `gorm:"type:uuid;not null;index:idx_delivery_note_shipment"`
	Reference        string    `gorm:"type:varchar(140);not null;index:idx_delivery_note_reference"`

	Carrier        string `gorm:"type:varchar(50)"`
	CarrierService string `gorm:"type:varchar(100)"`
	AWBNumber      string `gorm:"type:varchar(255)"`
	TrackingStatus string `gorm:"type:varchar(50)"`
	TrackingURL    string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeliveryNoteRecordModel) TableName() string {
	return "delivery_note_records"
}

// ToDomain converts the persistence model to a domain DeliveryNoteRecord.
func (m *DeliveryNoteRecordModel) ToDomain() *shipping.DeliveryNoteRecord {
	return &shipping.DeliveryNoteRecord{
		ID:               m.ID,
		ShipmentRecordID: m.ShipmentRecordID,
		Reference:        m.Reference,
		Carrier:          m.Carrier,
		CarrierService:   m.CarrierService,
		AWBNumber:        m.AWBNumber,
		TrackingStatus:   m.TrackingStatus,
		TrackingURL:      m.TrackingURL,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain DeliveryNoteRecord.
func (m *DeliveryNoteRecordModel) FromDomain(n *shipping.DeliveryNoteRecord) {
	m.ID = n.ID
	m.ShipmentRecordID = n.ShipmentRecordID
	m.Reference = n.Reference
	m.Carrier = n.Carrier
	m.CarrierService = n.CarrierService
	m.AWBNumber = n.AWBNumber
	m.TrackingStatus = n.TrackingStatus
	m.TrackingURL = n.TrackingURL
	m.CreatedAt = n.CreatedAt
	m.UpdatedAt = n.UpdatedAt
}
