package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/persistence/models"
)

// GormShipmentRepository implements shipping.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

var _ shipping.ShipmentRepository = (*GormShipmentRepository)(nil)

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormShipmentRepository) WithTx(tx *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: tx}
}

// Create creates a new shipment record
func (r *GormShipmentRepository) Create(ctx context.Context, record *shipping.ShipmentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = shipping.ShipmentStatusDraft
	}

	var model models.ShipmentRecordModel
	model.FromDomain(record)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to create shipment record: %w", err)
	}
	return nil
}

// Update saves the full state of an existing shipment record
func (r *GormShipmentRepository) Update(ctx context.Context, record *shipping.ShipmentRecord) error {
	var model models.ShipmentRecordModel
	model.FromDomain(record)

	result := r.db.WithContext(ctx).
		Model(&models.ShipmentRecordModel{}).
		Where("id = ?", record.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to update shipment record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shipping.ErrRecordNotFound
	}
	return nil
}

// GetByID loads a shipment record by its primary key
func (r *GormShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*shipping.ShipmentRecord, error) {
	var model models.ShipmentRecordModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shipping.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load shipment record: %w", err)
	}
	return model.ToDomain(), nil
}

// GetByReference loads a shipment record by its host document name
func (r *GormShipmentRepository) GetByReference(ctx context.Context, reference string) (*shipping.ShipmentRecord, error) {
	var model models.ShipmentRecordModel
	err := r.db.WithContext(ctx).First(&model, "reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shipping.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load shipment record: %w", err)
	}
	return model.ToDomain(), nil
}

// ListUndelivered returns booked records still awaiting delivery
func (r *GormShipmentRepository) ListUndelivered(ctx context.Context) ([]*shipping.ShipmentRecord, error) {
	var found []models.ShipmentRecordModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(shipping.ShipmentStatusBooked)).
		Where("shipment_id <> ''").
		Order("created_at").
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list undelivered shipments: %w", err)
	}

	records := make([]*shipping.ShipmentRecord, 0, len(found))
	for i := range found {
		records = append(records, found[i].ToDomain())
	}
	return records, nil
}
