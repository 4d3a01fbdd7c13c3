package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/persistence/models"
)

// GormDeliveryNoteRepository implements shipping.DeliveryNoteRepository using GORM
type GormDeliveryNoteRepository struct {
	db *gorm.DB
}

var _ shipping.DeliveryNoteRepository = (*GormDeliveryNoteRepository)(nil)

// NewGormDeliveryNoteRepository creates a new GormDeliveryNoteRepository
func NewGormDeliveryNoteRepository(db *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormDeliveryNoteRepository) WithTx(tx *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: tx}
}

// Create creates a new delivery note record
func (r *GormDeliveryNoteRepository) Create(ctx context.Context, note *shipping.DeliveryNoteRecord) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	var model models.DeliveryNoteRecordModel
	model.FromDomain(note)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to create delivery note record: %w", err)
	}
	return nil
}

// Update saves the full state of an existing delivery note record
func (r *GormDeliveryNoteRepository) Update(ctx context.Context, note *shipping.DeliveryNoteRecord) error {
	var model models.DeliveryNoteRecordModel
	model.FromDomain(note)

	result := r.db.WithContext(ctx).
		Model(&models.DeliveryNoteRecordModel{}).
		Where("id = ?", note.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to update delivery note record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shipping.ErrRecordNotFound
	}
	return nil
}

// ListByShipment returns all delivery notes linked to a shipment record
func (r *GormDeliveryNoteRepository) ListByShipment(ctx context.Context, shipmentRecordID uuid.UUID) ([]*shipping.DeliveryNoteRecord, error) {
	var found []models.DeliveryNoteRecordModel
	err := r.db.WithContext(ctx).
		Where("shipment_record_id = ?", shipmentRecordID).
		Order("reference").
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery notes: %w", err)
	}

	notes := make([]*shipping.DeliveryNoteRecord, 0, len(found))
	for i := range found {
		notes = append(notes, found[i].ToDomain())
	}
	return notes, nil
}
