package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/persistence/models"
)

// setupShippingTestDB creates an in-memory SQLite database for testing
func setupShippingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.ShipmentRecordModel{}, &models.DeliveryNoteRecordModel{})
	require.NoError(t, err)

	return db
}

func TestGormShipmentRepository_CreateAndGet(t *testing.T) {
	db := setupShippingTestDB(t)
	repo := NewGormShipmentRepository(db)
	ctx := context.Background()

	record := &shipping.ShipmentRecord{
		Reference:      "SHIP-2026-00042",
		Provider:       shipping.ProviderEasyPost,
		ShipmentID:     "shp_123",
		Carrier:        "USPS",
		CarrierService: "Priority",
		Amount:         decimal.RequireFromString("14.80"),
		AWBNumber:      "9400100000000000000001",
		ShippingLabel:  "http://erp.local/api/v1/labels/2026/08/a.png",
		LabelBundle:    []string{"http://erp.local/api/v1/labels/2026/08/a.png"},
		Status:         shipping.ShipmentStatusBooked,
	}

	require.NoError(t, repo.Create(ctx, record))
	assert.NotEqual(t, uuid.Nil, record.ID)

	t.Run("by id", func(t *testing.T) {
		loaded, err := repo.GetByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "SHIP-2026-00042", loaded.Reference)
		assert.Equal(t, shipping.ProviderEasyPost, loaded.Provider)
		assert.True(t, loaded.Amount.Equal(decimal.RequireFromString("14.80")))
		assert.Equal(t, []string{"http://erp.local/api/v1/labels/2026/08/a.png"}, loaded.LabelBundle)
		assert.True(t, loaded.Booked())
	})

	t.Run("by reference", func(t *testing.T) {
		loaded, err := repo.GetByReference(ctx, "SHIP-2026-00042")
		require.NoError(t, err)
		assert.Equal(t, record.ID, loaded.ID)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shipping.ErrRecordNotFound)
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := repo.GetByReference(ctx, "SHIP-0000")
		assert.ErrorIs(t, err, shipping.ErrRecordNotFound)
	})
}

func TestGormShipmentRepository_CreateDefaultsStatus(t *testing.T) {
	db := setupShippingTestDB(t)
	repo := NewGormShipmentRepository(db)

	record := &shipping.ShipmentRecord{Reference: "SHIP-2026-00001"}
	require.NoError(t, repo.Create(context.Background(), record))

	loaded, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.ShipmentStatusDraft, loaded.Status)
	assert.False(t, loaded.Booked())
}

func TestGormShipmentRepository_Update(t *testing.T) {
	db := setupShippingTestDB(t)
	repo := NewGormShipmentRepository(db)
	ctx := context.Background()

	record := &shipping.ShipmentRecord{Reference: "SHIP-2026-00002"}
	require.NoError(t, repo.Create(ctx, record))

	record.Provider = shipping.ProviderUPS
	record.ShipmentID = "1Z999AA10123456784"
	record.Carrier = "UPS"
	record.CarrierService = "UPS Ground"
	record.Amount = decimal.RequireFromString("22.15")
	record.AWBNumber = "1Z999AA10123456784"
	record.Status = shipping.ShipmentStatusBooked
	require.NoError(t, repo.Update(ctx, record))

	loaded, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.ProviderUPS, loaded.Provider)
	assert.Equal(t, "UPS Ground", loaded.CarrierService)
	assert.Equal(t, shipping.ShipmentStatusBooked, loaded.Status)

	t.Run("missing record", func(t *testing.T) {
		ghost := &shipping.ShipmentRecord{ID: uuid.New(), Reference: "SHIP-GHOST"}
		err := repo.Update(ctx, ghost)
		assert.ErrorIs(t, err, shipping.ErrRecordNotFound)
	})
}

func TestGormShipmentRepository_ListUndelivered(t *testing.T) {
	db := setupShippingTestDB(t)
	repo := NewGormShipmentRepository(db)
	ctx := context.Background()

	booked := &shipping.ShipmentRecord{
		Reference:  "SHIP-BOOKED",
		ShipmentID: "shp_1",
		Status:     shipping.ShipmentStatusBooked,
	}
	draft := &shipping.ShipmentRecord{Reference: "SHIP-DRAFT"}
	delivered := &shipping.ShipmentRecord{
		Reference:  "SHIP-DELIVERED",
		ShipmentID: "shp_2",
		Status:     shipping.ShipmentStatusDelivered,
	}
	unbooked := &shipping.ShipmentRecord{
		Reference: "SHIP-NO-CARRIER-ID",
		Status:    shipping.ShipmentStatusBooked,
	}
	for _, r := range []*shipping.ShipmentRecord{booked, draft, delivered, unbooked} {
		require.NoError(t, repo.Create(ctx, r))
	}

	records, err := repo.ListUndelivered(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SHIP-BOOKED", records[0].Reference)
}

func TestGormDeliveryNoteRepository(t *testing.T) {
	db := setupShippingTestDB(t)
	shipments := NewGormShipmentRepository(db)
	notes := NewGormDeliveryNoteRepository(db)
	ctx := context.Background()

	record := &shipping.ShipmentRecord{Reference: "SHIP-2026-00010"}
	require.NoError(t, shipments.Create(ctx, record))

	first := &shipping.DeliveryNoteRecord{
		ShipmentRecordID: record.ID,
		Reference:        "DN-2026-00001",
	}
	second := &shipping.DeliveryNoteRecord{
		ShipmentRecordID: record.ID,
		Reference:        "DN-2026-00002",
	}
	other := &shipping.DeliveryNoteRecord{
		ShipmentRecordID: uuid.New(),
		Reference:        "DN-OTHER",
	}
	for _, n := range []*shipping.DeliveryNoteRecord{second, first, other} {
		require.NoError(t, notes.Create(ctx, n))
	}

	t.Run("list by shipment ordered by reference", func(t *testing.T) {
		listed, err := notes.ListByShipment(ctx, record.ID)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "DN-2026-00001", listed[0].Reference)
		assert.Equal(t, "DN-2026-00002", listed[1].Reference)
	})

	t.Run("update propagates tracking fields", func(t *testing.T) {
		first.Carrier = "FedEx"
		first.CarrierService = "FEDEX_GROUND"
		first.AWBNumber = "77770, 77771"
		first.TrackingStatus = "In Transit"
		require.NoError(t, notes.Update(ctx, first))

		listed, err := notes.ListByShipment(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "77770, 77771", listed[0].AWBNumber)
		assert.Equal(t, "In Transit", listed[0].TrackingStatus)
	})

	t.Run("update missing note", func(t *testing.T) {
		ghost := &shipping.DeliveryNoteRecord{ID: uuid.New(), Reference: "DN-GHOST"}
		assert.ErrorIs(t, notes.Update(ctx, ghost), shipping.ErrRecordNotFound)
	})
}
