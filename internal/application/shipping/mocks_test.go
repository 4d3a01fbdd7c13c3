package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/label"
)

// MockAggregator is a mock implementation of shipping.Aggregator
type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) Provider() shipping.Provider {
	return shipping.ProviderEasyPost
}

func (m *MockAggregator) GetQuotes(ctx context.Context, req shipping.RateRequest) ([]shipping.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Quote), args.Error(1)
}

func (m *MockAggregator) Purchase(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	args := m.Called(ctx, q)
	var result *shipping.PurchaseResult
	if args.Get(0) != nil {
		result = args.Get(0).(*shipping.PurchaseResult)
	}
	var assets []shipping.LabelAsset
	if args.Get(1) != nil {
		assets = args.Get(1).([]shipping.LabelAsset)
	}
	return result, assets, args.Error(2)
}

func (m *MockAggregator) GetShippingLabel(ctx context.Context, shipmentID, format string) ([]shipping.LabelAsset, error) {
	args := m.Called(ctx, shipmentID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.LabelAsset), args.Error(1)
}

func (m *MockAggregator) GetTrackingData(ctx context.Context, shipmentID string) (*shipping.TrackingData, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.TrackingData), args.Error(1)
}

func (m *MockAggregator) RegisterTracker(ctx context.Context, trackingCode, carrier string) (*shipping.TrackingData, error) {
	args := m.Called(ctx, trackingCode, carrier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.TrackingData), args.Error(1)
}

// MockRateSource is a mock implementation of shipping.RateSource
type MockRateSource struct {
	mock.Mock
	provider shipping.Provider
}

func (m *MockRateSource) Provider() shipping.Provider {
	return m.provider
}

func (m *MockRateSource) GetQuotes(ctx context.Context, req shipping.RateRequest) ([]shipping.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Quote), args.Error(1)
}

// MockPurchaser is a mock implementation of shipping.LabelPurchaser
type MockPurchaser struct {
	mock.Mock
	provider shipping.Provider
}

func (m *MockPurchaser) Provider() shipping.Provider {
	return m.provider
}

func (m *MockPurchaser) Purchase(ctx context.Context, q shipping.Quote) (*shipping.PurchaseResult, []shipping.LabelAsset, error) {
	args := m.Called(ctx, q)
	var result *shipping.PurchaseResult
	if args.Get(0) != nil {
		result = args.Get(0).(*shipping.PurchaseResult)
	}
	var assets []shipping.LabelAsset
	if args.Get(1) != nil {
		assets = args.Get(1).([]shipping.LabelAsset)
	}
	return result, assets, args.Error(2)
}

// MockMaterializer is a mock implementation of LabelMaterializer
type MockMaterializer struct {
	mock.Mock
}

func (m *MockMaterializer) Materialize(ctx context.Context, assets []shipping.LabelAsset) (*label.MaterializedLabel, error) {
	args := m.Called(ctx, assets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*label.MaterializedLabel), args.Error(1)
}

// MockShipmentRepository is a mock implementation of shipping.ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(ctx context.Context, record *shipping.ShipmentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockShipmentRepository) Update(ctx context.Context, record *shipping.ShipmentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*shipping.ShipmentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShipmentRecord), args.Error(1)
}

func (m *MockShipmentRepository) GetByReference(ctx context.Context, reference string) (*shipping.ShipmentRecord, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShipmentRecord), args.Error(1)
}

func (m *MockShipmentRepository) ListUndelivered(ctx context.Context) ([]*shipping.ShipmentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shipping.ShipmentRecord), args.Error(1)
}

// MockDeliveryNoteRepository is a mock implementation of shipping.DeliveryNoteRepository
type MockDeliveryNoteRepository struct {
	mock.Mock
}

func (m *MockDeliveryNoteRepository) Create(ctx context.Context, note *shipping.DeliveryNoteRecord) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockDeliveryNoteRepository) Update(ctx context.Context, note *shipping.DeliveryNoteRecord) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockDeliveryNoteRepository) ListByShipment(ctx context.Context, shipmentRecordID uuid.UUID) ([]*shipping.DeliveryNoteRecord, error) {
	args := m.Called(ctx, shipmentRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shipping.DeliveryNoteRecord), args.Error(1)
}
