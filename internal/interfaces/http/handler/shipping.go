package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appshipping "github.com/caseclub/erpnext-shipping/internal/application/shipping"
	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/dto"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/middleware"
)

// RateFetcher shops rates across the configured carriers.
type RateFetcher interface {
	FetchShippingRates(ctx context.Context, in appshipping.FetchRatesInput) ([]shipping.Quote, error)
}

// ShipmentCreator purchases a quoted service and books it.
type ShipmentCreator interface {
	CreateShipment(ctx context.Context, in appshipping.CreateShipmentInput) (*shipping.ShipmentRecord, error)
}

// LabelGetter serves the printable label for a booked shipment.
type LabelGetter interface {
	GetLabel(ctx context.Context, reference string) (string, error)
}

// TrackingUpdater refreshes tracking data for a booked shipment.
type TrackingUpdater interface {
	UpdateTracking(ctx context.Context, reference string) (*shipping.TrackingData, error)
}

// ShippingHandler handles rate shopping, purchasing, labels and tracking
type ShippingHandler struct {
	BaseHandler
	rates    RateFetcher
	purchase ShipmentCreator
	labels   LabelGetter
	tracking TrackingUpdater
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(
	rates RateFetcher,
	purchase ShipmentCreator,
	labels LabelGetter,
	tracking TrackingUpdater,
) *ShippingHandler {
	return &ShippingHandler{
		rates:    rates,
		purchase: purchase,
		labels:   labels,
		tracking: tracking,
	}
}

// FetchRates handles POST /shipments/rates
// Quotes from every applicable carrier, sorted ascending by total price.
func (h *ShippingHandler) FetchRates(c *gin.Context) {
	var req FetchRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	quotes, err := h.rates.FetchShippingRates(c.Request.Context(), req.toInput())
	if err != nil {
		h.DomainError(c, err)
		return
	}

	appshipping.SortQuotesByPrice(quotes)
	if quotes == nil {
		quotes = []shipping.Quote{}
	}
	h.Success(c, quotes)
}

// CreateShipment handles POST /shipments
func (h *ShippingHandler) CreateShipment(c *gin.Context) {
	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if !req.Rate.Provider.Valid() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeUnknownProvider, "unsupported service provider: "+string(req.Rate.Provider))
		return
	}

	record, err := h.purchase.CreateShipment(c.Request.Context(), appshipping.CreateShipmentInput{
		Reference:     req.Shipment,
		Quote:         req.Rate,
		DeliveryNotes: req.DeliveryNotes,
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, shipmentResponseFrom(record))
}

// GetLabel handles GET /shipments/:reference/label
func (h *ShippingHandler) GetLabel(c *gin.Context) {
	reference := c.Param("reference")

	url, err := h.labels.GetLabel(c.Request.Context(), reference)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, LabelResponse{Shipment: reference, ShippingLabel: url})
}

// UpdateTracking handles POST /shipments/:reference/tracking
func (h *ShippingHandler) UpdateTracking(c *gin.Context) {
	reference := c.Param("reference")

	tracking, err := h.tracking.UpdateTracking(c.Request.Context(), reference)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, tracking)
}
