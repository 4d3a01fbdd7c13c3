package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
	"github.com/caseclub/erpnext-shipping/internal/infrastructure/logger"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestHeaderID)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// DomainError maps a domain error onto its error code and status.
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	code := dto.ErrCodeInternal
	switch {
	case errors.Is(err, shipping.ErrRecordNotFound):
		code = dto.ErrCodeNotFound
	case errors.Is(err, shipping.ErrLabelUnavailable):
		code = dto.ErrCodeLabelUnavailable
	case errors.Is(err, shipping.ErrUnknownProvider):
		code = dto.ErrCodeUnknownProvider
	case errors.Is(err, shipping.ErrInvalidBillingAccount),
		errors.Is(err, shipping.ErrInvalidBillingZip):
		code = dto.ErrCodeInvalidBilling
	case errors.Is(err, shipping.ErrCarrierUnavailable):
		code = dto.ErrCodeCarrierUnavailable
	case errors.Is(err, shipping.ErrCarrierRequestFailed):
		code = dto.ErrCodeCarrierRejected
	}
	h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
}
