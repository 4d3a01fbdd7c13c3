package handler

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caseclub/erpnext-shipping/internal/infrastructure/label"
)

// labelContentTypes maps stored label extensions to their MIME types.
var labelContentTypes = map[string]string{
	".png": "image/png",
	".pdf": "application/pdf",
	".zpl": "text/plain; charset=utf-8",
}

// LabelHandler serves stored label files
type LabelHandler struct {
	BaseHandler
	store label.Store
}

// NewLabelHandler creates a new LabelHandler
func NewLabelHandler(store label.Store) *LabelHandler {
	return &LabelHandler{store: store}
}

// Serve handles GET /labels/*filename
func (h *LabelHandler) Serve(c *gin.Context) {
	filename := strings.TrimPrefix(c.Param("filename"), "/")

	reader, err := h.store.Get(c.Request.Context(), filename)
	if err != nil {
		h.NotFound(c, "label not found")
		return
	}
	defer reader.Close()

	contentType := "application/octet-stream"
	if ct, ok := labelContentTypes[strings.ToLower(path.Ext(filename))]; ok {
		contentType = ct
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
