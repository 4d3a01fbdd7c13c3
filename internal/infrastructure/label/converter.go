package label

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// maxLabelDownloadSize bounds remote label downloads.
const maxLabelDownloadSize = 20 * 1024 * 1024

// Thermal label stock is 4x6 inches; merged PDFs use one such page per
// label.
const (
	labelPageWidthIn  = 4.0
	labelPageHeightIn = 6.0
)

// MaterializedLabel is the printable output of label conversion.
type MaterializedLabel struct {
	// URL is the single merged artifact suitable for direct printing.
	URL string
	// Bundle lists the per-package label URLs.
	Bundle []string
}

// Converter turns raw carrier label assets into stored printable files.
type Converter struct {
	store      Store
	httpClient *http.Client
	logger     *zap.Logger
}

// NewConverter creates a label converter backed by the given store.
func NewConverter(store Store, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Materialize converts a set of label assets into one printable artifact.
// Inline carrier images arrive rotated a quarter turn off thermal-stock
// orientation and are rotated upright; multiple raster labels merge into
// a multi-page PDF; ZPL pieces concatenate into one print job. A single
// remote URL is downloaded and re-hosted in local storage.
func (c *Converter) Materialize(ctx context.Context, assets []shipping.LabelAsset) (*MaterializedLabel, error) {
	if len(assets) == 0 {
		return nil, shipping.ErrLabelUnavailable
	}

	var (
		zplPieces []string
		images    [][]byte
		remote    []string
	)
	for _, asset := range assets {
		switch asset.Kind {
		case shipping.LabelKindZPL:
			zplPieces = append(zplPieces, asset.Data)
		case shipping.LabelKindInlineImage:
			raw, _, err := DecodeInlineImage(asset.Data)
			if err != nil {
				return nil, err
			}
			upright, err := rotateClockwise(raw)
			if err != nil {
				return nil, err
			}
			images = append(images, upright)
		case shipping.LabelKindRemoteURL:
			remote = append(remote, asset.Data)
		default:
			return nil, fmt.Errorf("label: unsupported asset kind %q", asset.Kind)
		}
	}

	if len(zplPieces) > 0 {
		if len(images) > 0 || len(remote) > 0 {
			return nil, fmt.Errorf("label: cannot merge ZPL with raster labels")
		}
		return c.materializeZPL(ctx, zplPieces)
	}

	// A lone remote label is re-hosted locally so the printable file
	// outlives the carrier's expiring URL.
	if len(images) == 0 && len(remote) == 1 {
		return c.materializeRemote(ctx, remote[0])
	}

	bundle := make([]string, 0, len(images)+len(remote))
	for _, url := range remote {
		raw, err := c.download(ctx, url)
		if err != nil {
			return nil, err
		}
		images = append(images, raw)
		bundle = append(bundle, url)
	}

	if len(images) == 0 {
		return nil, shipping.ErrLabelUnavailable
	}

	if len(images) == 1 {
		stored, err := c.store.Store(ctx, &StoreRequest{
			Extension:   "png",
			ContentType: "image/png",
			Data:        images[0],
		})
		if err != nil {
			return nil, err
		}
		if len(bundle) == 0 {
			bundle = []string{stored.URL}
		}
		return &MaterializedLabel{URL: stored.URL, Bundle: bundle}, nil
	}

	pdfData, err := imagesToPDF(images)
	if err != nil {
		return nil, err
	}
	stored, err := c.store.Store(ctx, &StoreRequest{
		Extension:   "pdf",
		ContentType: "application/pdf",
		Data:        pdfData,
	})
	if err != nil {
		return nil, err
	}
	if len(bundle) == 0 {
		bundle = []string{stored.URL}
	}
	c.logger.Info("merged labels into PDF",
		zap.Int("pages", len(images)),
		zap.String("url", stored.URL))
	return &MaterializedLabel{URL: stored.URL, Bundle: bundle}, nil
}

func (c *Converter) materializeRemote(ctx context.Context, url string) (*MaterializedLabel, error) {
	raw, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}
	ext := remoteExtension(url)
	stored, err := c.store.Store(ctx, &StoreRequest{
		Extension:   ext,
		ContentType: contentTypeForExtension(ext),
		Data:        raw,
	})
	if err != nil {
		return nil, err
	}
	return &MaterializedLabel{URL: stored.URL, Bundle: []string{url}}, nil
}

func (c *Converter) materializeZPL(ctx context.Context, pieces []string) (*MaterializedLabel, error) {
	stored, err := c.store.Store(ctx, &StoreRequest{
		Extension:   "zpl",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(MergeTextLabels(pieces)),
	})
	if err != nil {
		return nil, err
	}
	return &MaterializedLabel{URL: stored.URL, Bundle: []string{stored.URL}}, nil
}

// remoteExtension pulls the file extension from a label URL, ignoring
// any query string. Carriers that omit one serve PNG.
func remoteExtension(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	ext := strings.TrimPrefix(path.Ext(url), ".")
	if ext == "" {
		return "png"
	}
	return strings.ToLower(ext)
}

func contentTypeForExtension(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "zpl":
		return "text/plain; charset=utf-8"
	default:
		return "image/png"
	}
}

// download fetches a remote label, bounded by maxLabelDownloadSize.
func (c *Converter) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("label: failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("label: failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("label: download of %s returned HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLabelDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("label: failed to read download: %w", err)
	}
	return data, nil
}

// DecodeInlineImage splits a base64 data URI into raw bytes and the image
// extension it declares.
func DecodeInlineImage(dataURI string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURI, "data:image") {
		return nil, "", fmt.Errorf("label: not an image data URI")
	}
	header, encoded, found := strings.Cut(dataURI, ",")
	if !found {
		return nil, "", fmt.Errorf("label: malformed data URI")
	}

	ext := "png"
	if _, mediaType, ok := strings.Cut(header, "/"); ok {
		ext = strings.TrimSuffix(strings.SplitN(mediaType, ";", 2)[0], " ")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("label: failed to decode data URI: %w", err)
	}
	return raw, ext, nil
}

// rotateClockwise rotates a raster label a quarter turn clockwise and
// re-encodes it as PNG.
func rotateClockwise(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("label: failed to decode image: %w", err)
	}

	rotated := imaging.Rotate270(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, rotated, imaging.PNG); err != nil {
		return nil, fmt.Errorf("label: failed to encode rotated image: %w", err)
	}
	return buf.Bytes(), nil
}

// imagesToPDF assembles raster labels into a PDF with one 4x6 page per
// label.
func imagesToPDF(images [][]byte) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "in",
		Size:    fpdf.SizeType{Wd: labelPageWidthIn, Ht: labelPageHeightIn},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for i, raw := range images {
		name := fmt.Sprintf("label-%d", i)
		pdf.RegisterImageOptionsReader(name,
			fpdf.ImageOptions{ImageType: "PNG"},
			bytes.NewReader(raw))
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, labelPageWidthIn, labelPageHeightIn, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("label: failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// MergeTextLabels concatenates ZPL label pieces into one print job,
// separated by a blank line.
func MergeTextLabels(pieces []string) string {
	trimmed := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, "\n\n")
}
