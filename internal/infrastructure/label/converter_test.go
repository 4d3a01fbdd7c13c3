package label

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseclub/erpnext-shipping/internal/domain/shipping"
)

// testPNG renders a small marker image: the top-left pixel is red so
// rotation can be verified by where it lands.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func inlineAsset(t *testing.T, raw []byte) shipping.LabelAsset {
	t.Helper()
	return shipping.LabelAsset{
		Kind: shipping.LabelKindInlineImage,
		Data: "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
	}
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	return NewConverter(newTestStore(t), nil)
}

func TestDecodeInlineImage(t *testing.T) {
	raw := []byte("png-bytes")
	uri := "data:image/gif;base64," + base64.StdEncoding.EncodeToString(raw)

	decoded, ext, err := DecodeInlineImage(uri)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
	assert.Equal(t, "gif", ext)

	t.Run("rejects plain URL", func(t *testing.T) {
		_, _, err := DecodeInlineImage("https://labels.example.com/a.png")
		assert.Error(t, err)
	})

	t.Run("rejects bad base64", func(t *testing.T) {
		_, _, err := DecodeInlineImage("data:image/png;base64,!!!")
		assert.Error(t, err)
	})
}

func TestRotateClockwise(t *testing.T) {
	rotated, err := rotateClockwise(testPNG(t, 4, 6))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(rotated))
	require.NoError(t, err)

	// Dimensions swap on a quarter turn.
	bounds := img.Bounds()
	assert.Equal(t, 6, bounds.Dx())
	assert.Equal(t, 4, bounds.Dy())

	// The top-left marker lands in the top-right corner.
	r, _, _, _ := img.At(bounds.Dx()-1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestMergeTextLabels(t *testing.T) {
	merged := MergeTextLabels([]string{"^XA^FDOne^XZ", "^XA^FDTwo^XZ"})
	assert.Equal(t, "^XA^FDOne^XZ\n\n^XA^FDTwo^XZ", merged)

	t.Run("blank pieces dropped", func(t *testing.T) {
		assert.Equal(t, "^XA^XZ", MergeTextLabels([]string{"", "  ", "^XA^XZ"}))
	})

	t.Run("single piece unchanged", func(t *testing.T) {
		assert.Equal(t, "^XA^XZ", MergeTextLabels([]string{"^XA^XZ"}))
	})
}

func TestMaterializeSingleInlineImage(t *testing.T) {
	converter := newTestConverter(t)

	result, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		inlineAsset(t, testPNG(t, 4, 6)),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.URL, ".png"))
	assert.Equal(t, []string{result.URL}, result.Bundle)
}

func TestMaterializeMultipleImagesBecomesPDF(t *testing.T) {
	store := newTestStore(t)
	converter := NewConverter(store, nil)

	result, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		inlineAsset(t, testPNG(t, 4, 6)),
		inlineAsset(t, testPNG(t, 4, 6)),
		inlineAsset(t, testPNG(t, 4, 6)),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.URL, ".pdf"))

	// Stored artifact is a real PDF.
	path := strings.TrimPrefix(result.URL, "http://erp.local/api/v1/labels/")
	reader, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestMaterializeZPL(t *testing.T) {
	store := newTestStore(t)
	converter := NewConverter(store, nil)

	result, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		{Kind: shipping.LabelKindZPL, Data: "^XA^FDOne^XZ"},
		{Kind: shipping.LabelKindZPL, Data: "^XA^FDTwo^XZ"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.URL, ".zpl"))

	path := strings.TrimPrefix(result.URL, "http://erp.local/api/v1/labels/")
	reader, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "^XA^FDOne^XZ\n\n^XA^FDTwo^XZ", string(data))
}

func TestMaterializeSingleRemoteURLRehostsLabel(t *testing.T) {
	labelBytes := []byte("%PDF-1.4 fake label")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(labelBytes)
	}))
	t.Cleanup(server.Close)

	store := newTestStore(t)
	converter := NewConverter(store, nil)

	source := server.URL + "/labels/a.pdf?expires=123"
	result, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		{Kind: shipping.LabelKindRemoteURL, Data: source},
	})
	require.NoError(t, err)

	// Served from our store, not the carrier's expiring URL.
	assert.True(t, strings.HasPrefix(result.URL, "http://erp.local/api/v1/labels/"))
	assert.True(t, strings.HasSuffix(result.URL, ".pdf"))
	assert.Equal(t, []string{source}, result.Bundle)

	path := strings.TrimPrefix(result.URL, "http://erp.local/api/v1/labels/")
	reader, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, labelBytes, data)
}

func TestMaterializeMultipleRemoteURLsDownloadsAndMerges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testPNG(t, 4, 6))
	}))
	t.Cleanup(server.Close)

	converter := newTestConverter(t)

	result, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		{Kind: shipping.LabelKindRemoteURL, Data: server.URL + "/1.png"},
		{Kind: shipping.LabelKindRemoteURL, Data: server.URL + "/2.png"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.URL, ".pdf"))
	assert.Equal(t, []string{server.URL + "/1.png", server.URL + "/2.png"}, result.Bundle)
}

func TestMaterializeRejectsMixedKinds(t *testing.T) {
	converter := newTestConverter(t)

	_, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		{Kind: shipping.LabelKindZPL, Data: "^XA^XZ"},
		inlineAsset(t, testPNG(t, 4, 6)),
	})
	assert.Error(t, err)
}

func TestMaterializeEmpty(t *testing.T) {
	converter := newTestConverter(t)
	_, err := converter.Materialize(context.Background(), nil)
	assert.ErrorIs(t, err, shipping.ErrLabelUnavailable)
}

func TestMaterializeDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	converter := newTestConverter(t)
	_, err := converter.Materialize(context.Background(), []shipping.LabelAsset{
		{Kind: shipping.LabelKindRemoteURL, Data: server.URL + "/1.png"},
		{Kind: shipping.LabelKindRemoteURL, Data: server.URL + "/2.png"},
	})
	assert.Error(t, err)
}
