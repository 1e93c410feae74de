package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdoc/internal/compose"
	"ledgerdoc/internal/imaging"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func basePage(kind compose.Kind) *compose.Page {
	return &compose.Page{
		Number:     1,
		TotalPages: 3,
		Kind:       kind,
		Header:     compose.Header{CompanyName: "Gulf Gifts", Address: "Dubai", TaxLabel: "TRN", TaxNumber: "VAT-123"},
		BillTo:     compose.BillTo{Name: "Acme", Country: "United Arab Emirates", TRN: "100200300"},
		Meta:       compose.Meta{Title: "PURCHASE ORDER", Number: "PO-1", CreatedAt: "4 March 2025", Status: "Draft"},
		Footer:     "Page 1 of 3",
	}
}

func decodeSnapshot(t *testing.T, snap *Snapshot) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(snap.Data))
	require.NoError(t, err)
	return img
}

func TestRasterSnapshotter_AllPageKinds(t *testing.T) {
	thumb := &imaging.TranscodedImage{Ref: "mug", Data: jpegBytes(t, 400, 300), Width: 400, Height: 300, Format: imaging.FormatJPEG}
	broken := &imaging.TranscodedImage{Ref: "broken", Data: []byte("nope")}

	cost := basePage(compose.KindCostAnalysis)
	cost.CostAnalysis = &compose.CostAnalysisBlock{
		Rows:               []compose.Row{{Label: "Subtotal", Value: "AED 200.00"}, {Label: "Grand Total", Value: "AED 210.00"}},
		TermsAndConditions: "Payment within thirty days of delivery. Goods remain the property of the seller until paid in full.",
		Bank:               []compose.Row{{Label: "IBAN", Value: "AE00 1234"}},
	}

	grid := basePage(compose.KindItemGrid)
	grid.Number = 2
	for i := 0; i < 6; i++ {
		card := compose.ItemCard{Name: "Ceramic mug with a very long product name that must be truncated", Description: "Branded", OrderQuantity: "10", TotalCost: "AED 65.00"}
		if i%2 == 0 {
			card.Image = thumb
		}
		if i == 5 {
			card.Image = broken
		}
		grid.Items = append(grid.Items, card)
	}

	appendix := basePage(compose.KindSupplierAppendix)
	appendix.Number = 3
	for i := 0; i < 60; i++ {
		appendix.Appendix = append(appendix.Appendix, compose.SupplierRow{
			Supplier: "Mugs LLC",
			Card:     compose.ItemCard{Name: "Mug", Image: thumb, OrderQuantity: "1", UnitCost: "AED 1.00", TotalCost: "AED 1.00"},
		})
	}

	short := basePage(compose.KindSupplierAppendix)
	short.Number = 4
	short.Appendix = []compose.SupplierRow{{
		Supplier: "Mugs LLC",
		Card:     compose.ItemCard{Name: "Mug", Image: thumb, OrderQuantity: "10", UnitCost: "AED 5.00", PrintingCost: "AED 10.00", ShippingCost: "AED 5.00", TotalCost: "AED 65.00"},
	}}

	snapshotter := NewRasterSnapshotter()
	for _, page := range []*compose.Page{cost, grid, appendix, short} {
		t.Run(string(page.Kind), func(t *testing.T) {
			snap, err := snapshotter.Snapshot(context.Background(), page)
			require.NoError(t, err)

			assert.Equal(t, page.Number, snap.Page)
			assert.Equal(t, CanvasWidth, snap.Width)
			assert.Equal(t, CanvasHeight, snap.Height)

			img := decodeSnapshot(t, snap)
			assert.Equal(t, CanvasWidth, img.Bounds().Dx())
			assert.Equal(t, CanvasHeight, img.Bounds().Dy())
		})
	}
}

func TestRasterSnapshotter_Errors(t *testing.T) {
	snapshotter := NewRasterSnapshotter()

	_, err := snapshotter.Snapshot(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilPage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = snapshotter.Snapshot(ctx, basePage(compose.KindItemGrid))
	assert.ErrorIs(t, err, context.Canceled)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, 1, renderErr.Page)

	_, err = snapshotter.Snapshot(context.Background(), basePage(compose.Kind("poster")))
	assert.Error(t, err)
}

func TestPDFArtifact(t *testing.T) {
	artifact := NewPDFArtifact("PurchaseOrder_PO-1")
	assert.Equal(t, 0, artifact.PageCount())

	_, err := artifact.Bytes()
	assert.ErrorIs(t, err, ErrEmptyArtifact)

	page := jpegBytes(t, 124, 175)
	require.NoError(t, artifact.AppendPage(&Snapshot{Page: 1, Data: page, Width: 124, Height: 175}))
	require.NoError(t, artifact.AppendPage(&Snapshot{Page: 2, Data: page, Width: 124, Height: 175}))
	assert.Equal(t, 2, artifact.PageCount())

	data, err := artifact.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	again, err := artifact.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	assert.ErrorIs(t, artifact.AppendPage(&Snapshot{Page: 3, Data: page}), ErrFinalized)
}

func TestPDFArtifact_RejectsBadSnapshots(t *testing.T) {
	artifact := NewPDFArtifact("")

	assert.ErrorIs(t, artifact.AppendPage(nil), ErrEmptySnapshot)
	assert.ErrorIs(t, artifact.AppendPage(&Snapshot{Page: 1}), ErrEmptySnapshot)

	err := artifact.AppendPage(&Snapshot{Page: 1, Data: []byte("not a jpeg")})
	require.Error(t, err)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, 1, renderErr.Page)
}

func TestPDFArtifact_Discard(t *testing.T) {
	artifact := PDFArtifactFactory("doc")()
	require.NoError(t, artifact.AppendPage(&Snapshot{Page: 1, Data: jpegBytes(t, 10, 10)}))

	artifact.Discard()

	assert.Equal(t, 0, artifact.PageCount())
	_, err := artifact.Bytes()
	assert.ErrorIs(t, err, ErrDiscarded)
	assert.ErrorIs(t, artifact.AppendPage(&Snapshot{Page: 2, Data: jpegBytes(t, 10, 10)}), ErrDiscarded)
}

func TestRenderSnapshotIntoPDF(t *testing.T) {
	snap, err := NewRasterSnapshotter().Snapshot(context.Background(), basePage(compose.KindItemGrid))
	require.NoError(t, err)

	artifact := NewPDFArtifact("doc")
	require.NoError(t, artifact.AppendPage(snap))
	data, err := artifact.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestPlanAppendix(t *testing.T) {
	tests := []struct {
		name       string
		rows       int
		wantHeight float64
		wantShown  int
		thumbnails bool
		details    bool
	}{
		{name: "few rows use the tallest row", rows: 5, wantHeight: 56, wantShown: 5, thumbnails: true, details: true},
		{name: "thumbnails down to 40", rows: 15, wantHeight: 40, wantShown: 15, thumbnails: true, details: true},
		{name: "details without thumbnails", rows: 16, wantHeight: 37.5, wantShown: 16, details: true},
		{name: "single line rows", rows: 20, wantHeight: 30, wantShown: 20},
		{name: "overflow keeps a summary slot", rows: 50, wantHeight: 16, wantShown: 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planAppendix(tt.rows, 600)
			assert.InDelta(t, tt.wantHeight, got.rowHeight, 1e-9)
			assert.Equal(t, tt.wantShown, got.shown)
			assert.Equal(t, tt.thumbnails, got.thumbnails)
			assert.Equal(t, tt.details, got.details)
		})
	}

	assert.Zero(t, planAppendix(0, 600).shown)
}
