package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"ledgerdoc/internal/compose"
	"ledgerdoc/internal/imaging"
	"ledgerdoc/internal/logger"
)

// Layout is expressed in logical units on a 620 wide page and scaled onto the canvas.
const (
	logicalWidth = 620.0
	margin       = 30.0
	lineHeight   = 14.0
	bodyTop      = 235.0
	footerSpace  = 40.0

	gridColumns = 2
	gridRows    = 3
	gridGap     = 10.0

	appendixMinRow   = 16.0
	appendixMaxRow   = 56.0
	appendixThumbRow = 40.0
	appendixInfoRow  = 32.0
)

// appendixLayout is how the supplier appendix fits its rows onto the page.
type appendixLayout struct {
	rowHeight  float64
	shown      int  // rows drawn; the rest are summarised in one line
	thumbnails bool // rows are tall enough for an item image
	details    bool // rows are tall enough for the printing/shipping line
}

// planAppendix shrinks rows between appendixMinRow and appendixMaxRow so that as many of n rows as
// possible fit into avail. When they still do not fit, the last slot is kept for the summary line.
func planAppendix(n int, avail float64) appendixLayout {
	if n <= 0 || avail <= 0 {
		return appendixLayout{rowHeight: appendixMaxRow}
	}
	rowH := math.Max(appendixMinRow, math.Min(appendixMaxRow, avail/float64(n)))
	shown := n
	if fit := int(avail / rowH); shown > fit {
		shown = max(fit-1, 0)
	}
	return appendixLayout{
		rowHeight:  rowH,
		shown:      shown,
		thumbnails: rowH >= appendixThumbRow,
		details:    rowH >= appendixInfoRow,
	}
}

// RasterSnapshotter draws composed pages onto a fixed-size canvas and encodes them as JPEG.
type RasterSnapshotter struct {
	Width   int
	Height  int
	Quality int

	face font.Face
	log  zerolog.Logger
}

// NewRasterSnapshotter creates a snapshotter for A4 pages at 150 dpi.
func NewRasterSnapshotter() *RasterSnapshotter {
	return &RasterSnapshotter{
		Width:   CanvasWidth,
		Height:  CanvasHeight,
		Quality: DefaultSnapshotQuality,
		face:    basicfont.Face7x13,
		log:     logger.WithComponent("render"),
	}
}

// Snapshot implements Snapshotter.
func (s *RasterSnapshotter) Snapshot(ctx context.Context, page *compose.Page) (*Snapshot, error) {
	const op = "Snapshot"

	if page == nil {
		return nil, WrapRenderError(op, 0, ErrNilPage)
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapRenderError(op, page.Number, err)
	}

	width, height := s.Width, s.Height
	if width <= 0 || height <= 0 {
		width, height = CanvasWidth, CanvasHeight
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	scale := float64(width) / logicalWidth
	dc.Scale(scale, scale)
	dc.SetFontFace(s.face)

	p := &painter{
		dc:     dc,
		width:  logicalWidth,
		height: float64(height) / scale,
		log:    s.log.With().Int("page", page.Number).Logger(),
	}

	p.header(page)
	p.billTo(page.BillTo)
	switch page.Kind {
	case compose.KindCostAnalysis:
		p.costAnalysis(page.CostAnalysis)
	case compose.KindItemGrid:
		p.itemGrid(page.Items)
	case compose.KindSupplierAppendix:
		p.appendix(page.Appendix)
	default:
		return nil, WrapRenderError(op, page.Number, fmt.Errorf("unknown page kind %q", page.Kind))
	}
	p.footer(page.Footer)

	quality := s.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultSnapshotQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, WrapRenderError(op, page.Number, err)
	}

	s.log.Debug().
		Int("page", page.Number).
		Str("kind", string(page.Kind)).
		Int("bytes", buf.Len()).
		Msg("Page snapshot rendered")

	return &Snapshot{
		Page:   page.Number,
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
	}, nil
}

type painter struct {
	dc     *gg.Context
	width  float64
	height float64
	log    zerolog.Logger
}

func (p *painter) bodyBottom() float64 {
	return p.height - footerSpace
}

func (p *painter) ink() {
	p.dc.SetRGB(0.13, 0.13, 0.13)
}

func (p *painter) muted() {
	p.dc.SetRGB(0.45, 0.45, 0.45)
}

func (p *painter) rule(y float64) {
	p.dc.SetRGB(0.8, 0.8, 0.8)
	p.dc.SetLineWidth(0.5)
	p.dc.DrawLine(margin, y, p.width-margin, y)
	p.dc.Stroke()
}

// text draws s left-aligned at x, truncated to maxWidth when maxWidth > 0.
func (p *painter) text(s string, x, y, maxWidth float64) {
	p.dc.DrawString(p.fit(s, maxWidth), x, y)
}

func (p *painter) textRight(s string, x, y float64) {
	p.dc.DrawStringAnchored(s, x, y, 1, 0)
}

func (p *painter) fit(s string, maxWidth float64) string {
	if maxWidth <= 0 {
		return s
	}
	if w, _ := p.dc.MeasureString(s); w <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + "..."
		if w, _ := p.dc.MeasureString(candidate); w <= maxWidth {
			return candidate
		}
	}
	return ""
}

// lines draws the non-empty values one per line starting at y and returns the next free y.
func (p *painter) lines(values []string, x, y, maxWidth float64) float64 {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		p.text(v, x, y, maxWidth)
		y += lineHeight
	}
	return y
}

func (p *painter) header(page *compose.Page) {
	h := page.Header
	half := (p.width - 2*margin) / 2

	p.ink()
	p.text(h.CompanyName, margin, 40, half)
	p.muted()
	tax := ""
	if h.TaxNumber != "" {
		tax = h.TaxLabel + ": " + h.TaxNumber
	}
	p.lines([]string{h.Address, h.Phone, h.Email, tax}, margin, 56, half)

	m := page.Meta
	right := p.width - margin
	p.ink()
	p.textRight(m.Title, right, 40)
	p.muted()
	y := 56.0
	for _, row := range [][2]string{
		{"No.", m.Number},
		{"Date", m.CreatedAt},
		{"Payment Due", m.PaymentDue},
		{"Delivery", m.DeliveryDate},
		{"Status", m.Status},
	} {
		if row[1] == "" {
			continue
		}
		p.textRight(row[0]+": "+row[1], right, y)
		y += lineHeight
	}

	p.rule(124)
}

func (p *painter) billTo(b compose.BillTo) {
	p.ink()
	p.text("BILL TO", margin, 142, 0)
	trn := ""
	if b.TRN != "" {
		trn = "TRN: " + b.TRN
	}
	p.muted()
	p.lines([]string{b.Name, b.Address, b.Phone, b.Email, b.Country, trn}, margin, 158, p.width-2*margin)
	p.rule(bodyTop - 15)
}

func (p *painter) costAnalysis(block *compose.CostAnalysisBlock) {
	if block == nil {
		return
	}
	left, right := margin+10, p.width-margin-10
	bottom := p.bodyBottom()

	p.ink()
	p.text("COST ANALYSIS", margin, bodyTop, 0)
	y := bodyTop + 20
	for _, row := range block.Rows {
		if y > bottom {
			return
		}
		p.ink()
		p.text(row.Label, left, y, 0)
		p.textRight(row.Value, right, y)
		y += lineHeight + 4
	}

	if terms := strings.TrimSpace(block.TermsAndConditions); terms != "" && y+2*lineHeight < bottom {
		y += lineHeight
		p.ink()
		p.text("TERMS & CONDITIONS", margin, y, 0)
		y += lineHeight + 2
		p.muted()
		for _, line := range p.dc.WordWrap(terms, right-left) {
			if y > bottom-lineHeight {
				break
			}
			p.text(line, left, y, right-left)
			y += lineHeight
		}
	}

	if len(block.Bank) > 0 && y+2*lineHeight < bottom {
		y += lineHeight
		p.ink()
		p.text("BANK DETAILS", margin, y, 0)
		y += lineHeight + 2
		p.muted()
		for _, row := range block.Bank {
			if y > bottom {
				break
			}
			p.text(row.Label+": "+row.Value, left, y, right-left)
			y += lineHeight
		}
	}
}

func (p *painter) itemGrid(cards []compose.ItemCard) {
	cellW := (p.width - 2*margin - gridGap*(gridColumns-1)) / gridColumns
	cellH := (p.bodyBottom() - bodyTop - gridGap*(gridRows-1)) / gridRows

	for i, card := range cards {
		if i >= gridColumns*gridRows {
			p.log.Warn().Int("cards", len(cards)).Msg("Item grid overflow, extra cards not drawn")
			return
		}
		col, row := i%gridColumns, i/gridColumns
		x := margin + float64(col)*(cellW+gridGap)
		y := bodyTop + float64(row)*(cellH+gridGap) - 10
		p.card(card, x, y, cellW, cellH)
	}
}

func (p *painter) card(card compose.ItemCard, x, y, w, h float64) {
	p.dc.SetRGB(0.85, 0.85, 0.85)
	p.dc.SetLineWidth(0.75)
	p.dc.DrawRectangle(x, y, w, h)
	p.dc.Stroke()

	imgW, imgH := 120.0, 90.0
	p.image(card.Image, x+8, y+8, imgW, imgH)

	textX := x + imgW + 16
	textW := w - imgW - 24
	p.ink()
	p.text(card.Name, textX, y+20, textW)
	p.muted()
	ty := y + 36
	for _, line := range p.dc.WordWrap(card.Description, textW) {
		if ty > y+imgH+4 {
			break
		}
		p.text(line, textX, ty, textW)
		ty += lineHeight
	}

	p.ink()
	p.lines([]string{
		"Order Qty: " + card.OrderQuantity,
		"Unit Cost: " + card.UnitCost,
		"Printing: " + card.PrintingCost,
		"Shipping: " + card.ShippingCost,
		"Total Cost: " + card.TotalCost,
	}, x+8, y+imgH+26, w-16)
}

func (p *painter) appendix(rows []compose.SupplierRow) {
	p.ink()
	p.text("SUPPLIER APPENDIX", margin, bodyTop, 0)

	cols := struct{ thumb, supplier, item, qty, unit, total float64 }{
		thumb: margin, supplier: margin + 56, item: margin + 160,
		qty: 390, unit: 480, total: p.width - margin,
	}

	y := bodyTop + 20
	p.muted()
	p.text("Supplier", cols.supplier, y, 0)
	p.text("Item", cols.item, y, 0)
	p.textRight("Qty", cols.qty, y)
	p.textRight("Unit Cost", cols.unit, y)
	p.textRight("Total Cost", cols.total, y)
	p.rule(y + 5)
	y += lineHeight + 4

	if len(rows) == 0 {
		return
	}

	layout := planAppendix(len(rows), p.bodyBottom()-y)

	for _, row := range rows[:layout.shown] {
		baseline := y + layout.rowHeight/2 + 4
		if layout.details {
			baseline = y + layout.rowHeight/2 - 2
		}
		if layout.thumbnails {
			p.image(row.Card.Image, cols.thumb, y+2, 48, layout.rowHeight-4)
		}
		p.ink()
		p.text(row.Supplier, cols.supplier, baseline, cols.item-cols.supplier-8)
		p.text(row.Card.Name, cols.item, baseline, cols.qty-cols.item-40)
		p.textRight(row.Card.OrderQuantity, cols.qty, baseline)
		p.textRight(row.Card.UnitCost, cols.unit, baseline)
		p.textRight(row.Card.TotalCost, cols.total, baseline)
		if layout.details {
			p.muted()
			p.text("Printing: "+row.Card.PrintingCost+"   Shipping: "+row.Card.ShippingCost,
				cols.item, baseline+lineHeight, cols.total-cols.item)
		}
		y += layout.rowHeight
	}

	if hidden := len(rows) - layout.shown; hidden > 0 {
		p.muted()
		p.text(fmt.Sprintf("+ %d more items", hidden), cols.supplier, y+lineHeight, 0)
		p.log.Warn().
			Int("items", len(rows)).
			Int("hidden", hidden).
			Msg("Appendix does not fit one page, remaining items summarised")
	}
}

// image draws img scaled to fit the box, centred. A nil or undecodable image leaves the box empty.
func (p *painter) image(img *imaging.TranscodedImage, x, y, boxW, boxH float64) {
	if img == nil || len(img.Data) == 0 {
		return
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		p.log.Warn().Err(err).Str("ref", img.Ref).Msg("Skipping undecodable item image")
		return
	}

	b := decoded.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return
	}
	f := math.Min(boxW/iw, boxH/ih)

	p.dc.Push()
	p.dc.Translate(x+(boxW-iw*f)/2, y+(boxH-ih*f)/2)
	p.dc.Scale(f, f)
	p.dc.DrawImage(decoded, 0, 0)
	p.dc.Pop()
}

func (p *painter) footer(text string) {
	if text == "" {
		return
	}
	p.muted()
	p.dc.DrawStringAnchored(text, p.width/2, p.height-18, 0.5, 0)
}
