package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// A4 portrait in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
)

// PDFArtifact collects page snapshots into an A4 PDF, one full-bleed image per page.
type PDFArtifact struct {
	Title string

	pdf       *fpdf.Fpdf
	pages     int
	out       []byte // set once serialised; the document is closed afterwards
	discarded bool
}

// NewPDFArtifact creates an empty PDF artifact. The document is initialised by the first AppendPage.
func NewPDFArtifact(title string) *PDFArtifact {
	return &PDFArtifact{Title: title}
}

// PDFArtifactFactory returns an ArtifactFactory producing PDF artifacts titled title.
func PDFArtifactFactory(title string) ArtifactFactory {
	return func() Artifact {
		return NewPDFArtifact(title)
	}
}

// AppendPage implements Artifact.
func (a *PDFArtifact) AppendPage(snap *Snapshot) error {
	const op = "AppendPage"

	if a.discarded {
		return WrapRenderError(op, 0, ErrDiscarded)
	}
	if a.out != nil {
		return WrapRenderError(op, 0, ErrFinalized)
	}
	if snap == nil || len(snap.Data) == 0 {
		page := 0
		if snap != nil {
			page = snap.Page
		}
		return WrapRenderError(op, page, ErrEmptySnapshot)
	}

	if a.pdf == nil {
		a.pdf = fpdf.New("P", "mm", "A4", "")
		a.pdf.SetMargins(0, 0, 0)
		a.pdf.SetAutoPageBreak(false, 0)
		a.pdf.SetCreator("ledgerdoc", true)
		if a.Title != "" {
			a.pdf.SetTitle(a.Title, true)
		}
	}

	name := fmt.Sprintf("page-%d", a.pages+1)
	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}

	a.pdf.AddPage()
	a.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(snap.Data))
	a.pdf.ImageOptions(name, 0, 0, pageWidthMM, pageHeightMM, false, opts, 0, "")
	if err := a.pdf.Error(); err != nil {
		return WrapRenderError(op, snap.Page, err)
	}

	a.pages++
	return nil
}

// Bytes implements Artifact.
func (a *PDFArtifact) Bytes() ([]byte, error) {
	const op = "Bytes"

	if a.discarded {
		return nil, WrapRenderError(op, 0, ErrDiscarded)
	}
	if a.out != nil {
		return a.out, nil
	}
	if a.pdf == nil || a.pages == 0 {
		return nil, WrapRenderError(op, 0, ErrEmptyArtifact)
	}

	var buf bytes.Buffer
	if err := a.pdf.Output(&buf); err != nil {
		return nil, WrapRenderError(op, 0, err)
	}
	a.out = buf.Bytes()
	return a.out, nil
}

// PageCount implements Artifact.
func (a *PDFArtifact) PageCount() int {
	return a.pages
}

// Discard implements Artifact.
func (a *PDFArtifact) Discard() {
	a.pdf = nil
	a.out = nil
	a.pages = 0
	a.discarded = true
}
