// Package render turns composed pages into fixed-size raster snapshots and collects the snapshots
// into a multi-page PDF.
//
// Snapshots are drawn with fogleman/gg onto an A4 canvas at 150 dpi (1240x1754 pixels) and encoded
// as JPEG. The PDF artifact places one full-bleed snapshot per A4 page with go-pdf/fpdf, in the
// order pages were appended.
package render

import (
	"context"

	"ledgerdoc/internal/compose"
)

const (
	// CanvasWidth and CanvasHeight are A4 at 150 dpi.
	CanvasWidth  = 1240
	CanvasHeight = 1754

	// DefaultSnapshotQuality is the JPEG quality of page snapshots.
	DefaultSnapshotQuality = 90
)

// Snapshot is one rendered page.
type Snapshot struct {
	Page   int
	Data   []byte // JPEG
	Width  int
	Height int
}

// Snapshotter renders a composed page to a raster image.
type Snapshotter interface {
	Snapshot(ctx context.Context, page *compose.Page) (*Snapshot, error)
}

// Artifact is an append-only multi-page document.
type Artifact interface {
	// AppendPage adds snap as the next page. The first call initialises the document.
	AppendPage(snap *Snapshot) error

	// Bytes serialises the document.
	Bytes() ([]byte, error)

	// PageCount is the number of pages appended so far.
	PageCount() int

	// Discard releases the partially built document. The artifact must not be used afterwards.
	Discard()
}

// ArtifactFactory creates an empty artifact for one export run.
type ArtifactFactory func() Artifact
