package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ledgerdoc/internal/compose"
	"ledgerdoc/internal/imaging"
	"ledgerdoc/internal/logger"
	"ledgerdoc/internal/paginate"
	"ledgerdoc/internal/render"
	"ledgerdoc/pkg/models"
	"ledgerdoc/pkg/services"
)

// ImageTranscoder transcodes one page's images as a joined batch.
type ImageTranscoder interface {
	TranscodeBatch(ctx context.Context, refs map[string]string, opts imaging.Options) map[string]*imaging.TranscodedImage
}

// PageComposer builds the content of one page.
type PageComposer interface {
	Compose(in compose.Input) (*compose.Page, error)
}

// PaginateFunc splits items into page descriptors.
type PaginateFunc func(items []models.LineItem, pageSize int) []paginate.Page

// Assembler drives one export run: paginate, then for each page transcode its images, compose,
// snapshot and append, strictly one page after another.
type Assembler struct {
	Paginate     PaginateFunc
	PageSize     int
	Composer     PageComposer
	Transcoder   ImageTranscoder
	ImageOptions imaging.Options
	Snapshotter  render.Snapshotter
	NewArtifact  render.ArtifactFactory
	Profiles     services.CompanyProfileResolver

	// Sink, when set, receives the finished document during Finalizing.
	Sink services.Sink

	// OnTransition, when set, observes every state change of every run.
	OnTransition func(state State, page int)
}

// NewAssembler creates an assembler with the standard paginator, composer, raster snapshotter
// and PDF artifact.
func NewAssembler(transcoder ImageTranscoder, profiles services.CompanyProfileResolver) *Assembler {
	return &Assembler{
		Paginate:     paginate.Paginate,
		PageSize:     paginate.PageSize,
		Composer:     compose.NewComposer(),
		Transcoder:   transcoder,
		ImageOptions: imaging.DefaultOptions(),
		Snapshotter:  render.NewRasterSnapshotter(),
		NewArtifact:  render.PDFArtifactFactory(""),
		Profiles:     profiles,
	}
}

// Request is one record to export.
type Request struct {
	Record *models.Record
	Client *models.Client // optional
}

// Result is a finished document.
type Result struct {
	FileName  string // "<Kind>_<customId-or-id>.pdf"
	Data      []byte
	PageCount int
	RunID     string
	Location  string // where the Sink stored it, empty without a Sink
	Duration  time.Duration
}

// run holds the state of a single export.
type run struct {
	id       string
	state    State
	page     int
	log      zerolog.Logger
	observer func(State, int)
}

func (r *run) transition(to State, page int) {
	if !canTransition(r.state, to) {
		r.log.Error().
			Str("from", string(r.state)).
			Str("to", string(to)).
			Msg("Invalid export state transition")
	}
	r.state, r.page = to, page
	r.log.Debug().
		Str("state", Transition{State: to, Page: page}.String()).
		Msg("Export state changed")
	if r.observer != nil {
		r.observer(to, page)
	}
}

// Export runs the state machine for req. On any run-level failure the partial document is
// discarded, the Sink is not called and a single *ExportError is returned.
func (a *Assembler) Export(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	r := &run{
		id:       uuid.NewString(),
		state:    StateIdle,
		observer: a.OnTransition,
	}
	r.log = logger.WithRun("export", r.id)
	if r.observer != nil {
		r.observer(StateIdle, 0)
	}

	var artifact render.Artifact
	fail := func(op string, page int, kind, cause error) (*Result, error) {
		if artifact != nil {
			artifact.Discard()
		}
		r.transition(StateFailed, page)

		exportErr := newExportError(op, page, r.id, kind, cause)
		r.log.Error().
			Err(exportErr).
			Str("op", op).
			Int("page", page).
			Msg("Export failed, partial document discarded")
		return nil, exportErr
	}

	record := req.Record
	if record == nil {
		return fail("Validate", 0, ErrMissingRecord, nil)
	}
	r.log = r.log.With().Str("record_id", record.ID).Logger()
	r.log.Info().
		Str("kind", string(record.Kind)).
		Int("items", len(record.Items)).
		Msg("Export started")

	r.transition(StatePaginating, 0)

	profile, err := a.resolveProfile(ctx, req.Client)
	if err != nil {
		return fail("ResolveProfile", 0, ErrProfileUnavailable, err)
	}

	pages := a.Paginate(record.Items, a.PageSize)
	artifact = a.NewArtifact()

	for _, page := range pages {
		r.transition(StateRenderingPage, page.Index)

		images := a.transcode(ctx, page)

		composed, err := a.Composer.Compose(compose.Input{
			Record:     record,
			Client:     req.Client,
			Profile:    profile,
			Descriptor: page,
			TotalPages: len(pages),
			Images:     images,
		})
		if err != nil {
			return fail("Compose", page.Index, ErrComposeFailed, err)
		}

		if err := ctx.Err(); err != nil {
			return fail("Snapshot", page.Index, ErrSnapshotFailed, err)
		}
		snap, err := a.Snapshotter.Snapshot(ctx, composed)
		if err != nil {
			return fail("Snapshot", page.Index, ErrSnapshotFailed, err)
		}

		r.transition(StateAppending, page.Index)
		if err := artifact.AppendPage(snap); err != nil {
			return fail("AppendPage", page.Index, ErrAppendFailed, err)
		}
	}

	r.transition(StateFinalizing, 0)

	data, err := artifact.Bytes()
	if err != nil {
		return fail("Finalize", 0, ErrFinalizeFailed, err)
	}

	result := &Result{
		FileName:  record.FileName(),
		Data:      data,
		PageCount: artifact.PageCount(),
		RunID:     r.id,
	}

	if a.Sink != nil {
		location, err := a.Sink.Save(ctx, result.FileName, data)
		if err != nil {
			return fail("Save", 0, ErrSinkFailed, err)
		}
		result.Location = location
	}

	result.Duration = time.Since(started)
	r.transition(StateDone, 0)

	r.log.Info().
		Str("file", result.FileName).
		Int("pages", result.PageCount).
		Int("bytes", len(data)).
		Str("location", result.Location).
		Dur("duration", result.Duration).
		Msg("Export finished")

	return result, nil
}

func (a *Assembler) resolveProfile(ctx context.Context, client *models.Client) (*models.CompanyProfile, error) {
	if a.Profiles == nil {
		return nil, fmt.Errorf("no company profile resolver configured")
	}
	country := ""
	if client != nil {
		country = client.Country
	}
	profile, err := a.Profiles.GetCompanyProfile(ctx, country)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("resolver returned no profile for %q", country)
	}
	return profile, nil
}

// transcode resolves the images of one page. Missing images are nil and never fail the run.
func (a *Assembler) transcode(ctx context.Context, page paginate.Page) map[string]*imaging.TranscodedImage {
	refs := page.ImageRefs()
	if len(refs) == 0 || a.Transcoder == nil {
		return map[string]*imaging.TranscodedImage{}
	}
	return a.Transcoder.TranscodeBatch(ctx, refs, a.ImageOptions)
}
