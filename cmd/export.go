package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ledgerdoc/internal/config"
	"ledgerdoc/internal/export"
	"ledgerdoc/internal/imaging"
	"ledgerdoc/internal/logger"
	"ledgerdoc/internal/profile"
	"ledgerdoc/internal/render"
	"ledgerdoc/internal/rollup"
	"ledgerdoc/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [record-id]",
	Short: "Export a purchase order or invoice as a PDF",
	Long: `Export a purchase order or invoice as a multi-page A4 PDF.

The first page carries the company header, bill-to block, record metadata and the
cost analysis. Line items follow six per page with their images, and the last page
lists every item grouped with its supplier. Item images that cannot be fetched or
decoded are left out; every other failure aborts the export and no file is written.

The stored net profit is reconciled before the document is rendered.

Configuration (environment or .env):
  STORE_BACKEND           - "fixture" (default) or "firestore"
  FIXTURE_PATH            - YAML fixture file for the fixture backend
  GOOGLE_CLOUD_PROJECT    - Firestore project for the firestore backend
  OBJECT_STORE_ENDPOINT   - S3-compatible endpoint for s3:// image references
  EXPORT_BUCKET           - bucket receiving the document with --upload`,
	Example: `  # Export to the current directory
  ledgerdoc export po-1001

  # Export to a directory with smaller images
  ledgerdoc export po-1001 --output-dir ./out --max-width 300 --max-height 200

  # Upload the document to EXPORT_BUCKET
  ledgerdoc export inv-2002 --upload`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output-dir", "o", "", "Directory for the exported PDF (default: EXPORT_DIR)")
	exportCmd.Flags().Bool("upload", false, "Upload the PDF to EXPORT_BUCKET instead of writing it locally")
	exportCmd.Flags().Int("timeout", 120, "Export timeout in seconds")
	exportCmd.Flags().Int("max-width", 0, "Maximum item image width in pixels (default: IMAGE_MAX_WIDTH)")
	exportCmd.Flags().Int("max-height", 0, "Maximum item image height in pixels (default: IMAGE_MAX_HEIGHT)")
	exportCmd.Flags().Float64("quality", 0, "Item image JPEG quality in (0, 1] (default: IMAGE_QUALITY)")
	exportCmd.Flags().Bool("no-reconcile", false, "Export without bringing the stored net profit up to date")
}

func runExport(cmd *cobra.Command, args []string) error {
	recordID := args[0]
	log := logger.WithRecord("export", recordID)

	outputDir, _ := cmd.Flags().GetString("output-dir")
	upload, _ := cmd.Flags().GetBool("upload")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	maxWidth, _ := cmd.Flags().GetInt("max-width")
	maxHeight, _ := cmd.Flags().GetInt("max-height")
	quality, _ := cmd.Flags().GetFloat64("quality")
	noReconcile, _ := cmd.Flags().GetBool("no-reconcile")

	if timeoutSecs <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if quality < 0 || quality > 1 {
		return fmt.Errorf("quality must be in (0, 1]")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if outputDir == "" {
		outputDir = cfg.ExportDir
	}

	imageOpts := cfg.GetImageOptions()
	if maxWidth > 0 {
		imageOpts.MaxWidth = maxWidth
	}
	if maxHeight > 0 {
		imageOpts.MaxHeight = maxHeight
	}
	if quality > 0 {
		imageOpts.Quality = quality
	}

	log.Info().
		Str("backend", cfg.StoreBackend).
		Bool("upload", upload).
		Int("max_width", imageOpts.MaxWidth).
		Int("max_height", imageOpts.MaxHeight).
		Float64("quality", imageOpts.Quality).
		Msg("Starting export")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	service, closeBackend, err := newExportService(ctx, cfg, imageOpts, upload, outputDir, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	if noReconcile {
		service.Reconciler = nil
	}

	result, err := service.ExportRecord(ctx, recordID)
	if err != nil {
		return handleExportError(err, log)
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("file", result.FileName).
		Int("pages", result.PageCount).
		Int("bytes", len(result.Data)).
		Dur("duration", result.Duration).
		Msg("Export completed successfully")

	fmt.Printf("Exported %s (%d pages) to %s\n", result.FileName, result.PageCount, result.Location)
	return nil
}

// newExportService wires the stores, image pipeline and sink into an export service.
func newExportService(ctx context.Context, cfg *config.Config, imageOpts imaging.Options, upload bool, outputDir string, log zerolog.Logger) (*export.Service, func(), error) {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, nil, handleStoreError(err, log)
	}
	closeBackend := func() {
		if err := b.close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close record store")
		}
	}

	transcoder, err := newImageTranscoder(cfg)
	if err != nil {
		closeBackend()
		return nil, nil, fmt.Errorf("failed to configure image fetching: %w", err)
	}

	destination, err := newSink(cfg, upload, outputDir)
	if err != nil {
		closeBackend()
		return nil, nil, err
	}

	assembler := export.NewAssembler(transcoder, profile.NewResolver(b.profiles))
	assembler.ImageOptions = imageOpts
	assembler.NewArtifact = render.PDFArtifactFactory("ledgerdoc")
	assembler.Sink = destination
	assembler.OnTransition = func(state export.State, page int) {
		log.Debug().Str("state", export.Transition{State: state, Page: page}.String()).Msg("Export state")
	}

	service := export.NewService(b.records, b.clients, assembler)
	service.Reconciler = rollup.NewReconciler(b.records, b.clients)
	return service, closeBackend, nil
}

// handleExportError converts export failures into user-friendly messages
func handleExportError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Export failed")

	var exportErr *export.ExportError
	page := 0
	if errors.As(err, &exportErr) {
		page = exportErr.Page
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("export timed out. Try increasing --timeout or lowering --max-width/--max-height")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("export was canceled")
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("record not found. Check the record id and STORE_BACKEND/FIXTURE_PATH")
	case errors.Is(err, export.ErrRecordUnavailable):
		return fmt.Errorf("could not load the record: %v", err)
	case errors.Is(err, export.ErrProfileUnavailable):
		return fmt.Errorf("no company profile could be resolved for this record's client")
	case errors.Is(err, export.ErrSnapshotFailed), errors.Is(err, export.ErrComposeFailed):
		return fmt.Errorf("page %d could not be rendered, no document was written: %v", page, err)
	case errors.Is(err, export.ErrAppendFailed):
		return fmt.Errorf("page %d could not be added to the document, no document was written: %v", page, err)
	case errors.Is(err, export.ErrFinalizeFailed):
		return fmt.Errorf("the document could not be finalized: %v", err)
	case errors.Is(err, export.ErrSinkFailed):
		return fmt.Errorf("the document could not be saved. Check --output-dir or EXPORT_BUCKET: %v", err)
	default:
		return fmt.Errorf("export failed: %w", err)
	}
}

// handleStoreError explains store connection failures
func handleStoreError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Opening record store failed")

	errStr := err.Error()
	switch {
	case errors.Is(err, store.ErrMissingProject):
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT must be set when STORE_BACKEND=firestore")
	case errors.Is(err, store.ErrInvalidFixture):
		return fmt.Errorf("the fixture file could not be read: %v", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "credentials"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n" +
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path, or\n" +
			"2. Set GOOGLE_CREDENTIALS with inline JSON, or\n" +
			"3. Run: gcloud auth application-default login\n\n" +
			"Original error: %v", err)
	default:
		return fmt.Errorf("failed to open record store: %w", err)
	}
}
