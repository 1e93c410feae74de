package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"ledgerdoc/internal/logger"
)

// Transcoder turns image references into bounded JPEGs.
type Transcoder struct {
	fetcher Fetcher
	log     zerolog.Logger

	// Concurrency limits the transcodes running at once inside TranscodeBatch.
	Concurrency int
}

// NewTranscoder creates a transcoder that reads source bytes through fetcher.
func NewTranscoder(fetcher Fetcher) *Transcoder {
	return &Transcoder{
		fetcher:     fetcher,
		log:         logger.WithComponent("imaging"),
		Concurrency: DefaultConcurrency,
	}
}

// Transcode fetches, decodes, rescales and re-encodes ref. Any failure is logged and yields nil.
func (t *Transcoder) Transcode(ctx context.Context, ref string, opts Options) *TranscodedImage {
	img, err := t.transcode(ctx, ref, opts.Normalize())
	if err != nil {
		t.log.Warn().
			Err(err).
			Str("ref", ref).
			Msg("Image unavailable, rendering without it")
		return nil
	}
	return img
}

// TranscodeBatch transcodes every entry of refs (keyed by item identity) concurrently and returns
// once all of them finished. Failed entries map to nil; one failure never affects its siblings.
func (t *Transcoder) TranscodeBatch(ctx context.Context, refs map[string]string, opts Options) map[string]*TranscodedImage {
	results := make(map[string]*TranscodedImage, len(refs))
	if len(refs) == 0 {
		return results
	}

	keys := make([]string, 0, len(refs))
	for key := range refs {
		keys = append(keys, key)
	}
	images := make([]*TranscodedImage, len(keys))

	limit := t.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// Tasks never return errors, so the group context is never cancelled by a sibling.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, key := range keys {
		g.Go(func() error {
			images[i] = t.Transcode(ctx, refs[key], opts)
			return nil
		})
	}
	_ = g.Wait()

	for i, key := range keys {
		results[key] = images[i]
	}

	t.log.Debug().
		Int("requested", len(keys)).
		Int("transcoded", countNonNil(images)).
		Msg("Image batch finished")

	return results
}

func (t *Transcoder) transcode(ctx context.Context, ref string, opts Options) (*TranscodedImage, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, WrapImageError("Transcode", ref, ErrEmptyRef, "")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapImageError("Fetch", ref, err, "context done before fetch")
	}

	raw, err := t.fetcher.FetchImageBytes(ctx, ref)
	if err != nil {
		return nil, WrapImageError("Fetch", ref, err, "")
	}
	if len(raw) == 0 {
		return nil, WrapImageError("Fetch", ref, ErrFetchFailed, "empty body")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, WrapImageError("Decode", ref, ErrDecodeFailed, err.Error())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, WrapImageError("Decode", ref, ErrDecodeFailed, "image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, WrapImageError("Decode", ref, ErrImageTooLarge,
			fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels))
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, WrapImageError("Decode", ref, ErrDecodeFailed, err.Error())
	}

	bounds := src.Bounds()
	width, height := ScaleDimensions(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)
	if width == 0 || height == 0 {
		return nil, WrapImageError("Decode", ref, ErrDecodeFailed, "image has no pixels")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha; transparent sources are flattened onto white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.JPEGQuality()}); err != nil {
		return nil, WrapImageError("Encode", ref, ErrEncodeFailed, err.Error())
	}

	t.log.Debug().
		Str("ref", ref).
		Str("source_format", format).
		Int("source_width", bounds.Dx()).
		Int("source_height", bounds.Dy()).
		Int("width", width).
		Int("height", height).
		Int("bytes", buf.Len()).
		Msg("Image transcoded")

	return &TranscodedImage{
		Ref:    ref,
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
		Format: FormatJPEG,
	}, nil
}

func countNonNil(images []*TranscodedImage) int {
	n := 0
	for _, img := range images {
		if img != nil {
			n++
		}
	}
	return n
}
