// Package imaging fetches item images and transcodes them into small JPEGs for exported pages.
//
// A transcode is fetch, decode, bounded rescale and lossy re-encode of one image reference.
// It never fails from the caller's point of view: any problem is logged and the result is nil,
// which callers render as "no image".
//
// Supported references:
//   - http:// and https:// URLs (HTTPFetcher)
//   - s3://bucket/key, minio://bucket/key and gs://bucket/key through an S3-compatible endpoint (ObjectFetcher)
//   - bare object keys, resolved against the configured default bucket
//
// Decoding supports JPEG, PNG, GIF and WebP. The output is always JPEG.
package imaging

import (
	"context"
	"math"
)

const (
	// DefaultMaxWidth bounds the width of a transcoded image.
	DefaultMaxWidth = 400

	// DefaultMaxHeight bounds the height of a transcoded image.
	DefaultMaxHeight = 300

	// DefaultQuality is the lossy encoding quality in (0, 1].
	DefaultQuality = 0.7

	// DefaultConcurrency is the number of transcodes running at once within one batch.
	DefaultConcurrency = 4

	// MaxImageBytes is the largest source image that will be fetched (20MB).
	MaxImageBytes = 20 * 1024 * 1024

	// MaxImagePixels caps the declared width*height of a source image before it is decoded.
	MaxImagePixels = 40_000_000

	// FormatJPEG is the format of every transcoded image.
	FormatJPEG = "jpeg"
)

// Fetcher returns the raw bytes behind an image reference.
type Fetcher interface {
	FetchImageBytes(ctx context.Context, ref string) ([]byte, error)
}

// Options bound the transcoded output.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64 // 0 < Quality <= 1
}

// DefaultOptions returns 400x300 at quality 0.7.
func DefaultOptions() Options {
	return Options{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
	}
}

// Normalize replaces non-positive bounds with the defaults and clamps quality to (0, 1].
func (o Options) Normalize() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	switch {
	case o.Quality <= 0 || math.IsNaN(o.Quality):
		o.Quality = DefaultQuality
	case o.Quality > 1:
		o.Quality = 1
	}
	return o
}

// JPEGQuality maps Quality onto the 1..100 scale of image/jpeg.
func (o Options) JPEGQuality() int {
	q := int(math.Round(o.Normalize().Quality * 100))
	if q < 1 {
		return 1
	}
	return q
}

// TranscodedImage is an encoded, bounded image ready to be placed on a page.
type TranscodedImage struct {
	Ref    string // Source reference
	Data   []byte // Encoded bytes
	Width  int
	Height int
	Format string // Always FormatJPEG
}

// ObjectStoreConfig holds the S3-compatible endpoint used for storage-backed references.
type ObjectStoreConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	DefaultBucket string // Used for references without a scheme
}
