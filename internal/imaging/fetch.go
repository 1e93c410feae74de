package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultFetchTimeout bounds a single HTTP image download.
const DefaultFetchTimeout = 15 * time.Second

// HTTPFetcher downloads http(s) image references.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: MaxImageBytes,
	}
}

// NewHTTPFetcherWithClient creates a fetcher with an explicit client (for testing).
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client, maxBytes: MaxImageBytes}
}

// FetchImageBytes implements Fetcher.
func (f *HTTPFetcher) FetchImageBytes(ctx context.Context, ref string) ([]byte, error) {
	const op = "HTTPFetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, WrapImageError(op, ref, err, "invalid request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, WrapImageError(op, ref, ErrFetchFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, WrapImageError(op, ref, ErrFetchFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	return readLimited(op, ref, resp.Body, f.maxBytes)
}

// ObjectReader is the subset of the minio client used to read objects.
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// ObjectFetcher reads storage-backed references from an S3-compatible endpoint.
type ObjectFetcher struct {
	client        ObjectReader
	defaultBucket string
	maxBytes      int64
}

// NewMinioClient connects to the S3-compatible endpoint in cfg.
func NewMinioClient(cfg ObjectStoreConfig) (*minio.Client, error) {
	const op = "NewMinioClient"

	if cfg.Endpoint == "" {
		return nil, WrapImageError(op, "", ErrUnsupportedRef, "no object store endpoint configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, WrapImageError(op, cfg.Endpoint, err, "failed to create object store client")
	}
	return client, nil
}

// NewObjectFetcher creates a fetcher over client. defaultBucket resolves bare keys.
func NewObjectFetcher(client ObjectReader, defaultBucket string) *ObjectFetcher {
	return &ObjectFetcher{
		client:        client,
		defaultBucket: defaultBucket,
		maxBytes:      MaxImageBytes,
	}
}

// FetchImageBytes implements Fetcher.
func (f *ObjectFetcher) FetchImageBytes(ctx context.Context, ref string) ([]byte, error) {
	const op = "ObjectFetch"

	bucket, key, err := ParseObjectRef(ref, f.defaultBucket)
	if err != nil {
		return nil, WrapImageError(op, ref, err, "")
	}

	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, WrapImageError(op, ref, ErrFetchFailed, err.Error())
	}
	defer obj.Close()

	return readLimited(op, ref, obj, f.maxBytes)
}

// ParseObjectRef splits "s3://bucket/key", "minio://bucket/key", "gs://bucket/key" or a bare key
// into bucket and key. Bare keys use defaultBucket.
func ParseObjectRef(ref, defaultBucket string) (bucket, key string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", ErrEmptyRef
	}

	scheme, rest, hasScheme := strings.Cut(ref, "://")
	if !hasScheme {
		if defaultBucket == "" {
			return "", "", ErrMissingBucket
		}
		return defaultBucket, strings.TrimPrefix(ref, "/"), nil
	}

	switch strings.ToLower(scheme) {
	case "s3", "minio", "gs":
	default:
		return "", "", fmt.Errorf("%w: scheme %q", ErrUnsupportedRef, scheme)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: expected %s://bucket/key", ErrUnsupportedRef, scheme)
	}
	return bucket, key, nil
}

// Router dispatches references to the fetcher for their scheme.
type Router struct {
	HTTP   Fetcher // http:// and https://
	Object Fetcher // s3://, minio://, gs:// and bare keys
}

// FetchImageBytes implements Fetcher.
func (r *Router) FetchImageBytes(ctx context.Context, ref string) ([]byte, error) {
	fetcher := r.route(ref)
	if fetcher == nil {
		return nil, WrapImageError("Route", ref, ErrUnsupportedRef, "")
	}
	return fetcher.FetchImageBytes(ctx, ref)
}

func (r *Router) route(ref string) Fetcher {
	lower := strings.ToLower(strings.TrimSpace(ref))
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return r.HTTP
	case strings.HasPrefix(lower, "s3://"), strings.HasPrefix(lower, "minio://"), strings.HasPrefix(lower, "gs://"):
		return r.Object
	case strings.Contains(lower, "://"), strings.HasPrefix(lower, "data:"):
		return nil
	default:
		return r.Object
	}
}

func readLimited(op, ref string, r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, WrapImageError(op, ref, ErrFetchFailed, err.Error())
	}
	if int64(len(data)) > maxBytes {
		return nil, WrapImageError(op, ref, ErrImageTooLarge, "")
	}
	return data, nil
}
