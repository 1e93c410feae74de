// Package sink stores finished export documents.
//
// DirSink writes into a local directory and ObjectSink uploads to an S3-compatible bucket.
// Both receive the document only after a run finished; partial output never reaches them.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"ledgerdoc/internal/logger"
)

// ContentTypePDF is the content type of uploaded documents.
const ContentTypePDF = "application/pdf"

var (
	// ErrInvalidName is returned for empty names or names that would escape the target.
	ErrInvalidName = errors.New("invalid document name")

	// ErrEmptyDocument is returned when there is nothing to save.
	ErrEmptyDocument = errors.New("empty document")
)

func checkName(name string) error {
	if strings.TrimSpace(name) == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// DirSink saves documents into a directory.
type DirSink struct {
	dir string
	log zerolog.Logger
}

// NewDirSink creates a sink writing into dir. The directory is created on first save.
func NewDirSink(dir string) *DirSink {
	if dir == "" {
		dir = "."
	}
	return &DirSink{dir: dir, log: logger.WithComponent("sink-dir")}
}

// Save implements services.Sink. The file appears under its final name only once fully written.
func (s *DirSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	s.log.Info().
		Str("path", target).
		Int("bytes", len(data)).
		Msg("Document saved")
	return target, nil
}

// ObjectWriter is the subset of the minio client used to upload objects.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectSink uploads documents to a bucket under an optional key prefix.
type ObjectSink struct {
	client ObjectWriter
	bucket string
	prefix string
	log    zerolog.Logger
}

// NewObjectSink creates a sink uploading into bucket.
func NewObjectSink(client ObjectWriter, bucket, prefix string) *ObjectSink {
	return &ObjectSink{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    logger.WithComponent("sink-object"),
	}
}

// Save implements services.Sink and returns an s3:// location.
func (s *ObjectSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	key := name
	if s.prefix != "" {
		key = s.prefix + "/" + name
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentTypePDF,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", key, s.bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.log.Info().
		Str("location", location).
		Str("etag", info.ETag).
		Int64("bytes", info.Size).
		Msg("Document uploaded")
	return location, nil
}
