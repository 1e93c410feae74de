package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned bytes per reference.
type fakeFetcher struct {
	mu      sync.Mutex
	data    map[string][]byte
	errs    map[string]error
	delay   map[string]time.Duration
	calls   map[string]int
	active  atomic.Int32
	maxSeen atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:  map[string][]byte{},
		errs:  map[string]error{},
		delay: map[string]time.Duration{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) FetchImageBytes(ctx context.Context, ref string) ([]byte, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[ref]++
	data, err, delay := f.data[ref], f.errs[ref], f.delay[ref]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrFetchFailed
	}
	return data, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTranscode_ScalesAndReencodes(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["https://cdn.example.com/mug.png"] = pngBytes(t, 800, 600)

	img := NewTranscoder(fetcher).Transcode(context.Background(), "https://cdn.example.com/mug.png", DefaultOptions())

	require.NotNil(t, img)
	assert.Equal(t, 400, img.Width)
	assert.Equal(t, 300, img.Height)
	assert.Equal(t, FormatJPEG, img.Format)
	assert.Equal(t, "https://cdn.example.com/mug.png", img.Ref)

	decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 300, decoded.Bounds().Dy())
}

func TestTranscode_TallImage(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["tall"] = pngBytes(t, 300, 900)

	img := NewTranscoder(fetcher).Transcode(context.Background(), "tall", DefaultOptions())

	require.NotNil(t, img)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 300, img.Height)
}

func TestTranscode_FailuresYieldNil(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs["broken"] = errors.New("connection reset")
	fetcher.data["garbage"] = []byte("definitely not an image")
	fetcher.data["empty"] = []byte{}

	transcoder := NewTranscoder(fetcher)
	ctx := context.Background()

	assert.Nil(t, transcoder.Transcode(ctx, "", DefaultOptions()))
	assert.Nil(t, transcoder.Transcode(ctx, "broken", DefaultOptions()))
	assert.Nil(t, transcoder.Transcode(ctx, "garbage", DefaultOptions()))
	assert.Nil(t, transcoder.Transcode(ctx, "empty", DefaultOptions()))
	assert.Nil(t, transcoder.Transcode(ctx, "missing", DefaultOptions()))
}

// pngHeader returns a PNG that declares width x height in its IHDR chunk but carries no pixel data.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, width)
	chunk = binary.BigEndian.AppendUint32(chunk, height)
	chunk = append(chunk, 8, 0, 0, 0, 0) // 8-bit grayscale, no interlace

	_ = binary.Write(&buf, binary.BigEndian, uint32(len(chunk)-4))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestTranscode_RejectsOversizedDimensionsBeforeDecoding(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["huge"] = pngHeader(12000, 12000)

	transcoder := NewTranscoder(fetcher)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(fetcher.data["huge"]))
	require.NoError(t, err)
	assert.Equal(t, 12000, cfg.Width)

	_, err = transcoder.transcode(context.Background(), "huge", DefaultOptions())
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Nil(t, transcoder.Transcode(context.Background(), "huge", DefaultOptions()))
}

func TestTranscode_CancelledContext(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["ok"] = pngBytes(t, 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, NewTranscoder(fetcher).Transcode(ctx, "ok", DefaultOptions()))
	assert.Zero(t, fetcher.calls["ok"])
}

func TestTranscodeBatch_IsolatesFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["a.png"] = pngBytes(t, 40, 30)
	fetcher.data["c.png"] = pngBytes(t, 30, 90)
	fetcher.errs["b.png"] = errors.New("boom")
	fetcher.delay["c.png"] = 20 * time.Millisecond

	refs := map[string]string{
		"item-0": "a.png",
		"item-1": "b.png",
		"item-2": "c.png",
	}

	got := NewTranscoder(fetcher).TranscodeBatch(context.Background(), refs, DefaultOptions())

	require.Len(t, got, 3)
	require.NotNil(t, got["item-0"])
	assert.Nil(t, got["item-1"])
	require.NotNil(t, got["item-2"], "slow sibling is awaited")
	assert.Equal(t, "c.png", got["item-2"].Ref)
	assert.Equal(t, 1, fetcher.calls["a.png"])
}

func TestTranscodeBatch_RespectsConcurrency(t *testing.T) {
	fetcher := newFakeFetcher()
	refs := map[string]string{}
	for i := 0; i < 10; i++ {
		ref := string(rune('a'+i)) + ".png"
		fetcher.data[ref] = pngBytes(t, 4, 4)
		fetcher.delay[ref] = 5 * time.Millisecond
		refs[ref] = ref
	}

	transcoder := NewTranscoder(fetcher)
	transcoder.Concurrency = 2
	got := transcoder.TranscodeBatch(context.Background(), refs, DefaultOptions())

	assert.Len(t, got, 10)
	assert.LessOrEqual(t, fetcher.maxSeen.Load(), int32(2))
}

func TestTranscodeBatch_Empty(t *testing.T) {
	got := NewTranscoder(newFakeFetcher()).TranscodeBatch(context.Background(), nil, DefaultOptions())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
