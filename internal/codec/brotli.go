package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// brotliCodec compresses with brotli streams. Brotli has no frame magic,
// so the format cannot be detected from content.
type brotliCodec struct{}

func (brotliCodec) ID() uint8    { return IDBrotli }
func (brotliCodec) Name() string { return "brotli" }

// quality maps a level to the brotli quality knob (0-11).
func (brotliCodec) quality(level Level) int {
	switch level {
	case LevelLow:
		return 3
	case LevelHigh:
		return 11
	default:
		return 6
	}
}

func (c brotliCodec) Compress(src []byte, level Level) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, c.quality(level))
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: brotli: %v", ErrCompression, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: brotli: %v", ErrCompression, err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses a brotli stream, growing the output in 64 KiB
// chunks until end-of-stream. The hint only sizes the initial buffer.
func (brotliCodec) Decompress(src []byte, sizeHint int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	out, err := readChunked(brotli.NewReader(bytes.NewReader(src)), sizeHint)
	if err != nil {
		return nil, fmt.Errorf("%w: brotli: %v", ErrDecompression, err)
	}
	return out, nil
}

func (brotliCodec) Bound(n int) int {
	return n + n/255 + 64
}

// Detect always returns false: brotli streams have no magic bytes.
func (brotliCodec) Detect([]byte) bool { return false }

// readChunkSize is the growth increment for streaming decompression.
const readChunkSize = 64 * 1024

// readChunked drains r into a byte slice, growing it one chunk at a
// time. sizeHint, when positive, sizes the initial allocation.
func readChunked(r io.Reader, sizeHint int) ([]byte, error) {
	capacity := readChunkSize
	if sizeHint > 0 {
		capacity = sizeHint
	}
	out := make([]byte, 0, capacity)
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		out = append(out, chunk[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
