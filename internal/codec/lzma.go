package codec

import (
	"bytes"
	"fmt"

	"github.com/ulikunitz/xz"
)

// xzMagic is the xz stream header magic.
var xzMagic = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

// lzmaCodec compresses with LZMA2 inside xz streams. A fresh writer or
// reader engine is created per operation.
type lzmaCodec struct{}

func (lzmaCodec) ID() uint8    { return IDLZMA }
func (lzmaCodec) Name() string { return "lzma" }

// dictCap returns the LZMA dictionary capacity for a level, matching the
// xz preset 1 / 3 / 9 dictionary sizes.
func (lzmaCodec) dictCap(level Level) int {
	switch level {
	case LevelLow:
		return 1 << 20 // 1 MiB, preset 1
	case LevelHigh:
		return 1 << 26 // 64 MiB, preset 9
	default:
		return 1 << 22 // 4 MiB, preset 3
	}
}

func (c lzmaCodec) Compress(src []byte, level Level) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	buf.Grow(min(c.Bound(len(src)), len(src)+4096))

	cfg := xz.WriterConfig{DictCap: c.dictCap(level)}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", ErrCompression, err)
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: lzma: %v", ErrCompression, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", ErrCompression, err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses an xz stream, growing the output in 64 KiB
// chunks until end-of-stream. The hint only sizes the initial buffer.
func (lzmaCodec) Decompress(src []byte, sizeHint int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", ErrDecompression, err)
	}
	out, err := readChunked(r, sizeHint)
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", ErrDecompression, err)
	}
	return out, nil
}

func (lzmaCodec) Bound(n int) int {
	return n + n/3 + 128
}

func (lzmaCodec) Detect(src []byte) bool {
	return len(src) >= len(xzMagic) && string(src[:len(xzMagic)]) == string(xzMagic)
}
