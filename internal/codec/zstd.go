package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the zstd frame magic number (little-endian 0xFD2FB528).
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// zstdCodec compresses with zstd frames. Encoders are built once per
// level and reused across calls; zstd.Encoder and zstd.Decoder are safe
// for concurrent use.
type zstdCodec struct {
	encoders map[Level]*zstd.Encoder
	decoder  *zstd.Decoder
}

func newZstdCodec() *zstdCodec {
	c := &zstdCodec{encoders: make(map[Level]*zstd.Encoder, 3)}
	for level, native := range map[Level]int{
		LevelLow:    1,
		LevelMedium: 5,
		LevelHigh:   9,
	} {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(native)),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic("codec: zstd encoder initialization failed: " + err.Error())
		}
		c.encoders[level] = enc
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
	c.decoder = dec
	return c
}

func (*zstdCodec) ID() uint8    { return IDZstd }
func (*zstdCodec) Name() string { return "zstd" }

func (c *zstdCodec) Compress(src []byte, level Level) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	enc, ok := c.encoders[level]
	if !ok {
		return nil, fmt.Errorf("%w: zstd: invalid level %d", ErrCompression, level)
	}
	return enc.EncodeAll(src, make([]byte, 0, c.Bound(len(src)))), nil
}

// Decompress decompresses a zstd frame. The frame header carries the
// content size, so the hint, when provided, only presizes the output
// buffer and is checked against the decoded length.
func (c *zstdCodec) Decompress(src []byte, sizeHint int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	var dst []byte
	if sizeHint > 0 {
		dst = make([]byte, 0, sizeHint)
	}
	result, err := c.decoder.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrDecompression, err)
	}
	if sizeHint > 0 && len(result) != sizeHint {
		return nil, fmt.Errorf("%w: zstd: got %d bytes, expected %d", ErrDecompression, len(result), sizeHint)
	}
	return result, nil
}

// Bound follows the zstd worst-case formula: input plus one byte per
// 255-byte block plus frame overhead.
func (*zstdCodec) Bound(n int) int {
	return n + n/255 + 64
}

func (*zstdCodec) Detect(src []byte) bool {
	return len(src) >= len(zstdMagic) && string(src[:len(zstdMagic)]) == string(zstdMagic)
}
