package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4Codec compresses with raw LZ4 blocks. Raw blocks carry no frame
// header, so the format cannot be detected from content and the
// decompressed size cannot be recovered without a hint.
type lz4Codec struct{}

func (lz4Codec) ID() uint8    { return IDLZ4 }
func (lz4Codec) Name() string { return "lz4" }

// Compress compresses src into a single LZ4 block. The pierrec block API
// exposes no acceleration knob, so LevelLow and LevelMedium share the
// fast compressor; LevelHigh uses the HC compressor at level 9.
func (lz4Codec) Compress(src []byte, level Level) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	var (
		written int
		err     error
	)
	if level == LevelHigh {
		compressor := lz4.CompressorHC{Level: lz4.Level9}
		written, err = compressor.CompressBlock(src, dst)
	} else {
		var compressor lz4.Compressor
		written, err = compressor.CompressBlock(src, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCompression, err)
	}
	if written == 0 {
		// With a bound-sized destination the block compressor always
		// emits output for non-empty input.
		return nil, fmt.Errorf("%w: lz4: empty block", ErrCompression)
	}

	return dst[:written], nil
}

// Decompress decompresses a raw LZ4 block. With a size hint the output
// buffer is sized exactly. Without one the block format gives no length
// to work from, so a speculative buffer is doubled up to 16x the
// compressed size before giving up. This path is best-effort: highly
// compressible payloads can exceed the cap.
func (lz4Codec) Decompress(src []byte, sizeHint int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	if sizeHint > 0 {
		dst := make([]byte, sizeHint)
		read, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrDecompression, err)
		}
		if read != sizeHint {
			return nil, fmt.Errorf("%w: lz4: got %d bytes, expected %d", ErrDecompression, read, sizeHint)
		}
		return dst, nil
	}

	var lastErr error
	for factor := 2; factor <= 16; factor *= 2 {
		dst := make([]byte, factor*len(src))
		read, err := lz4.UncompressBlock(src, dst)
		if err == nil {
			return dst[:read], nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: lz4: no size hint and block did not fit 16x buffer: %v", ErrDecompression, lastErr)
}

func (lz4Codec) Bound(n int) int {
	return lz4.CompressBlockBound(n)
}

// Detect always returns false: raw LZ4 blocks have no magic bytes.
func (lz4Codec) Detect([]byte) bool { return false }
