// Package codec implements the compression codecs an archive payload can
// be wrapped in, plus a registry for looking them up by id, name, or
// content sniffing.
//
// Codec ids are protocol constants stored in the archive manifest's
// algorithm field. Changing them breaks format compatibility.
package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrCompression is returned when a backing library fails to compress.
	ErrCompression = errors.New("codec: compression failed")

	// ErrDecompression is returned when a payload cannot be decompressed,
	// including when no registered codec can decode it.
	ErrDecompression = errors.New("codec: decompression failed")

	// ErrUnknownAlgorithm is returned when a lookup names an algorithm
	// that is not registered.
	ErrUnknownAlgorithm = errors.New("codec: unknown algorithm")
)

// Codec ids. These values are part of the wire format.
const (
	IDLZ4    uint8 = 1
	IDZstd   uint8 = 2
	IDLZMA   uint8 = 3
	IDBrotli uint8 = 4
)

// Level is a three-point compression effort knob. Each codec maps it to
// its native quality setting.
type Level uint8

const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// ParseLevel parses a compression level from its string representation.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	default:
		return 0, fmt.Errorf("codec: unknown compression level: %q", name)
	}
}

// Codec compresses and decompresses whole byte buffers.
//
// Implementations are stateless between calls and safe to share; codecs
// that need a streaming engine create a fresh one per operation or reuse
// a concurrency-safe instance.
type Codec interface {
	// ID returns the codec's stable numeric identifier.
	ID() uint8

	// Name returns the codec's lookup name. Names are lowercase and
	// matched case-sensitively.
	Name() string

	// Compress compresses src at the given level. Empty input yields
	// empty output.
	Compress(src []byte, level Level) ([]byte, error)

	// Decompress decompresses src. sizeHint is the expected decompressed
	// size, or <= 0 when unknown. Codecs that cannot recover the size
	// from their stream format use the hint to size the output buffer;
	// when both are missing the codec decodes best-effort.
	Decompress(src []byte, sizeHint int) ([]byte, error)

	// Bound returns a conservative upper bound on the compressed size of
	// n input bytes, suitable for preallocating output buffers.
	Bound(n int) int

	// Detect reports whether src positively starts a frame of this
	// codec's format. Codecs without reliable magic bytes always return
	// false rather than guessing.
	Detect(src []byte) bool
}
