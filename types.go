package zpak

import (
	"github.com/zpak-io/zpak/internal/codec"
	"github.com/zpak-io/zpak/internal/manifest"
)

// Entry describes one file in an archive manifest.
type Entry = manifest.Entry

// Level is the three-point compression effort knob. Each codec maps it
// to its native quality setting.
type Level = codec.Level

// Compression levels.
const (
	LevelLow    = codec.LevelLow
	LevelMedium = codec.LevelMedium
	LevelHigh   = codec.LevelHigh
)

// ParseLevel parses a compression level from its string representation
// ("low", "medium", "high").
var ParseLevel = codec.ParseLevel

// Algorithms returns the names of all supported compression algorithms
// in id order.
func Algorithms() []string {
	return codec.NewRegistry().Names()
}
