package zpak

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/zpak-io/zpak/internal/codec"
	"github.com/zpak-io/zpak/internal/write"
)

// DefaultAlgorithm is the codec used when no EncodeWithAlgorithm option
// is given.
const DefaultAlgorithm = "lz4"

// encodeConfig holds configuration for archive encoding.
type encodeConfig struct {
	algorithm string
	level     Level
}

// EncodeOption configures archive encoding.
type EncodeOption func(*encodeConfig)

// EncodeWithAlgorithm selects the compression algorithm by name
// ("lz4", "zstd", "lzma", "brotli"). Names are case-sensitive.
func EncodeWithAlgorithm(name string) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.algorithm = name
	}
}

// EncodeWithLevel sets the compression level. The default is
// LevelMedium.
func EncodeWithLevel(level Level) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.level = level
	}
}

// EncodeStats summarizes a completed encode.
type EncodeStats struct {
	// FileCount is the number of files packed.
	FileCount int

	// DataBytes is the total uncompressed file data in bytes.
	DataBytes uint64

	// ArchiveBytes is the size of the compressed archive on disk.
	ArchiveBytes int64

	// Algorithm is the codec the archive was compressed with.
	Algorithm string

	// Level is the compression level used.
	Level Level
}

// Encode packs the directory tree rooted at srcDir into a compressed
// archive at outPath.
//
// The walk is depth-first with lexical ordering inside each directory,
// so entry order is deterministic for a given tree. Only regular files
// are packed: symlinks, sockets, devices and FIFOs are silently skipped,
// and empty directories are not preserved. Manifest paths are relative
// to srcDir and slash-separated regardless of host OS.
//
// The output file is written atomically (temp file + rename).
func Encode(srcDir, outPath string, opts ...EncodeOption) (EncodeStats, error) {
	cfg := encodeConfig{algorithm: DefaultAlgorithm, level: LevelMedium}
	for _, opt := range opts {
		opt(&cfg)
	}

	cdc, err := codec.NewRegistry().ByName(cfg.algorithm)
	if err != nil {
		return EncodeStats{}, err
	}

	root, err := os.OpenRoot(srcDir)
	if err != nil {
		return EncodeStats{}, fmt.Errorf("open source directory: %w", err)
	}
	defer root.Close()

	archive := NewArchive(cdc.ID())
	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		contents, err := fs.ReadFile(root.FS(), path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return archive.AddFile(path, contents)
	})
	if err != nil {
		return EncodeStats{}, err
	}

	compressed, err := cdc.Compress(archive.Serialize(), cfg.level)
	if err != nil {
		return EncodeStats{}, err
	}
	if err := write.FileAtomic(outPath, compressed); err != nil {
		return EncodeStats{}, fmt.Errorf("write archive: %w", err)
	}

	return EncodeStats{
		FileCount:    len(archive.Entries()),
		DataBytes:    uint64(archive.DataSize()),
		ArchiveBytes: int64(len(compressed)),
		Algorithm:    cdc.Name(),
		Level:        cfg.level,
	}, nil
}
