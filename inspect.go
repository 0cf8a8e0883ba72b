package zpak

import (
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/zpak-io/zpak/internal/pathutil"
)

// inspectConfig holds configuration for archive inspection.
type inspectConfig struct {
	algorithm string
	prefix    string
}

// InspectOption configures archive inspection.
type InspectOption func(*inspectConfig)

// InspectWithAlgorithm forces the named codec instead of identifying it
// from the archive content.
func InspectWithAlgorithm(name string) InspectOption {
	return func(cfg *inspectConfig) {
		cfg.algorithm = name
	}
}

// InspectWithPrefix restricts the reported entries to those under the
// given slash-separated directory prefix.
func InspectWithPrefix(prefix string) InspectOption {
	return func(cfg *inspectConfig) {
		cfg.prefix = prefix
	}
}

// Info describes an archive without extracting it.
type Info struct {
	// Digest is the sha256 digest of the compressed archive file, the
	// same digest the artifact carries in an OCI registry.
	Digest digest.Digest

	// CompressedSize is the archive file size in bytes.
	CompressedSize int64

	// Algorithm is the codec that decoded the outer payload.
	Algorithm string

	// AlgorithmID is the codec id recorded in the manifest, or zero for
	// archives that predate the field.
	AlgorithmID uint8

	// Version is the manifest version.
	Version uint32

	// DataBytes is the total uncompressed file data in bytes.
	DataBytes uint64

	// Entries are the manifest entries, in manifest order, filtered by
	// prefix when one was configured.
	Entries []Entry
}

// Inspect reports an archive's manifest and identity without writing
// anything to disk.
func Inspect(archivePath string, opts ...InspectOption) (*Info, error) {
	cfg := inspectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	compressed, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	archive, codecName, err := decodeArchive(compressed, cfg.algorithm)
	if err != nil {
		return nil, err
	}

	entries := archive.Entries()
	if cfg.prefix != "" {
		prefix := pathutil.DirPrefix(NormalizePath(cfg.prefix))
		filtered := entries[:0]
		for _, e := range entries {
			if pathutil.HasDirPrefix(e.OriginalPath, prefix) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	return &Info{
		Digest:         digest.FromBytes(compressed),
		CompressedSize: int64(len(compressed)),
		Algorithm:      codecName,
		AlgorithmID:    archive.AlgorithmID(),
		Version:        archive.Version(),
		DataBytes:      uint64(archive.DataSize()),
		Entries:        entries,
	}, nil
}
