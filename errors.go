package zpak

import (
	"errors"

	"github.com/zpak-io/zpak/internal/codec"
	"github.com/zpak-io/zpak/internal/manifest"
)

// Sentinel errors.
var (
	// ErrInvalidArchive is returned when an archive header is truncated
	// or declares an implausible manifest size.
	ErrInvalidArchive = errors.New("zpak: invalid archive")

	// ErrChecksumMismatch is returned when a file's CRC-32 does not
	// match its manifest entry.
	ErrChecksumMismatch = errors.New("zpak: checksum mismatch")

	// ErrUnsupportedManifestVersion is returned for manifests newer than
	// this package understands.
	ErrUnsupportedManifestVersion = errors.New("zpak: unsupported manifest version")

	// ErrUnsafeExtractionPath is returned when an entry's destination
	// would escape the extraction directory.
	ErrUnsafeExtractionPath = errors.New("zpak: unsafe extraction path")

	// ErrInvalidPath is returned when a path added to an archive is not
	// a clean, relative, slash-separated path, or duplicates an entry.
	ErrInvalidPath = errors.New("zpak: invalid entry path")
)

// Errors re-exported from internal packages.
var (
	// ErrCorruptedData is returned when the manifest decoder detects
	// truncation or a malformed length prefix, when an entry's offset
	// locator is malformed, or when an entry points outside the data
	// region.
	ErrCorruptedData = manifest.ErrCorrupted

	// ErrAlgorithmNotFound is returned when a requested algorithm name
	// or id is not registered.
	ErrAlgorithmNotFound = codec.ErrUnknownAlgorithm

	// ErrCompressionFailed is returned when the backing compression
	// library reports an error.
	ErrCompressionFailed = codec.ErrCompression

	// ErrDecompressionFailed is returned when a payload cannot be
	// decompressed, including when every codec fails the sniff-and-try
	// fallback.
	ErrDecompressionFailed = codec.ErrDecompression
)
