// Package manifest defines the archive manifest records and their binary
// codec.
//
// The encoding is length-prefixed and self-describing: every field and
// every sequence element is preceded by an unaligned little-endian u64
// byte count. That costs bytes, but it lets the decoder skip fields it
// does not know and reject truncation at every step.
package manifest

import "errors"

// Version is the manifest version written by this package.
const Version uint32 = 1

// ErrCorrupted is returned when the decoder detects truncation or a
// malformed length prefix.
var ErrCorrupted = errors.New("manifest: corrupted data")

// Entry describes one file in the archive.
type Entry struct {
	// OriginalPath is the file's path relative to the archive root,
	// slash-separated.
	OriginalPath string

	// EncodedPath locates the file inside the data region, as
	// "offset:<decimal>".
	EncodedPath string

	// OriginalSize is the file's size in bytes.
	OriginalSize uint64

	// EncodedSize is the file's size inside the data region. Equal to
	// OriginalSize at version 1; kept separate so a future per-entry
	// compression revision does not change the wire format.
	EncodedSize uint64

	// Checksum is the CRC-32 (IEEE) of the file's bytes.
	Checksum uint32
}

// Manifest is the index record written at the head of a serialized
// archive.
type Manifest struct {
	Version uint32

	// Entries are ordered: manifest order is data-region layout order
	// and extraction order.
	Entries []Entry

	// AlgorithmID identifies the codec wrapped around the serialized
	// archive. Zero means absent: archives from older tooling omit the
	// field and the codec is inferred by detection instead.
	AlgorithmID uint8
}
