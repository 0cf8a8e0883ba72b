package zpak

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zpak-io/zpak/internal/manifest"
	"github.com/zpak-io/zpak/internal/write"
)

// offsetPrefix precedes the decimal data-region offset in an entry's
// encoded path.
const offsetPrefix = "offset:"

// Archive is the in-memory form of an archive: a manifest plus the
// contiguous data region holding every file's bytes in entry order.
//
// An Archive is built up with AddFile during encoding, or filled once by
// ParseArchive during decoding. It is not safe for concurrent use.
type Archive struct {
	man  manifest.Manifest
	data []byte
	seen map[string]struct{}
}

// NewArchive returns an empty archive. algorithmID records the codec the
// caller intends to wrap the serialized archive in; zero leaves the
// manifest field absent, which forces decoders onto content detection.
func NewArchive(algorithmID uint8) *Archive {
	return &Archive{
		man:  manifest.Manifest{Version: manifest.Version, AlgorithmID: algorithmID},
		seen: make(map[string]struct{}),
	}
}

// AddFile appends a file to the archive. path must be a clean, relative,
// slash-separated path, unique within the archive. The contents are
// copied into the data region; the caller keeps ownership of its slice.
func (a *Archive) AddFile(path string, contents []byte) error {
	if path == "." || !fs.ValidPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if _, dup := a.seen[path]; dup {
		return fmt.Errorf("%w: duplicate path %q", ErrInvalidPath, path)
	}

	offset := len(a.data)
	a.data = append(a.data, contents...)

	a.man.Entries = append(a.man.Entries, Entry{
		OriginalPath: path,
		EncodedPath:  offsetPrefix + strconv.Itoa(offset),
		OriginalSize: uint64(len(contents)),
		EncodedSize:  uint64(len(contents)),
		Checksum:     crc32.ChecksumIEEE(contents),
	})
	a.seen[path] = struct{}{}
	return nil
}

// Serialize emits the archive as
//
//	[u64 manifest_size][manifest bytes][data bytes]
//
// ready to be wrapped in a compression codec. The returned buffer is
// owned by the caller.
func (a *Archive) Serialize() []byte {
	mb := manifest.Encode(&a.man)
	out := make([]byte, 0, 8+len(mb)+len(a.data))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(mb)))
	out = append(out, mb...)
	return append(out, a.data...)
}

// ParseArchive reconstructs an archive from its serialized form. The
// data region is copied into an owned buffer; raw may be reused
// afterwards.
func ParseArchive(raw []byte) (*Archive, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a header", ErrInvalidArchive, len(raw))
	}
	manifestSize := binary.LittleEndian.Uint64(raw)
	if manifestSize > uint64(len(raw)-8) {
		return nil, fmt.Errorf("%w: manifest size %d exceeds %d available bytes", ErrInvalidArchive, manifestSize, len(raw)-8)
	}

	man, err := manifest.Decode(raw[8 : 8+manifestSize])
	if err != nil {
		return nil, err
	}
	if man.Version > manifest.Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedManifestVersion, man.Version)
	}
	if man.Version < 1 {
		return nil, fmt.Errorf("%w: manifest version 0", ErrCorruptedData)
	}

	a := &Archive{
		man:  *man,
		data: append([]byte(nil), raw[8+manifestSize:]...),
		seen: make(map[string]struct{}, len(man.Entries)),
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// validate checks the manifest invariants against the data region:
// unique paths, parseable locators, in-bounds regions, sizes equal at
// version 1, and entry order matching physical layout order.
func (a *Archive) validate() error {
	var prevEnd uint64
	for i := range a.man.Entries {
		e := &a.man.Entries[i]

		if _, dup := a.seen[e.OriginalPath]; dup {
			return fmt.Errorf("%w: duplicate path %q", ErrCorruptedData, e.OriginalPath)
		}
		a.seen[e.OriginalPath] = struct{}{}

		offset, err := parseOffset(e.EncodedPath)
		if err != nil {
			return err
		}
		if e.EncodedSize != e.OriginalSize {
			return fmt.Errorf("%w: entry %q encoded size %d != original size %d",
				ErrCorruptedData, e.OriginalPath, e.EncodedSize, e.OriginalSize)
		}
		if offset+e.OriginalSize < offset || offset+e.OriginalSize > uint64(len(a.data)) {
			return fmt.Errorf("%w: entry %q spans [%d, %d) outside %d-byte data region",
				ErrCorruptedData, e.OriginalPath, offset, offset+e.OriginalSize, len(a.data))
		}
		if offset < prevEnd {
			return fmt.Errorf("%w: entry %q at offset %d overlaps previous entry ending at %d",
				ErrCorruptedData, e.OriginalPath, offset, prevEnd)
		}
		prevEnd = offset + e.OriginalSize
	}
	return nil
}

// Extract writes every file in manifest order under destDir, creating
// parent directories as needed. Each file's CRC-32 is verified before
// anything is written, and the write itself goes through a temp file and
// rename, so a corrupt entry never leaves partial bytes at a final path.
// Files written before a failing entry are not removed.
func (a *Archive) Extract(destDir string) error {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fmt.Errorf("create destination %s: %w", destDir, err)
	}

	for i := range a.man.Entries {
		e := &a.man.Entries[i]

		if e.OriginalPath == "." || !fs.ValidPath(e.OriginalPath) {
			return fmt.Errorf("%w: %q", ErrUnsafeExtractionPath, e.OriginalPath)
		}

		offset, err := parseOffset(e.EncodedPath)
		if err != nil {
			return err
		}
		if offset+e.OriginalSize < offset || offset+e.OriginalSize > uint64(len(a.data)) {
			return fmt.Errorf("%w: entry %q spans [%d, %d) outside %d-byte data region",
				ErrCorruptedData, e.OriginalPath, offset, offset+e.OriginalSize, len(a.data))
		}

		contents := a.data[offset : offset+e.OriginalSize]
		if sum := crc32.ChecksumIEEE(contents); sum != e.Checksum {
			return fmt.Errorf("%w: %q: computed %08x, manifest says %08x",
				ErrChecksumMismatch, e.OriginalPath, sum, e.Checksum)
		}

		dest := filepath.Join(destDir, filepath.FromSlash(e.OriginalPath))
		if err := write.FileAtomic(dest, contents); err != nil {
			return fmt.Errorf("extract %q: %w", e.OriginalPath, err)
		}
	}
	return nil
}

// parseOffset extracts the data-region offset from an "offset:<decimal>"
// locator.
func parseOffset(encodedPath string) (uint64, error) {
	tail, ok := strings.CutPrefix(encodedPath, offsetPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: locator %q lacks %q prefix", ErrCorruptedData, encodedPath, offsetPrefix)
	}
	offset, err := strconv.ParseUint(tail, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: locator %q: %v", ErrCorruptedData, encodedPath, err)
	}
	return offset, nil
}

// Entries returns a copy of the manifest entries in manifest order.
func (a *Archive) Entries() []Entry {
	return append([]Entry(nil), a.man.Entries...)
}

// Version returns the manifest version.
func (a *Archive) Version() uint32 { return a.man.Version }

// AlgorithmID returns the codec id recorded in the manifest, or zero
// when the archive predates the field.
func (a *Archive) AlgorithmID() uint8 { return a.man.AlgorithmID }

// DataSize returns the size of the data region in bytes.
func (a *Archive) DataSize() int { return len(a.data) }
