package zpak

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpak-io/zpak/internal/manifest"
	"github.com/zpak-io/zpak/internal/testutil"
)

func TestAddFileAssignsOffsetsAndChecksums(t *testing.T) {
	t.Parallel()

	a := NewArchive(1)
	require.NoError(t, a.AddFile("a.txt", []byte("hello")))
	require.NoError(t, a.AddFile("dir/b.txt", []byte("abc")))

	entries := a.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "a.txt", entries[0].OriginalPath)
	assert.Equal(t, "offset:0", entries[0].EncodedPath)
	assert.Equal(t, uint64(5), entries[0].OriginalSize)
	assert.Equal(t, uint64(5), entries[0].EncodedSize)
	assert.Equal(t, crc32.ChecksumIEEE([]byte("hello")), entries[0].Checksum)

	assert.Equal(t, "offset:5", entries[1].EncodedPath)
	assert.Equal(t, 8, a.DataSize())
	assert.Equal(t, uint8(1), a.AlgorithmID())
	assert.Equal(t, uint32(1), a.Version())
}

func TestAddFileRejectsInvalidPaths(t *testing.T) {
	t.Parallel()

	for _, path := range []string{
		"",
		".",
		"/absolute",
		"../escape",
		"a/../b",
		"a/./b",
		"a//b",
		"trailing/",
		"..",
	} {
		a := NewArchive(1)
		err := a.AddFile(path, []byte("x"))
		require.ErrorIs(t, err, ErrInvalidPath, "path %q", path)
	}
}

func TestAddFileRejectsDuplicatePath(t *testing.T) {
	t.Parallel()

	a := NewArchive(1)
	require.NoError(t, a.AddFile("a.txt", []byte("one")))
	require.ErrorIs(t, a.AddFile("a.txt", []byte("two")), ErrInvalidPath)
}

func TestSerializeParseRoundTrip(t *testing.T) {
	t.Parallel()

	a := NewArchive(2)
	require.NoError(t, a.AddFile("a.txt", []byte("hello")))
	require.NoError(t, a.AddFile("b/c.bin", make([]byte, 1024)))
	require.NoError(t, a.AddFile("b/empty", nil))

	parsed, err := ParseArchive(a.Serialize())
	require.NoError(t, err)

	assert.Equal(t, a.Entries(), parsed.Entries())
	assert.Equal(t, a.DataSize(), parsed.DataSize())
	assert.Equal(t, a.Version(), parsed.Version())
	assert.Equal(t, a.AlgorithmID(), parsed.AlgorithmID())
}

func TestSerializeLayout(t *testing.T) {
	t.Parallel()

	a := NewArchive(1)
	require.NoError(t, a.AddFile("a.txt", []byte("hello")))

	raw := a.Serialize()
	manifestSize := binary.LittleEndian.Uint64(raw)

	// Header, manifest, then the data region holding the file bytes.
	require.Equal(t, uint64(len(raw)-8-5), manifestSize)
	assert.Equal(t, []byte("hello"), raw[len(raw)-5:])
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	t.Parallel()

	for _, raw := range [][]byte{nil, {}, {1, 2, 3, 4}, make([]byte, 7)} {
		_, err := ParseArchive(raw)
		require.ErrorIs(t, err, ErrInvalidArchive)
	}
}

func TestParseRejectsImplausibleManifestSize(t *testing.T) {
	t.Parallel()

	raw := make([]byte, 16)
	binary.LittleEndian.PutUint64(raw, 1<<40)
	_, err := ParseArchive(raw)
	require.ErrorIs(t, err, ErrInvalidArchive)
}

func TestParseCorruptManifestDoesNotPanic(t *testing.T) {
	t.Parallel()

	a := NewArchive(1)
	require.NoError(t, a.AddFile("a.txt", []byte("hello")))
	raw := a.Serialize()

	// Flip the byte at position 8+16, inside the manifest payload.
	raw[24] ^= 0xFF
	_, err := ParseArchive(raw)
	require.Error(t, err)
	assert.True(t,
		errorIsAny(err, ErrCorruptedData, ErrInvalidArchive, ErrUnsupportedManifestVersion),
		"unexpected error: %v", err)
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	raw := serializeRaw(t, &manifest.Manifest{Version: 2}, nil)
	_, err := ParseArchive(raw)
	require.ErrorIs(t, err, ErrUnsupportedManifestVersion)
}

func TestParseValidatesEntries(t *testing.T) {
	t.Parallel()

	entry := func(path, locator string, size uint64, data []byte) manifest.Entry {
		return manifest.Entry{
			OriginalPath: path,
			EncodedPath:  locator,
			OriginalSize: size,
			EncodedSize:  size,
			Checksum:     crc32.ChecksumIEEE(data),
		}
	}

	tests := []struct {
		name    string
		entries []manifest.Entry
		data    []byte
	}{
		{
			name:    "malformed locator prefix",
			entries: []manifest.Entry{entry("a", "off:0", 1, []byte("x"))},
			data:    []byte("x"),
		},
		{
			name:    "non-decimal locator tail",
			entries: []manifest.Entry{entry("a", "offset:12x", 1, []byte("x"))},
			data:    []byte("x"),
		},
		{
			name:    "empty locator tail",
			entries: []manifest.Entry{entry("a", "offset:", 1, []byte("x"))},
			data:    []byte("x"),
		},
		{
			name:    "signed locator",
			entries: []manifest.Entry{entry("a", "offset:-1", 1, []byte("x"))},
			data:    []byte("x"),
		},
		{
			name:    "region out of bounds",
			entries: []manifest.Entry{entry("a", "offset:4", 4, []byte("xxxx"))},
			data:    []byte("xxxx"),
		},
		{
			name: "overlapping regions",
			entries: []manifest.Entry{
				entry("a", "offset:0", 4, []byte("xxxx")),
				entry("b", "offset:2", 2, []byte("xx")),
			},
			data: []byte("xxxx"),
		},
		{
			name: "out of order offsets",
			entries: []manifest.Entry{
				entry("a", "offset:2", 2, []byte("xx")),
				entry("b", "offset:0", 2, []byte("xx")),
			},
			data: []byte("xxxx"),
		},
		{
			name: "duplicate path",
			entries: []manifest.Entry{
				entry("a", "offset:0", 2, []byte("xx")),
				entry("a", "offset:2", 2, []byte("xx")),
			},
			data: []byte("xxxx"),
		},
		{
			name: "encoded size differs",
			entries: []manifest.Entry{{
				OriginalPath: "a",
				EncodedPath:  "offset:0",
				OriginalSize: 2,
				EncodedSize:  3,
				Checksum:     crc32.ChecksumIEEE([]byte("xx")),
			}},
			data: []byte("xxxx"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := serializeRaw(t, &manifest.Manifest{Version: 1, Entries: tt.entries}, tt.data)
			_, err := ParseArchive(raw)
			require.ErrorIs(t, err, ErrCorruptedData)
		})
	}
}

func TestExtractWritesTree(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.txt":       []byte("hello"),
		"dir/b.txt":   []byte("world"),
		"dir/sub/c":   {0x00, 0x01, 0x02},
		"dir/sub/nil": {},
	}

	a := NewArchive(1)
	for _, path := range []string{"a.txt", "dir/b.txt", "dir/sub/c", "dir/sub/nil"} {
		require.NoError(t, a.AddFile(path, files[path]))
	}

	dest := t.TempDir()
	require.NoError(t, a.Extract(dest))
	assert.Equal(t, files, testutil.ReadTree(t, dest))
}

func TestExtractCreatesDestinationForEmptyArchive(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, NewArchive(1).Extract(dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Empty(t, testutil.ReadTree(t, dest))
}

func TestExtractRejectsTraversalPaths(t *testing.T) {
	t.Parallel()

	data := []byte("pwned")
	raw := serializeRaw(t, &manifest.Manifest{
		Version: 1,
		Entries: []manifest.Entry{{
			OriginalPath: "../pwned.txt",
			EncodedPath:  "offset:0",
			OriginalSize: uint64(len(data)),
			EncodedSize:  uint64(len(data)),
			Checksum:     crc32.ChecksumIEEE(data),
		}},
	}, data)

	a, err := ParseArchive(raw)
	require.NoError(t, err)

	dest := t.TempDir()
	require.ErrorIs(t, a.Extract(dest), ErrUnsafeExtractionPath)

	_, statErr := os.Stat(filepath.Join(dest, "..", "pwned.txt"))
	require.Error(t, statErr)
}

func TestExtractChecksumMismatchAborts(t *testing.T) {
	t.Parallel()

	a := NewArchive(1)
	require.NoError(t, a.AddFile("first", []byte("aaaa")))
	require.NoError(t, a.AddFile("second", []byte("bbbb")))
	require.NoError(t, a.AddFile("third", []byte("cccc")))

	// Rebuild the archive with the second entry's checksum flipped.
	entries := a.Entries()
	entries[1].Checksum ^= 0xFFFFFFFF
	raw := serializeRaw(t, &manifest.Manifest{Version: 1, Entries: entries},
		[]byte("aaaabbbbcccc"))

	parsed, err := ParseArchive(raw)
	require.NoError(t, err)

	dest := t.TempDir()
	err = parsed.Extract(dest)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.ErrorContains(t, err, "second")

	// The first file landed; nothing after the failing entry did, and
	// no partial bytes are visible for the failing entry itself.
	got := testutil.ReadTree(t, dest)
	assert.Equal(t, map[string][]byte{"first": []byte("aaaa")}, got)
}

// serializeRaw builds a serialized archive from a hand-crafted manifest
// and data region, bypassing AddFile's validation.
func serializeRaw(t *testing.T, m *manifest.Manifest, data []byte) []byte {
	t.Helper()
	mb := manifest.Encode(m)
	raw := binary.LittleEndian.AppendUint64(nil, uint64(len(mb)))
	raw = append(raw, mb...)
	return append(raw, data...)
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
