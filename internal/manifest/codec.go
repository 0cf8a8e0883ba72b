package manifest

import (
	"encoding/binary"
	"fmt"
)

// Wire layout, version 1. All integers little-endian, every length
// prefix an unaligned u64:
//
//	[u64 field_len] [u32 version]
//	[u64 field_len] [u64 entries_count]
//	                [ per entry:
//	                    [u64 elem_len]
//	                      [u64 field_len] [u64 path_len] [original_path]
//	                      [u64 field_len] [u64 path_len] [encoded_path]
//	                      [u64 field_len] [u64 original_size]
//	                      [u64 field_len] [u64 encoded_size]
//	                      [u64 field_len] [u32 checksum]
//	                ] x entries_count
//	[u64 field_len] [u8 algorithm_id]   (field_len = 0 when absent)

const prefixSize = 8

// Encode serializes a manifest. The output is a fresh buffer owned by
// the caller.
func Encode(m *Manifest) []byte {
	entriesPayload := make([]byte, 0, 64*len(m.Entries)+prefixSize)
	entriesPayload = binary.LittleEndian.AppendUint64(entriesPayload, uint64(len(m.Entries)))
	for i := range m.Entries {
		elem := appendEntry(nil, &m.Entries[i])
		entriesPayload = binary.LittleEndian.AppendUint64(entriesPayload, uint64(len(elem)))
		entriesPayload = append(entriesPayload, elem...)
	}

	out := make([]byte, 0, prefixSize+4+prefixSize+len(entriesPayload)+prefixSize+1)

	// version
	out = binary.LittleEndian.AppendUint64(out, 4)
	out = binary.LittleEndian.AppendUint32(out, m.Version)

	// entries
	out = binary.LittleEndian.AppendUint64(out, uint64(len(entriesPayload)))
	out = append(out, entriesPayload...)

	// algorithm_id, absent when zero
	if m.AlgorithmID == 0 {
		out = binary.LittleEndian.AppendUint64(out, 0)
	} else {
		out = binary.LittleEndian.AppendUint64(out, 1)
		out = append(out, m.AlgorithmID)
	}

	return out
}

func appendEntry(out []byte, e *Entry) []byte {
	out = appendStringField(out, e.OriginalPath)
	out = appendStringField(out, e.EncodedPath)

	out = binary.LittleEndian.AppendUint64(out, 8)
	out = binary.LittleEndian.AppendUint64(out, e.OriginalSize)

	out = binary.LittleEndian.AppendUint64(out, 8)
	out = binary.LittleEndian.AppendUint64(out, e.EncodedSize)

	out = binary.LittleEndian.AppendUint64(out, 4)
	out = binary.LittleEndian.AppendUint32(out, e.Checksum)

	return out
}

// appendStringField emits a string field: the field prefix covers an
// inner u64 byte count plus the raw bytes.
func appendStringField(out []byte, s string) []byte {
	out = binary.LittleEndian.AppendUint64(out, uint64(prefixSize+len(s)))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(s)))
	return append(out, s...)
}

// Decode parses a serialized manifest. It fails with ErrCorrupted on any
// truncated prefix, length exceeding the remaining buffer, or primitive
// field whose length does not match its width. Unknown trailing fields
// are skipped.
func Decode(data []byte) (*Manifest, error) {
	r := reader{buf: data}

	versionField, err := r.field("version")
	if err != nil {
		return nil, err
	}
	if len(versionField) != 4 {
		return nil, fmt.Errorf("%w: version field is %d bytes, want 4", ErrCorrupted, len(versionField))
	}

	m := &Manifest{Version: binary.LittleEndian.Uint32(versionField)}

	entriesField, err := r.field("entries")
	if err != nil {
		return nil, err
	}
	if m.Entries, err = decodeEntries(entriesField); err != nil {
		return nil, err
	}

	// algorithm_id is optional: old archives end after the entries.
	if r.remaining() > 0 {
		algoField, err := r.field("algorithm_id")
		if err != nil {
			return nil, err
		}
		switch len(algoField) {
		case 0:
			// absent
		case 1:
			m.AlgorithmID = algoField[0]
		default:
			return nil, fmt.Errorf("%w: algorithm_id field is %d bytes, want 0 or 1", ErrCorrupted, len(algoField))
		}
	}

	// Skip fields added by newer writers.
	for r.remaining() > 0 {
		if _, err := r.field("trailing"); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func decodeEntries(payload []byte) ([]Entry, error) {
	r := reader{buf: payload}

	count, err := r.uint64("entries count")
	if err != nil {
		return nil, err
	}
	// Each entry costs at least its elem_len prefix; a count that cannot
	// fit in the remaining bytes is rejected before allocating.
	if count > uint64(r.remaining())/prefixSize {
		return nil, fmt.Errorf("%w: %d entries declared in %d bytes", ErrCorrupted, count, r.remaining())
	}

	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		elem, err := r.field("entry")
		if err != nil {
			return nil, err
		}
		e, err := decodeEntry(elem)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if r.remaining() > 0 {
		return nil, fmt.Errorf("%w: %d stray bytes after entries", ErrCorrupted, r.remaining())
	}
	return entries, nil
}

func decodeEntry(elem []byte) (Entry, error) {
	r := reader{buf: elem}
	var e Entry
	var err error

	if e.OriginalPath, err = r.stringField("original_path"); err != nil {
		return Entry{}, err
	}
	if e.EncodedPath, err = r.stringField("encoded_path"); err != nil {
		return Entry{}, err
	}
	if e.OriginalSize, err = r.uint64Field("original_size"); err != nil {
		return Entry{}, err
	}
	if e.EncodedSize, err = r.uint64Field("encoded_size"); err != nil {
		return Entry{}, err
	}
	if e.Checksum, err = r.uint32Field("checksum"); err != nil {
		return Entry{}, err
	}

	// Bytes past the known fields belong to a newer entry revision and
	// are skipped; the element length already bounds them.
	return e, nil
}

// reader is a bounds-checked cursor over an encoded buffer.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) uint64(what string) (uint64, error) {
	if r.remaining() < prefixSize {
		return 0, fmt.Errorf("%w: truncated %s: %d bytes remaining", ErrCorrupted, what, r.remaining())
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += prefixSize
	return v, nil
}

// field reads a u64 length prefix and returns that many payload bytes.
func (r *reader) field(what string) ([]byte, error) {
	n, err := r.uint64(what + " length")
	if err != nil {
		return nil, err
	}
	if n > uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: %s length %d exceeds %d remaining bytes", ErrCorrupted, what, n, r.remaining())
	}
	payload := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return payload, nil
}

func (r *reader) stringField(what string) (string, error) {
	payload, err := r.field(what)
	if err != nil {
		return "", err
	}
	if len(payload) < prefixSize {
		return "", fmt.Errorf("%w: %s field is %d bytes, want at least %d", ErrCorrupted, what, len(payload), prefixSize)
	}
	n := binary.LittleEndian.Uint64(payload)
	if n != uint64(len(payload)-prefixSize) {
		return "", fmt.Errorf("%w: %s declares %d bytes in a %d-byte field", ErrCorrupted, what, n, len(payload)-prefixSize)
	}
	return string(payload[prefixSize:]), nil
}

func (r *reader) uint64Field(what string) (uint64, error) {
	payload, err := r.field(what)
	if err != nil {
		return 0, err
	}
	if len(payload) != 8 {
		return 0, fmt.Errorf("%w: %s field is %d bytes, want 8", ErrCorrupted, what, len(payload))
	}
	return binary.LittleEndian.Uint64(payload), nil
}

func (r *reader) uint32Field(what string) (uint32, error) {
	payload, err := r.field(what)
	if err != nil {
		return 0, err
	}
	if len(payload) != 4 {
		return 0, fmt.Errorf("%w: %s field is %d bytes, want 4", ErrCorrupted, what, len(payload))
	}
	return binary.LittleEndian.Uint32(payload), nil
}
