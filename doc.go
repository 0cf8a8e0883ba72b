// Package zpak packs a directory tree into a single compressed archive
// and restores it bit-faithfully.
//
// An archive is the serialized concatenation of a manifest (one record
// per file: relative path, size, CRC-32 checksum, offset locator) and a
// contiguous data region holding every file's bytes, the whole of which
// is wrapped in one of four compression codecs (lz4, zstd, lzma,
// brotli).
//
// # Quick start
//
// Pack a directory and restore it:
//
//	_, err := zpak.Encode("./src", "src.zpak",
//	    zpak.EncodeWithAlgorithm("zstd"),
//	    zpak.EncodeWithLevel(zpak.LevelHigh),
//	)
//	if err != nil {
//	    return err
//	}
//	_, err = zpak.Decode("src.zpak", "./restored")
//
// Decoding identifies the codec from the archive's leading bytes where
// the format allows it, and falls back to trial decompression for
// archives whose codec has no detectable frame (lz4, brotli).
//
// The package operates on whole in-memory buffers; it does not stream.
// Pushing and pulling archives to OCI registries lives in the registry
// subpackage.
package zpak
