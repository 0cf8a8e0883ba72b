package registry

import "errors"

// Sentinel errors.
var (
	// ErrNotFound is returned when no artifact exists at the reference.
	ErrNotFound = errors.New("registry: archive not found")

	// ErrInvalidReference is returned when a reference string is
	// malformed or lacks a required tag.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidManifest is returned when the manifest at the reference
	// is not a zpak artifact manifest.
	ErrInvalidManifest = errors.New("registry: not a zpak artifact")

	// ErrMissingArchive is returned when the manifest has no archive
	// layer.
	ErrMissingArchive = errors.New("registry: manifest has no archive layer")

	// ErrDigestMismatch is returned when fetched content does not match
	// its descriptor.
	ErrDigestMismatch = errors.New("registry: content digest mismatch")
)
