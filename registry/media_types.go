package registry

// Media types for zpak archives in OCI registries.
const (
	// ArtifactType identifies zpak archives as an OCI 1.1 artifact type.
	ArtifactType = "application/vnd.zpak.archive.v1"

	// MediaTypeArchive is the media type of the compressed archive layer.
	MediaTypeArchive = "application/vnd.zpak.archive.v1+compressed"
)
