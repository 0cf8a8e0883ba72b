package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/errdef"

	"github.com/zpak-io/zpak/internal/write"
)

// Pull downloads the archive at ref and writes it to destPath. The
// layer content is verified against the digest and size of its layer
// descriptor in the manifest before the file is written. It returns the manifest
// descriptor.
func (c *Client) Pull(ctx context.Context, ref, destPath string) (ocispec.Descriptor, error) {
	parsed, err := parseRef(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if parsed.Reference == "" {
		return ocispec.Descriptor{}, fmt.Errorf("%w: reference must include a tag or digest", ErrInvalidReference)
	}

	target, err := c.newTarget(parsed)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	manifestDesc, err := target.Resolve(ctx, parsed.Reference)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return ocispec.Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return ocispec.Descriptor{}, fmt.Errorf("resolve %s: %w", ref, err)
	}

	manifestJSON, err := fetchVerified(ctx, target, manifestDesc)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("fetch manifest: %w", err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.ArtifactType != ArtifactType {
		return ocispec.Descriptor{}, fmt.Errorf("%w: artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}

	layerDesc, ok := archiveLayer(&manifest)
	if !ok {
		return ocispec.Descriptor{}, ErrMissingArchive
	}

	data, err := fetchVerified(ctx, target, layerDesc)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("fetch archive layer: %w", err)
	}

	if err := write.FileAtomic(destPath, data); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("write archive: %w", err)
	}
	return manifestDesc, nil
}

// archiveLayer finds the archive layer in a manifest.
func archiveLayer(manifest *ocispec.Manifest) (ocispec.Descriptor, bool) {
	for _, layer := range manifest.Layers {
		if layer.MediaType == MediaTypeArchive {
			return layer, true
		}
	}
	return ocispec.Descriptor{}, false
}

// fetchVerified fetches a blob and verifies it against its descriptor.
func fetchVerified(ctx context.Context, target oras.Target, desc ocispec.Descriptor) ([]byte, error) {
	rc, err := target.Fetch(ctx, desc)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, desc.Digest)
		}
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != desc.Size {
		return nil, fmt.Errorf("%w: got %d bytes, descriptor says %d", ErrDigestMismatch, len(data), desc.Size)
	}
	if d := digest.FromBytes(data); d != desc.Digest {
		return nil, fmt.Errorf("%w: got %s, descriptor says %s", ErrDigestMismatch, d, desc.Digest)
	}
	return data, nil
}
