package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/errdef"
)

// pushConfig holds configuration for a push.
type pushConfig struct {
	annotations map[string]string
	tags        []string
}

// PushOption configures a push.
type PushOption func(*pushConfig)

// PushWithAnnotations adds manifest annotations.
func PushWithAnnotations(annotations map[string]string) PushOption {
	return func(cfg *pushConfig) {
		cfg.annotations = annotations
	}
}

// PushWithTags applies additional tags to the pushed manifest.
func PushWithTags(tags ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.tags = append(cfg.tags, tags...)
	}
}

// Push uploads the archive file at archivePath to the registry as an
// OCI artifact. The ref must include a tag
// (e.g. "registry.example.com/repo:v1"). It returns the manifest
// descriptor.
func (c *Client) Push(ctx context.Context, ref, archivePath string, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := parseRef(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	tag := parsed.Reference
	if tag == "" || strings.ContainsRune(tag, ':') {
		return ocispec.Descriptor{}, fmt.Errorf("%w: reference must include a tag", ErrInvalidReference)
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("read archive: %w", err)
	}

	target, err := c.newTarget(parsed)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	// Config blob: the OCI 1.1 empty JSON descriptor.
	config := []byte("{}")
	configDesc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeEmptyJSON,
		Digest:    digest.FromBytes(config),
		Size:      int64(len(config)),
	}
	if err := pushBlob(ctx, target, configDesc, config); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push config: %w", err)
	}

	layerDesc := ocispec.Descriptor{
		MediaType: MediaTypeArchive,
		Digest:    digest.FromBytes(data),
		Size:      int64(len(data)),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: filepath.Base(archivePath),
		},
	}
	if err := pushBlob(ctx, target, layerDesc, data); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push archive layer: %w", err)
	}

	manifest := buildManifest(configDesc, layerDesc, cfg.annotations)
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestDesc := ocispec.Descriptor{
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Digest:       digest.FromBytes(manifestJSON),
		Size:         int64(len(manifestJSON)),
	}
	if err := pushBlob(ctx, target, manifestDesc, manifestJSON); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", err)
	}

	for _, t := range append([]string{tag}, cfg.tags...) {
		if err := target.Tag(ctx, manifestDesc, t); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", t, err)
		}
	}
	return manifestDesc, nil
}

// pushBlob uploads a blob, tolerating content that already exists in
// the repository.
func pushBlob(ctx context.Context, target oras.Target, desc ocispec.Descriptor, data []byte) error {
	err := target.Push(ctx, desc, bytes.NewReader(data))
	if err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return err
	}
	return nil
}

// buildManifest creates the OCI manifest linking config and archive
// layer.
func buildManifest(configDesc, layerDesc ocispec.Descriptor, custom map[string]string) ocispec.Manifest {
	annotations := make(map[string]string, len(custom)+1)
	for k, v := range custom {
		annotations[k] = v
	}
	if _, ok := annotations[ocispec.AnnotationCreated]; !ok {
		annotations[ocispec.AnnotationCreated] = time.Now().UTC().Format(time.RFC3339)
	}

	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       configDesc,
		Layers:       []ocispec.Descriptor{layerDesc},
		Annotations:  annotations,
	}
}
