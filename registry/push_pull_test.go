package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/memory"
	orasregistry "oras.land/oras-go/v2/registry"
)

// memoryClient returns a Client whose targets all resolve to the same
// in-memory store, so push/pull round-trips run without a registry.
func memoryClient() (*Client, oras.Target) {
	store := memory.New()
	c := New()
	c.newTarget = func(orasregistry.Reference) (oras.Target, error) {
		return store, nil
	}
	return c, store
}

func writeTestArchive(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zpak")
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	return path
}

func TestPushPullRoundTrip(t *testing.T) {
	t.Parallel()

	client, _ := memoryClient()
	contents := []byte("compressed archive bytes")
	archivePath := writeTestArchive(t, contents)

	ctx := context.Background()
	pushed, err := client.Push(ctx, "registry.example.com/backups/src:v1", archivePath)
	require.NoError(t, err)
	assert.Equal(t, ocispec.MediaTypeImageManifest, pushed.MediaType)
	assert.Equal(t, ArtifactType, pushed.ArtifactType)

	destPath := filepath.Join(t.TempDir(), "pulled.zpak")
	pulled, err := client.Pull(ctx, "registry.example.com/backups/src:v1", destPath)
	require.NoError(t, err)
	assert.Equal(t, pushed.Digest, pulled.Digest)

	got, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, contents, got)
}

func TestPushAppliesAdditionalTags(t *testing.T) {
	t.Parallel()

	client, _ := memoryClient()
	archivePath := writeTestArchive(t, []byte("tagged"))

	ctx := context.Background()
	pushed, err := client.Push(ctx, "registry.example.com/repo:v1", archivePath,
		PushWithTags("latest", "stable"))
	require.NoError(t, err)

	for _, tag := range []string{"v1", "latest", "stable"} {
		destPath := filepath.Join(t.TempDir(), tag+".zpak")
		pulled, err := client.Pull(ctx, "registry.example.com/repo:"+tag, destPath)
		require.NoError(t, err)
		assert.Equal(t, pushed.Digest, pulled.Digest)
	}
}

func TestPushRequiresTag(t *testing.T) {
	t.Parallel()

	client, _ := memoryClient()
	archivePath := writeTestArchive(t, []byte("x"))

	_, err := client.Push(context.Background(), "registry.example.com/repo", archivePath)
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestPushMissingArchiveFile(t *testing.T) {
	t.Parallel()

	client, _ := memoryClient()
	_, err := client.Push(context.Background(), "registry.example.com/repo:v1",
		filepath.Join(t.TempDir(), "absent.zpak"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPullUnknownReference(t *testing.T) {
	t.Parallel()

	client, _ := memoryClient()
	_, err := client.Pull(context.Background(), "registry.example.com/repo:missing",
		filepath.Join(t.TempDir(), "out.zpak"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPullInvalidReference(t *testing.T) {
	t.Parallel()

	client, _ := memoryClient()
	_, err := client.Pull(context.Background(), ":::",
		filepath.Join(t.TempDir(), "out.zpak"))
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestPullRejectsForeignArtifact(t *testing.T) {
	t.Parallel()

	client, store := memoryClient()
	archivePath := writeTestArchive(t, []byte("x"))

	ctx := context.Background()
	_, err := client.Push(ctx, "registry.example.com/repo:v1", archivePath)
	require.NoError(t, err)

	// Re-tag a manifest with a foreign artifact type next to it.
	config := []byte("{}")
	foreign := ocispec.Manifest{
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: "application/vnd.example.other.v1",
		Config: ocispec.Descriptor{
			MediaType: ocispec.MediaTypeEmptyJSON,
			Digest:    digest.FromBytes(config),
			Size:      int64(len(config)),
		},
		Layers: []ocispec.Descriptor{},
	}
	foreignDesc := pushManifest(t, ctx, store, foreign)
	require.NoError(t, store.Tag(ctx, foreignDesc, "other"))

	_, err = client.Pull(ctx, "registry.example.com/repo:other",
		filepath.Join(t.TempDir(), "out.zpak"))
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestPullDigestMismatch(t *testing.T) {
	t.Parallel()

	store := memory.New()
	client := New()
	client.newTarget = func(orasregistry.Reference) (oras.Target, error) {
		return &tamperedTarget{Target: store}, nil
	}
	archivePath := writeTestArchive(t, []byte("original content"))

	ctx := context.Background()
	// Push through the untampered store so digests are computed over the
	// real bytes.
	pusher := New()
	pusher.newTarget = func(orasregistry.Reference) (oras.Target, error) {
		return store, nil
	}
	_, err := pusher.Push(ctx, "registry.example.com/repo:v1", archivePath)
	require.NoError(t, err)

	destPath := filepath.Join(t.TempDir(), "out.zpak")
	_, err = client.Pull(ctx, "registry.example.com/repo:v1", destPath)
	require.ErrorIs(t, err, ErrDigestMismatch)

	_, statErr := os.Stat(destPath)
	require.Error(t, statErr, "no file may be written on digest mismatch")
}

// tamperedTarget corrupts archive-layer content on fetch.
type tamperedTarget struct {
	oras.Target
}

func (s *tamperedTarget) Fetch(ctx context.Context, desc ocispec.Descriptor) (io.ReadCloser, error) {
	rc, err := s.Target.Fetch(ctx, desc)
	if err != nil || desc.MediaType != MediaTypeArchive {
		return rc, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		data[0] ^= 0xFF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func pushManifest(t *testing.T, ctx context.Context, target oras.Target, manifest ocispec.Manifest) ocispec.Descriptor {
	t.Helper()
	manifest.SchemaVersion = 2
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    digest.FromBytes(data),
		Size:      int64(len(data)),
	}
	require.NoError(t, target.Push(ctx, desc, bytes.NewReader(data)))
	return desc
}
