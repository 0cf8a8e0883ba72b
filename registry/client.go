package registry

import (
	"fmt"

	"oras.land/oras-go/v2"
	orasregistry "oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// Client talks to OCI registries. The zero-value configuration is
// anonymous HTTPS; use options for credentials or plain-HTTP registries.
type Client struct {
	plainHTTP  bool
	credential auth.CredentialFunc

	// newTarget resolves a parsed reference to a push/pull target.
	// Overridden in tests to run against an in-memory store.
	newTarget func(ref orasregistry.Reference) (oras.Target, error)
}

// Option configures a Client.
type Option func(*Client)

// WithPlainHTTP uses HTTP instead of HTTPS, for local registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.plainHTTP = enabled
	}
}

// WithDockerCredentials reads credentials from the Docker config file
// and the configured credential helpers.
func WithDockerCredentials() (Option, error) {
	store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		return nil, fmt.Errorf("registry: load docker credentials: %w", err)
	}
	return func(c *Client) {
		c.credential = credentials.Credential(store)
	}, nil
}

// WithCredential sets an explicit credential function.
func WithCredential(fn auth.CredentialFunc) Option {
	return func(c *Client) {
		c.credential = fn
	}
}

// New builds a Client.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.newTarget == nil {
		c.newTarget = c.repository
	}
	return c
}

// repository opens a remote repository target for the reference.
func (c *Client) repository(ref orasregistry.Reference) (oras.Target, error) {
	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	repo.PlainHTTP = c.plainHTTP
	repo.Client = &auth.Client{
		Client:     retry.DefaultClient,
		Cache:      auth.NewCache(),
		Credential: c.credential,
	}
	return repo, nil
}

// parseRef parses a reference string, mapping parse failures to
// ErrInvalidReference.
func parseRef(ref string) (orasregistry.Reference, error) {
	parsed, err := orasregistry.ParseReference(ref)
	if err != nil {
		return orasregistry.Reference{}, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	return parsed, nil
}
