package codec

import "fmt"

// Registry holds the fixed set of codec instances and resolves them by
// id, name, or content sniffing. The registry owns its codec instances;
// callers hold non-owning references.
type Registry struct {
	codecs []Codec
	byID   map[uint8]Codec
	byName map[string]Codec
}

// NewRegistry builds a registry with all supported codecs in id order.
// Registration order is the trial order for content-based fallback.
func NewRegistry() *Registry {
	r := &Registry{
		byID:   make(map[uint8]Codec),
		byName: make(map[string]Codec),
	}
	for _, c := range []Codec{
		lz4Codec{},
		newZstdCodec(),
		lzmaCodec{},
		brotliCodec{},
	} {
		r.codecs = append(r.codecs, c)
		r.byID[c.ID()] = c
		r.byName[c.Name()] = c
	}
	return r
}

// ByID returns the codec with the given numeric id.
func (r *Registry) ByID(id uint8) (Codec, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownAlgorithm, id)
	}
	return c, nil
}

// ByName returns the codec with the given name. Names are matched
// case-sensitively.
func (r *Registry) ByName(name string) (Codec, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return c, nil
}

// Detect sniffs src against each codec in registration order and
// returns the first positive match. Magic numbers are disjoint, so at
// most one codec matches.
func (r *Registry) Detect(src []byte) (Codec, bool) {
	for _, c := range r.codecs {
		if c.Detect(src) {
			return c, true
		}
	}
	return nil, false
}

// Codecs returns the registered codecs in registration order.
func (r *Registry) Codecs() []Codec {
	return r.codecs
}

// Names returns the registered codec names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.codecs))
	for _, c := range r.codecs {
		names = append(names, c.Name())
	}
	return names
}
