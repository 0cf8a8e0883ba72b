// Package registry pushes and pulls zpak archives to and from OCI
// registries.
//
// An archive is stored as an OCI 1.1 artifact: an empty JSON config and
// a single layer holding the compressed archive bytes, linked by an
// image manifest carrying the zpak artifact type. Layer content is
// digest-verified on pull before anything is written to disk.
package registry
