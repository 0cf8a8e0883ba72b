package zpak

import "strings"

// NormalizePath converts a user-provided path to the slash-separated
// relative form archive entries use.
//
// It performs the following transformations:
//   - Strips leading slashes: "/etc/nginx" → "etc/nginx"
//   - Strips trailing slashes: "etc/nginx/" → "etc/nginx"
//   - Collapses consecutive slashes: "etc//nginx" → "etc/nginx"
//   - Converts empty string to root: "" → "."
//
// It does not resolve path elements: "." and ".." segments are
// preserved and rejected later by AddFile and Extract.
func NormalizePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}
