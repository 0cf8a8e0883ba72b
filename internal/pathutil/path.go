// Package pathutil provides helpers for slash-separated archive paths.
package pathutil

import "strings"

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// DirPrefix converts a path to its directory prefix form.
// For "" and ".", returns "" (empty prefix matches all).
// For other paths, appends "/" to match children.
func DirPrefix(name string) string {
	if name == "" || name == "." {
		return ""
	}
	return strings.TrimSuffix(name, "/") + "/"
}

// HasDirPrefix reports whether path lies under the directory prefix
// produced by DirPrefix. The empty prefix matches every path.
func HasDirPrefix(path, prefix string) bool {
	return prefix == "" || strings.HasPrefix(path, prefix)
}
