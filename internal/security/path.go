package security

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// CleanRequestPath decodes and validates caller-supplied path text before
// any filesystem access. The input is a percent-encoded, forward-slash
// separated relative path; anything else fails closed. Parent-directory
// components are refused here even though Resolve would catch the escape,
// so malformed requests never reach the filesystem at all.
//
// Redundant separators and "." components collapse; the empty path and "."
// both clean to "", which resolves to the root itself.
func CleanRequestPath(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", ErrRejected
	}
	if !utf8.ValidString(decoded) {
		return "", ErrRejected
	}
	if strings.ContainsAny(decoded, "\x00\\") {
		return "", ErrRejected
	}
	if filepath.VolumeName(decoded) != "" {
		return "", ErrRejected
	}

	var parts []string
	for _, part := range strings.Split(decoded, "/") {
		switch part {
		case "", ".":
			// redundant separator or no-op component
		case "..":
			return "", ErrRejected
		default:
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/"), nil
}

// HasHiddenComponent reports whether any component of a cleaned path starts
// with a dot. Serving layers use it to refuse dot files when configured to.
func HasHiddenComponent(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") && part != "" {
			return true
		}
	}
	return false
}
