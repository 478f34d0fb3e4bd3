package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// IsAbsolute reports whether path already carries an http(s) scheme.
func IsAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// BuildAbsolute builds an absolute URL from a base origin and a path.
// Absolute paths are returned unchanged.
func BuildAbsolute(base, path string) string {
	base = normalizeBaseURL(base)
	if path == "" {
		return base
	}
	if IsAbsolute(path) {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// ValidateBase checks that base is an absolute http(s) URL with a host.
func ValidateBase(base string) error {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return fmt.Errorf("parse %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", base)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has no host", base)
	}
	return nil
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
