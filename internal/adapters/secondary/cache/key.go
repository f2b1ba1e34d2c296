package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
)

// Canonical returns the normalized form of a source used for keying.
// URLs keep their path and query but lose case in scheme and host;
// anything else is treated as a local path and made absolute.
func Canonical(source string) string {
	s := strings.TrimSpace(source)
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		u.Fragment = ""
		return u.String()
	}
	s = strings.TrimPrefix(s, "file://")
	if abs, err := filepath.Abs(s); err == nil {
		return abs
	}
	return filepath.Clean(s)
}

// Key returns the hex sha256 of the canonical source
func Key(source string) string {
	sum := sha256.Sum256([]byte(Canonical(source)))
	return hex.EncodeToString(sum[:])
}
