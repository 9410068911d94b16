package jobingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL normalizes a listing URL so that cosmetic differences do not
// produce different job ids: scheme and host are lower-cased, the fragment,
// utm_* tracking parameters and any trailing slash are dropped, and the query is sorted.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse listing URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		return "", fmt.Errorf("listing URL %q is not an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("listing URL %q has no host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), nil
}

// JobID derives the deterministic id of a listing: the first 16 hex characters
// of SHA-256 over the canonical URL and the lower-cased title.
func JobID(sourceURL, title string) (string, error) {
	canonical, err := CanonicalURL(sourceURL)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(canonical + "\n" + strings.ToLower(strings.TrimSpace(title))))
	return hex.EncodeToString(sum[:])[:16], nil
}

// contentHash fingerprints the fields that feed the embedding and the stored document.
func contentHash(title, company, description, location, salary string) string {
	h := sha256.New()
	for _, part := range []string{title, company, description, location, salary} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
