package refset

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/knotvcs/knot/internal/vcserr"
)

// ValidateRemoteURL canonicalizes and validates a remote URL for knot's
// sync protocol. Only http and https are accepted (spec §4.9 speaks only
// of an HTTP daemon); file:// and git:// are rejected outright since
// knot's daemon is the only peer this protocol speaks to.
//
// Unlike a browser-facing service fetching a URL on a caller's behalf,
// "remote add" runs locally on the same machine (and often the same
// user) as the daemon it names — spec §4.9's own worked clone/push
// scenarios target a knot daemon on localhost, the normal way to
// exercise this protocol without a second machine. Blocking loopback or
// private-range hosts here would reject that exact workflow, so no
// host-based rejection is applied beyond the scheme allowlist.
func ValidateRemoteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty remote url", vcserr.ErrInvalidId)
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "file://") {
		return "", fmt.Errorf("%w: file:// urls are not supported", vcserr.ErrInvalidId)
	}
	if strings.HasPrefix(lower, "git://") {
		return "", fmt.Errorf("%w: git:// urls are not supported", vcserr.ErrInvalidId)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vcserr.ErrInvalidId, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", vcserr.ErrInvalidId, scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing hostname", vcserr.ErrInvalidId)
	}

	hostPart := host
	if port := parsed.Port(); port != "" {
		hostPart = host + ":" + port
	}
	path := strings.TrimRight(parsed.Path, "/")

	return scheme + "://" + hostPart + path, nil
}
