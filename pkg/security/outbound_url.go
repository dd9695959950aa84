// Package security holds URL checks for addresses the client talks to or
// embeds into rendered markup.
package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnsafeURL = errors.New("unsafe URL")

// OutboundURLOptions configures backend URL validation.
type OutboundURLOptions struct {
	// AllowHTTP permits plain HTTP URLs. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback/private/link-local IP targets and localhost hostnames.
	AllowLocalNetworks bool
}

// LocalBackend allows a backend served over http on the local machine.
var LocalBackend = OutboundURLOptions{AllowHTTP: true, AllowLocalNetworks: true}

// ValidateOutboundURL checks a backend base URL before any request is sent.
func ValidateOutboundURL(rawURL string, opts OutboundURLOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(ErrUnsafeURL, err.Error())
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return errors.Wrap(ErrUnsafeURL, "http scheme is not allowed")
		}
	default:
		return errors.Wrapf(ErrUnsafeURL, "unsupported scheme %q", parsed.Scheme)
	}

	return checkHost(parsed, opts.AllowLocalNetworks)
}

func checkHost(parsed *url.URL, allowLocal bool) error {
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.Wrap(ErrUnsafeURL, "host is required")
	}

	if !allowLocal {
		if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
			return errors.Wrapf(ErrUnsafeURL, "local hostname %q", host)
		}
	}

	// IP literals are checked without DNS lookups.
	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Zone() != "" && !allowLocal {
			return errors.Wrapf(ErrUnsafeURL, "zoned IP address %q", host)
		}
		addr = addr.Unmap()

		if addr.IsUnspecified() || addr.IsMulticast() {
			return errors.Wrapf(ErrUnsafeURL, "disallowed IP address %q", host)
		}

		if !allowLocal {
			if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
				return errors.Wrapf(ErrUnsafeURL, "local network IP %q", host)
			}
		}
	}

	return nil
}

// ValidateMediaURL checks a media address returned by a backend before it is
// stored on a message. blob: handles minted locally are always accepted, and
// http(s) URLs need a host. Media may live on the local backend.
func ValidateMediaURL(rawURL string) error {
	if strings.HasPrefix(rawURL, "blob:") {
		if len(rawURL) == len("blob:") {
			return errors.Wrap(ErrUnsafeURL, "empty blob handle")
		}
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(ErrUnsafeURL, err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.Wrapf(ErrUnsafeURL, "unsupported media scheme %q", parsed.Scheme)
	}
	return checkHost(parsed, true)
}
