// Package validation checks user input and the configured backend origin.
//
// ValidateBaseURL refuses origins that would point the CLI (and the bearer
// token it attaches) at loopback, private or cloud metadata addresses.
// Private ranges can be allowed with GAMEX_ALLOW_PRIVATE=1 or SetAllowPrivate;
// metadata endpoints stay blocked either way.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var allowPrivate atomic.Bool

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"169.254.0.0/16",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"240.0.0.0/4",
	"fc00::/7",
	"fe80::/10",
	"ff00::/8",
	"::1/128",
	"::/128",
	"2001:db8::/32",
)

var metadataHosts = map[string]bool{
	"169.254.169.254":          true,
	"metadata.google.internal": true,
	"metadata":                 true,
	"instance-data":            true,
	"fd00:ec2::254":            true,
}

// dnsTimeout bounds the lookup done for named hosts.
var dnsTimeout = 5 * time.Second

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("GAMEX_ALLOW_PRIVATE")))
	allowPrivate.Store(v)
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		out = append(out, n)
	}
	return out
}

// SetAllowPrivate toggles whether loopback and private origins are accepted,
// e.g. when pointing the CLI at a backend on a developer machine.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

func AllowPrivateEnabled() bool {
	return allowPrivate.Load()
}

// ValidateBaseURL validates the backend origin. The URL must be absolute
// http(s) with a host, and the host must not be (or resolve to) a forbidden
// address. Hosts that do not resolve are accepted.
func ValidateBaseURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if u.User != nil {
		return fmt.Errorf("URL must not contain credentials")
	}
	if isCloudMetadata(host) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if !allowPrivate.Load() && isLocalhost(host) {
		return fmt.Errorf("localhost URLs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		return validateIPAddress(ip)
	}
	return validateDomainName(host)
}

func isLocalhost(host string) bool {
	h := strings.ToLower(host)
	switch h {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0", "::":
		return true
	}
	return strings.HasSuffix(h, ".localhost")
}

func isCloudMetadata(host string) bool {
	h := strings.ToLower(host)
	return metadataHosts[h] || strings.HasSuffix(h, ".metadata.google.internal")
}

func validateIPAddress(ip net.IP) error {
	if ip.Equal(net.IPv4(169, 254, 169, 254)) {
		return fmt.Errorf("cloud metadata IP address is not allowed")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified IP addresses are not allowed")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local IP addresses are not allowed")
	}
	if allowPrivate.Load() {
		return nil
	}
	if ip.IsLoopback() {
		return fmt.Errorf("loopback IP addresses are not allowed")
	}
	if isPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed")
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, n := range privateNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func validateDomainName(host string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := validateIPAddress(ip); err != nil {
			return fmt.Errorf("domain %q resolves to forbidden IP %s: %w", host, ip, err)
		}
	}
	return nil
}
