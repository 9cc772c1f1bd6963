package openrouter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

// hostSet is the set of API hosts the analyzer may send transcripts to.
type hostSet map[string]struct{}

func defaultHosts() hostSet {
	return hostSet{"openrouter.ai": {}, "api.openrouter.ai": {}}
}

// newHostSet accepts bare hosts as well as URLs or host:port pairs. An empty
// result falls back to the public OpenRouter hosts.
func newHostSet(hosts []string) hostSet {
	set := hostSet{}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, scheme := range []string{"https://", "http://"} {
			h = strings.TrimPrefix(h, scheme)
		}
		h = strings.Trim(h, "/")
		if i := strings.IndexByte(h, ':'); i >= 0 {
			h = h[:i]
		}
		if h != "" {
			set[h] = struct{}{}
		}
	}
	if len(set) == 0 {
		return defaultHosts()
	}
	return set
}

func (s hostSet) has(host string) bool {
	_, ok := s[strings.ToLower(host)]
	return ok
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// baseURLRules run in order; the first failing rule is reported.
var baseURLRules = []func(u *url.URL) error{
	func(u *url.URL) error {
		if !u.IsAbs() || u.Hostname() == "" {
			return errors.New("absolute URL with host is required")
		}
		return nil
	},
	func(u *url.URL) error {
		if u.User != nil {
			return errors.New("userinfo is not allowed")
		}
		return nil
	},
	func(u *url.URL) error {
		if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
			return errors.New("query and fragment are not allowed")
		}
		return nil
	},
	func(u *url.URL) error {
		if !strings.EqualFold(u.Scheme, "https") {
			return errors.New("https is required")
		}
		return nil
	},
}

// ValidateBaseURL checks OPENROUTER_BASE_URL before any transcript leaves the
// machine: https only, no credentials or query, and a host from allowedHosts
// (the public OpenRouter hosts when none are configured).
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL: %w", err)
	}
	for _, rule := range baseURLRules {
		if err := rule(u); err != nil {
			return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: %w", baseURL, err)
		}
	}
	if host := strings.ToLower(u.Hostname()); !newHostSet(allowedHosts).has(host) {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: host %q is not in OPENROUTER_ALLOWED_HOSTS", baseURL, host)
	}
	return nil
}

// ParseAllowedHosts splits a comma-separated OPENROUTER_ALLOWED_HOSTS value.
func ParseAllowedHosts(csv string) []string {
	var out []string
	for _, h := range strings.Split(csv, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
