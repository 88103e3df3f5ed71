package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateBaseURL checks that base is an absolute http(s) origin the browser
// can navigate to.
func ValidateBaseURL(base string) error {
	base = NormalizeBaseURL(base)
	if base == "" {
		return fmt.Errorf("base URL is empty")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("parse base URL %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base URL %q must use http or https", base)
	}
	if parsed.Host == "" {
		return fmt.Errorf("base URL %q has no host", base)
	}
	if parsed.Fragment != "" || parsed.RawQuery != "" {
		return fmt.Errorf("base URL %q must not carry a query or fragment", base)
	}
	return nil
}

// BuildAbsolute builds an absolute URL from a base origin and an app route.
// Routes may be plain paths ("/p/app") or hash routes ("/#/inventory").
func BuildAbsolute(base, route string) string {
	base = NormalizeBaseURL(base)
	if route == "" {
		return base
	}
	if strings.HasPrefix(route, "http://") || strings.HasPrefix(route, "https://") {
		return route
	}
	if strings.HasPrefix(route, "#") {
		return base + "/" + route
	}
	if strings.HasPrefix(route, "/") {
		return base + route
	}
	return base + "/" + route
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
