// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"net/url"
)

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent      string
	acceptLanguage string
}

// NewHTTPHelper creates a new HTTP helper. Empty values fall back to generic defaults.
func NewHTTPHelper(userAgent, acceptLanguage string) *HTTPHelper {
	if userAgent == "" {
		userAgent = "authorfeed/1.0"
	}

	return &HTTPHelper{
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
	}
}

// IsValidURL reports whether raw is an absolute http or https URL with a host.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildHeaders creates HTTP headers with defaults.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	if h.acceptLanguage != "" {
		headers.Set("Accept-Language", h.acceptLanguage)
	}

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
