package models

import (
	"fmt"
	"strings"
)

// Settings keys as stored in the settings table
const (
	SettingAppKey    = "app_key"
	SettingAppSecret = "app_secret"
	SettingEndpoints = "endpoints"
	SettingOpenID    = "openid"
)

// CallbackPath is appended to the site base URL to build the redirect URI
const CallbackPath = "/user/login/dropbox/callback"

// Endpoint is an extra Dropbox API call made the first time a user logs in
type Endpoint struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Settings holds the Dropbox client configuration for a single request
type Settings struct {
	AppKey      string     `json:"app_key"`
	AppSecret   string     `json:"app_secret"`
	RedirectURI string     `json:"redirect_uri"`
	ProxyURL    string     `json:"proxy_url,omitempty"`
	OpenID      bool       `json:"openid"`
	Endpoints   []Endpoint `json:"endpoints,omitempty"`
}

// IsConfigured reports whether both client credentials are present
func (s Settings) IsConfigured() bool {
	return s.AppKey != "" && s.AppSecret != ""
}

// SettingsForm represents the administrator settings form
type SettingsForm struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
	Endpoints string `json:"endpoints"`
	OpenID    bool   `json:"openid"`
}

// Validate validates the settings form data
func (f *SettingsForm) Validate() []string {
	var errors []string

	if strings.TrimSpace(f.AppKey) == "" {
		errors = append(errors, "App Key is required")
	}

	if strings.TrimSpace(f.AppSecret) == "" {
		errors = append(errors, "App Secret is required")
	}

	for i, line := range strings.Split(f.Endpoints, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := parseEndpointLine(line); !ok {
			errors = append(errors, fmt.Sprintf("Endpoint on line %d must be in the format path|name", i+1))
		}
	}

	return errors
}

// ParseEndpoints parses newline separated path|name pairs, skipping blank or malformed lines
func ParseEndpoints(text string) []Endpoint {
	var endpoints []Endpoint
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if endpoint, ok := parseEndpointLine(line); ok {
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints
}

// FormatEndpoints renders endpoints back into the textarea format
func FormatEndpoints(endpoints []Endpoint) string {
	lines := make([]string, len(endpoints))
	for i, e := range endpoints {
		lines[i] = e.Path + "|" + e.Name
	}
	return strings.Join(lines, "\n")
}

func parseEndpointLine(line string) (Endpoint, bool) {
	path, name, found := strings.Cut(line, "|")
	path = strings.TrimSpace(path)
	name = strings.TrimSpace(name)
	if !found || path == "" || name == "" {
		return Endpoint{}, false
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Endpoint{Path: path, Name: name}, true
}
