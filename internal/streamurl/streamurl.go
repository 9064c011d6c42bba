// Package streamurl decides where playback fetches remote track bytes from.
//
// With privileged API access configured, tracks stream straight from the
// share service's media API and never touch this process. Without it, tracks
// stream through the local proxy, which forwards range requests to the
// share's public byte URLs.
package streamurl

import (
	"fmt"
	"net/url"
	"strings"
)

// ProxyPathPrefix is the local streaming proxy route. The stream handler
// serves this path by forwarding bytes from the share service.
const ProxyPathPrefix = "/api/stream/remote/"

// Config holds optional privileged API access. Both fields must be set for
// direct API URLs; otherwise every track streams through the local proxy.
type Config struct {
	APIBaseURL string
	APIKey     string
}

// Resolver turns file ids into playable stream URLs.
type Resolver struct {
	config     Config
	privileged bool
}

// NewResolver creates a stream URL resolver. Privileged mode requires both
// the API base URL and key; a partial configuration falls back to the proxy
// and is worth noticing in the logs, so callers should log the choice.
func NewResolver(config Config) *Resolver {
	config.APIBaseURL = strings.TrimRight(config.APIBaseURL, "/")
	return &Resolver{
		config:     config,
		privileged: config.APIBaseURL != "" && config.APIKey != "",
	}
}

// Privileged reports whether direct API streaming is configured.
func (r *Resolver) Privileged() bool {
	return r.privileged
}

// Resolve returns the stream URL for a file id: the external API-backed URL
// in privileged mode, else the local proxy path.
func (r *Resolver) Resolve(fileID string) string {
	if r.privileged {
		return fmt.Sprintf("%s/media/%s?key=%s",
			r.config.APIBaseURL, url.PathEscape(fileID), url.QueryEscape(r.config.APIKey))
	}
	return ProxyPathPrefix + url.PathEscape(fileID)
}
