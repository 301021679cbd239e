// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodi

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ImageResolver turns Kodi image references into absolute URLs served by
// Kodi's own web server.
type ImageResolver struct {
	root string // {proto}://{auth@}{host}:{port}
}

// NewImageResolver builds a resolver for the instance described by cfg.
// Credentials are embedded in the URL because the consumer fetches the
// images directly from Kodi.
func NewImageResolver(cfg ClientConfig) *ImageResolver {
	proto := "http"
	if cfg.SSL {
		proto = "https"
	}
	auth := ""
	if cfg.Username != "" && cfg.Password != "" {
		auth = cfg.Username + ":" + cfg.Password + "@"
	}
	return &ImageResolver{
		root: fmt.Sprintf("%s://%s%s", proto, auth, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))),
	}
}

// WebURL returns the web URL of a local, NFS or SMB path known to Kodi.
// The path has to be quoted twice for Kodi's /image endpoint to accept it.
func (r *ImageResolver) WebURL(path string) string {
	if strings.HasPrefix(strings.ToLower(path), "http") {
		return path
	}
	return r.root + "/image/image%3A%2F%2F" + quote(quote(path, "@"), "/")
}

// ArtURL resolves one value of an item's art map, e.g.
// "image://smb%3a%2f%2fnas%2fposter.jpg/".
func (r *ImageResolver) ArtURL(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	if len(decoded) > len("image://") {
		decoded = decoded[len("image://"):]
	} else {
		decoded = ""
	}
	return r.WebURL(strings.Trim(decoded, "/"))
}

// Thumbnail resolves a thumbnail reference. image:// references go through
// the /image endpoint verbatim, http URLs pass through, anything else is
// treated as a path.
func (r *ImageResolver) Thumbnail(raw string) string {
	switch {
	case strings.HasPrefix(raw, "image://"):
		return r.root + "/image/" + url.QueryEscape(raw)
	case strings.HasPrefix(strings.ToLower(raw), "http"):
		return raw
	default:
		return r.WebURL(raw)
	}
}

// quote percent-encodes every byte except unreserved characters and the
// bytes listed in safe.
func quote(s, safe string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '.' || c == '-' || c == '~'
}
