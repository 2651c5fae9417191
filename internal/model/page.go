package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// MaxPageSize is the default maximum number of body bytes read from the
// analysed page. Larger bodies are truncated.
const MaxPageSize = 10 * 1024 * 1024 // 10 MB

// Page is the primary document retrieved for one analysis run.
type Page struct {
	// URL is the final URL after redirects.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains the response headers in canonical form.
	Headers map[string][]string `json:"headers"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Body is the response body decoded to UTF-8.
	Body []byte `json:"-"`

	// Hash is the SHA3-256 digest of Body, hex encoded.
	Hash string `json:"hash"`
}

// ComputeHash sets Hash from Body. An empty body produces an empty hash.
func (p *Page) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}
	sum := sha3.Sum256(p.Body)
	p.Hash = hex.EncodeToString(sum[:])
}

// IsHTML reports whether the response declared an HTML content type.
// A missing content type is treated as HTML.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
