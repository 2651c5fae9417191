package analyzer

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Selectors are compiled once and shared by every Document.
var (
	selImage      = cascadia.MustCompile("img")
	selSVG        = cascadia.MustCompile("svg")
	selVideo      = cascadia.MustCompile("video[src]")
	selIframe     = cascadia.MustCompile("iframe[src]")
	selStylesheet = cascadia.MustCompile("link[rel~=stylesheet]")
	selLink       = cascadia.MustCompile("link")
	selScript     = cascadia.MustCompile("script")
	selAnchor     = cascadia.MustCompile("a")
	selStyleTag   = cascadia.MustCompile("style")
	selStyleAttr  = cascadia.MustCompile("[style]")
)

// Document is a parsed HTML page. It is never modified after Parse returns.
type Document struct {
	root    *goquery.Document
	pageURL string
	base    *url.URL
}

// Parse reads HTML from r. pageURL is the address the content was fetched
// from and is used both to resolve relative references and to classify
// anchors. Failures are reported as *model.ParseError.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &model.ParseError{URL: pageURL, Err: fmt.Errorf("invalid base URL: %w", err)}
	}

	root, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &model.ParseError{URL: pageURL, Err: err}
	}

	return &Document{root: root, pageURL: pageURL, base: base}, nil
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(body []byte, pageURL string) (*Document, error) {
	return Parse(bytes.NewReader(body), pageURL)
}

// find returns the matching selection. Callers must not mutate it.
func (d *Document) find(m goquery.Matcher) *goquery.Selection {
	return d.root.FindMatcher(m)
}

// reference builds a URL reference and classifies it against the page host.
func (d *Document) reference(kind model.ResourceKind, location string) model.ResourceReference {
	return model.ResourceReference{
		Kind:       kind,
		Location:   location,
		IsExternal: d.isExternal(location),
	}
}

// isExternal reports whether location resolves to a different host.
// Unresolvable locations are treated as same-host.
func (d *Document) isExternal(location string) bool {
	ref, err := url.Parse(location)
	if err != nil {
		return false
	}
	resolved := d.base.ResolveReference(ref)
	if resolved.Host == "" {
		return false
	}
	return resolved.Hostname() != d.base.Hostname()
}
