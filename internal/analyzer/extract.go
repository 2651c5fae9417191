package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Images returns one reference per <img> element. A missing src yields an
// empty location, which resolves to the page itself when sized.
func Images(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	d.find(selImage).Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, d.reference(model.KindImage, s.AttrOr("src", "")))
	})
	return refs
}

// InlineSVGs returns one reference per <svg> element carrying its
// serialized markup.
func InlineSVGs(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	d.find(selSVG).Each(func(_ int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			markup = ""
		}
		refs = append(refs, model.ResourceReference{Kind: model.KindInlineSVG, Location: markup})
	})
	return refs
}

// Videos returns one reference per <video> element with a non-empty src.
func Videos(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	d.find(selVideo).Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		refs = append(refs, d.reference(model.KindVideo, src))
	})
	return refs
}

// EmbeddedVideos returns one reference per <iframe> whose src contains
// "youtube.com".
func EmbeddedVideos(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	d.find(selIframe).Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if !strings.Contains(src, "youtube.com") {
			return
		}
		refs = append(refs, d.reference(model.KindEmbeddedVideo, src))
	})
	return refs
}

// Stylesheets returns one reference per <link rel="stylesheet">.
func Stylesheets(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	d.find(selStylesheet).Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, d.reference(model.KindStylesheet, s.AttrOr("href", "")))
	})
	return refs
}

// Scripts returns one reference per <script>. Elements with a src are
// external scripts; the rest carry their text content.
func Scripts(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	d.find(selScript).Each(func(_ int, s *goquery.Selection) {
		if src := s.AttrOr("src", ""); src != "" {
			refs = append(refs, d.reference(model.KindScript, src))
			return
		}
		refs = append(refs, model.ResourceReference{Kind: model.KindInlineScript, Location: s.Text()})
	})
	return refs
}

// LinkCounts holds the anchor classification counts.
type LinkCounts struct {
	Internal int `json:"internal"`
	External int `json:"external"`
	Social   int `json:"social"`
}

// CountLinks classifies every <a> element by its href.
func CountLinks(d *Document) LinkCounts {
	var c LinkCounts
	d.find(selAnchor).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if href == d.pageURL {
			c.Internal++
		}
		if href != "" && !strings.Contains(href, d.pageURL) {
			c.External++
		}
		if strings.Contains(href, "social") {
			c.Social++
		}
	})
	return c
}

// AnchorCount returns the number of <a> elements.
func AnchorCount(d *Document) int {
	return d.find(selAnchor).Length()
}

// LinkTagCount returns the number of <link> elements of any rel.
func LinkTagCount(d *Document) int {
	return d.find(selLink).Length()
}
