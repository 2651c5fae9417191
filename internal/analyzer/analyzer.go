package analyzer

import (
	"github.com/nao1215/pagecarbon/internal/model"
)

// Inventory is the complete output of one analysis pass.
type Inventory struct {
	// References lists every resource to be sized, in document pass order:
	// images, background images, SVG, video, embedded video, stylesheets,
	// scripts.
	References []model.ResourceReference

	// Links holds the anchor classification counts.
	Links LinkCounts

	// NumExternalResources is the number of <link> elements.
	NumExternalResources int

	// PageCount is the number of <a> elements.
	PageCount int
}

// Analyze runs every extraction pass over d.
func Analyze(d *Document) *Inventory {
	passes := []func(*Document) []model.ResourceReference{
		Images,
		BackgroundImages,
		InlineSVGs,
		Videos,
		EmbeddedVideos,
		Stylesheets,
		Scripts,
	}

	inv := &Inventory{
		Links:                CountLinks(d),
		NumExternalResources: LinkTagCount(d),
		PageCount:            AnchorCount(d),
	}
	for _, pass := range passes {
		inv.References = append(inv.References, pass(d)...)
	}
	return inv
}

// Counts returns how many references of each kind the inventory holds.
func (inv *Inventory) Counts() map[model.ResourceKind]int {
	counts := make(map[model.ResourceKind]int)
	for _, ref := range inv.References {
		counts[ref.Kind]++
	}
	return counts
}
