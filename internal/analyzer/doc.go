// Package analyzer turns fetched HTML into a resource inventory.
//
// Parse produces an immutable Document. Every extraction function takes the
// Document explicitly and only reads from it, so the passes can run in any
// order without sharing mutable state:
//
//	doc, err := analyzer.Parse(body, pageURL)
//	images := analyzer.Images(doc)
//	links := analyzer.CountLinks(doc)
//
// Analyze runs every pass and returns the combined Inventory.
//
// Link classification is deliberately coarse. An anchor is internal when its
// href equals the page URL exactly, external when its href does not contain
// the page URL, and social when its href contains "social". The three counts
// are evaluated independently and may overlap.
package analyzer
