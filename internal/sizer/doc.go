// Package sizer measures the transfer size of page resources.
//
// Remote resources are measured with a HEAD request and the Content-Length
// response header, so no body is downloaded. Inline content (script text,
// SVG markup, data: URIs) is measured by its byte length.
//
// Measurement gaps never fail an analysis. A missing or zero
// Content-Length, a network error, an error status or a timeout all yield a
// size of 0.
//
// The HTTP capability is injected as a Doer so tests can substitute canned
// responses without touching the network.
package sizer
