package model

import "fmt"

// ResourceKind classifies a resource discovered in a page.
type ResourceKind int

const (
	// KindImage is an <img> element; Location is its src attribute.
	KindImage ResourceKind = iota

	// KindBackgroundImage is a CSS background-image url(...) value.
	KindBackgroundImage

	// KindInlineSVG is an <svg> element. Location holds the serialized
	// markup, which is measured directly rather than fetched.
	KindInlineSVG

	// KindVideo is a <video> element with a src attribute.
	KindVideo

	// KindEmbeddedVideo is an <iframe> pointing at youtube.com.
	KindEmbeddedVideo

	// KindStylesheet is a <link rel="stylesheet"> element.
	KindStylesheet

	// KindScript is a <script src="..."> element.
	KindScript

	// KindInlineScript is a <script> element without src. Location holds
	// the script text.
	KindInlineScript
)

var kindNames = map[ResourceKind]string{
	KindImage:           "image",
	KindBackgroundImage: "background_image",
	KindInlineSVG:       "inline_svg",
	KindVideo:           "video",
	KindEmbeddedVideo:   "embedded_video",
	KindStylesheet:      "stylesheet",
	KindScript:          "script",
	KindInlineScript:    "inline_script",
}

// String returns the snake_case name of the kind.
func (k ResourceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k ResourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ResourceKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown resource kind %q", string(text))
}

// IsImage reports whether the kind counts toward image totals.
func (k ResourceKind) IsImage() bool {
	return k == KindImage || k == KindBackgroundImage || k == KindInlineSVG
}

// IsVideo reports whether the kind counts toward video totals.
func (k ResourceKind) IsVideo() bool {
	return k == KindVideo || k == KindEmbeddedVideo
}

// IsStylesheet reports whether the kind counts toward CSS totals.
func (k ResourceKind) IsStylesheet() bool {
	return k == KindStylesheet
}

// IsScript reports whether the kind counts toward JS totals.
func (k ResourceKind) IsScript() bool {
	return k == KindScript || k == KindInlineScript
}

// IsInline reports whether Location holds literal content instead of a URL.
func (k ResourceKind) IsInline() bool {
	return k == KindInlineSVG || k == KindInlineScript
}

// ResourceReference is one resource found by the document analyzer.
// It is scoped to a single analysis run.
type ResourceReference struct {
	// Kind classifies the resource.
	Kind ResourceKind `json:"kind"`

	// Location is an absolute or relative URL, or literal inline content
	// when Kind.IsInline() is true.
	Location string `json:"location"`

	// IsExternal is true when the resolved URL points at a different host
	// than the analysed page. Always false for inline content.
	IsExternal bool `json:"is_external"`
}

// SizedResource is a ResourceReference with its measured size.
type SizedResource struct {
	ResourceReference

	// SizeKB is the measured size in kilobytes (1 KB = 1024 bytes). Never negative.
	SizeKB float64 `json:"size_kb"`
}
