package model

// PageMetrics holds aggregate counts and size totals for one analysed page.
// All sizes are in kilobytes.
//
// PageSizeKB is the sum of every sized resource, so
// TotalImageSizeKB + TotalVideoSizeKB + OtherSizeKB() == PageSizeKB.
type PageMetrics struct {
	PageSizeKB float64 `json:"page_size_kb"`

	NumImages            int `json:"num_images"`
	NumVideos            int `json:"num_videos"`
	NumExternalResources int `json:"num_external_resources"`

	// Link counts are evaluated independently; one anchor may count
	// toward several of them.
	NumInternalLinks    int `json:"num_internal_links"`
	NumExternalLinks    int `json:"num_external_links"`
	NumSocialMediaLinks int `json:"num_social_media_links"`

	TotalImageSizeKB float64 `json:"total_image_size_kb"`
	TotalVideoSizeKB float64 `json:"total_video_size_kb"`

	// CSS and JS totals are part of PageSizeKB but only reported as "other"
	// by the carbon footprint.
	TotalCSSSizeKB float64 `json:"total_css_size_kb"`
	TotalJSSizeKB  float64 `json:"total_js_size_kb"`
}

// Add folds one sized resource into the running totals.
//
// Every image reference counts toward NumImages whatever its size.
// Video references only count, and only contribute bytes, when they
// measured larger than zero.
func (m *PageMetrics) Add(r SizedResource) {
	size := r.SizeKB
	if size < 0 {
		size = 0
	}

	switch {
	case r.Kind.IsImage():
		m.NumImages++
		m.TotalImageSizeKB += size
		m.PageSizeKB += size
	case r.Kind.IsVideo():
		if size > 0 {
			m.NumVideos++
			m.TotalVideoSizeKB += size
			m.PageSizeKB += size
		}
	case r.Kind.IsStylesheet():
		m.TotalCSSSizeKB += size
		m.PageSizeKB += size
	case r.Kind.IsScript():
		m.TotalJSSizeKB += size
		m.PageSizeKB += size
	}
}

// OtherSizeKB returns the page weight not attributed to images or video.
// Floating point rounding can push the raw difference slightly below zero,
// so the result is clamped at 0.
func (m PageMetrics) OtherSizeKB() float64 {
	other := m.PageSizeKB - m.TotalImageSizeKB - m.TotalVideoSizeKB
	if other < 0 {
		return 0
	}
	return other
}

// CarbonFootprint holds the energy and CO2e estimates for one page.
// It is computed once by the carbon estimator and never modified.
type CarbonFootprint struct {
	// TotalEnergyUsageKWh is the estimated energy to transfer the whole page.
	TotalEnergyUsageKWh float64 `json:"total_energy_usage_kwh"`

	// CarbonFootprintScore stores the page energy figure (kWh), not a 0-100
	// rating. Historical reports depend on this value.
	CarbonFootprintScore float64 `json:"carbon_footprint_score"`

	CarbonFootprintImagesKg float64 `json:"carbon_footprint_images_kg"`
	CarbonFootprintVideosKg float64 `json:"carbon_footprint_videos_kg"`
	CarbonFootprintOtherKg  float64 `json:"carbon_footprint_other_kg"`
}

// TotalCarbonKg returns the summed CO2e of the three breakdown buckets.
func (f CarbonFootprint) TotalCarbonKg() float64 {
	return f.CarbonFootprintImagesKg + f.CarbonFootprintVideosKg + f.CarbonFootprintOtherKg
}
