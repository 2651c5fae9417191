// Package carbon converts transferred byte counts into energy and CO2e
// estimates.
//
// The estimator is pure: it performs no I/O and holds no mutable state, so
// one Estimator may be shared by any number of concurrent analysis runs.
// All constants are injected through Config so alternative grid
// intensities can be evaluated side by side.
//
// The arithmetic follows a fixed formula that historical reports depend on:
//
//	bytes  = sizeKB * 1024
//	energy = bytes * (KWhPerGB / BytesPerGB)
//	carbon = energy * CarbonIntensity
//
// CarbonIntensity is published in grams per kWh but is applied as if it
// were kilograms per kWh. The results are labelled "kg" regardless.
package carbon
