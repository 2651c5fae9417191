// Package config provides configuration structures and utilities for pagecarbon.
// It defines fetch and sizing limits, report output preferences, the
// per-site request settings read from the .pagecarbon file and overrides
// for the carbon model constants.
package config
