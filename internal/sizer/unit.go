package sizer

import (
	"strings"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Unit is the scale a size is reported in.
type Unit int

const (
	// KB is kilobytes (1024 bytes).
	KB Unit = iota + 1

	// MB is megabytes (1024 * 1024 bytes).
	MB
)

const (
	bytesPerKB = 1024
	bytesPerMB = 1024 * 1024
)

// String returns "KB" or "MB".
func (u Unit) String() string {
	switch u {
	case KB:
		return "KB"
	case MB:
		return "MB"
	default:
		return "invalid"
	}
}

// ParseUnit converts a case-insensitive unit name.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KB":
		return KB, nil
	case "MB":
		return MB, nil
	default:
		return 0, &model.InvalidUnitError{Unit: s}
	}
}

// Convert expresses n bytes in unit u.
func Convert(n int64, u Unit) (float64, error) {
	switch u {
	case KB:
		return float64(n) / bytesPerKB, nil
	case MB:
		return float64(n) / bytesPerMB, nil
	default:
		return 0, &model.InvalidUnitError{Unit: u.String()}
	}
}
