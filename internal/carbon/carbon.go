package carbon

import (
	"errors"

	"github.com/nao1215/pagecarbon/internal/model"
)

const (
	// DefaultCarbonIntensity is the grid carbon intensity in g CO2e per kWh.
	DefaultCarbonIntensity = 441.3

	// DefaultBytesPerGB is the number of bytes in one gigabyte (GiB).
	DefaultBytesPerGB = 1073741824

	// DefaultKWhPerGB is the average energy needed to transfer one gigabyte.
	DefaultKWhPerGB = 1.805

	// DefaultMaxCarbonKg is the carbon figure that maps to a score of 0.
	DefaultMaxCarbonKg = 100.0

	// bytesPerKB converts kilobytes to bytes.
	bytesPerKB = 1024
)

var (
	// ErrInvalidIntensity is returned when the carbon intensity is negative.
	ErrInvalidIntensity = errors.New("carbon intensity must not be negative")

	// ErrInvalidBytesPerGB is returned when bytes per GB is not positive.
	ErrInvalidBytesPerGB = errors.New("bytes per GB must be positive")

	// ErrInvalidKWhPerGB is returned when kWh per GB is negative.
	ErrInvalidKWhPerGB = errors.New("kWh per GB must not be negative")
)

// Config holds the estimator constants.
type Config struct {
	// CarbonIntensity is applied as kg CO2e per kWh.
	CarbonIntensity float64 `yaml:"carbon_intensity" json:"carbon_intensity"`

	// BytesPerGB is the divisor used to express bytes as gigabytes.
	BytesPerGB float64 `yaml:"bytes_per_gb" json:"bytes_per_gb"`

	// KWhPerGB is the transfer energy per gigabyte.
	KWhPerGB float64 `yaml:"kwh_per_gb" json:"kwh_per_gb"`
}

// DefaultConfig returns the reference constants.
func DefaultConfig() Config {
	return Config{
		CarbonIntensity: DefaultCarbonIntensity,
		BytesPerGB:      DefaultBytesPerGB,
		KWhPerGB:        DefaultKWhPerGB,
	}
}

// Validate checks that the constants produce non-negative results.
func (c Config) Validate() error {
	if c.CarbonIntensity < 0 {
		return ErrInvalidIntensity
	}
	if c.BytesPerGB <= 0 {
		return ErrInvalidBytesPerGB
	}
	if c.KWhPerGB < 0 {
		return ErrInvalidKWhPerGB
	}
	return nil
}

// Estimator computes energy and carbon figures from sizes.
type Estimator struct {
	cfg Config
}

// NewEstimator returns an Estimator using cfg.
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg}, nil
}

// Default returns an Estimator using DefaultConfig.
func Default() *Estimator {
	return &Estimator{cfg: DefaultConfig()}
}

// Config returns the constants the estimator was built with.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Estimate converts a size in kilobytes into energy (kWh) and carbon (kg).
// Negative sizes are treated as zero.
func (e *Estimator) Estimate(sizeKB float64) (energyKWh, carbonKg float64) {
	if sizeKB <= 0 {
		return 0, 0
	}
	sizeBytes := sizeKB * bytesPerKB
	energyKWh = sizeBytes * (e.cfg.KWhPerGB / e.cfg.BytesPerGB)
	carbonKg = energyKWh * e.cfg.CarbonIntensity
	return energyKWh, carbonKg
}

// Score maps a carbon figure to a rating where 100 is best.
// The result is floored at 0 and has no ceiling. A non-positive maxCarbonKg
// falls back to DefaultMaxCarbonKg.
func Score(carbonKg, maxCarbonKg float64) float64 {
	if maxCarbonKg <= 0 {
		maxCarbonKg = DefaultMaxCarbonKg
	}
	score := 100 * (1 - carbonKg/maxCarbonKg)
	if score < 0 {
		return 0
	}
	return score
}

// DefaultScore is Score with DefaultMaxCarbonKg.
func DefaultScore(carbonKg float64) float64 {
	return Score(carbonKg, DefaultMaxCarbonKg)
}

// Footprint derives the carbon breakdown for one page.
//
// CarbonFootprintScore is set to the page energy in kWh, matching stored
// reports. Use Score on TotalCarbonKg for a 0-100 rating.
func (e *Estimator) Footprint(m model.PageMetrics) model.CarbonFootprint {
	pageEnergy, _ := e.Estimate(m.PageSizeKB)
	_, imagesCarbon := e.Estimate(m.TotalImageSizeKB)
	_, videosCarbon := e.Estimate(m.TotalVideoSizeKB)
	_, otherCarbon := e.Estimate(m.OtherSizeKB())

	return model.CarbonFootprint{
		TotalEnergyUsageKWh:     pageEnergy,
		CarbonFootprintScore:    pageEnergy,
		CarbonFootprintImagesKg: imagesCarbon,
		CarbonFootprintVideosKg: videosCarbon,
		CarbonFootprintOtherKg:  otherCarbon,
	}
}
