package fees

import "fmt"

// RangePolicy picks the y-axis ceiling of the fee chart.
type RangePolicy struct {
	Threshold  float64 `yaml:"threshold" json:"threshold"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
	Default    float64 `yaml:"default_ceiling" json:"default_ceiling"`
}

// DefaultRangePolicy is the console's stock clipping heuristic.
func DefaultRangePolicy() RangePolicy {
	return RangePolicy{Threshold: 33, Multiplier: 3, Default: 100}
}

// Ceiling returns Multiplier x average when clipping is requested and the
// average rate exceeds Threshold, otherwise Default.
func (p RangePolicy) Ceiling(stats Stats, clip bool) float64 {
	if clip && stats.AvgRate > p.Threshold {
		return p.Multiplier * stats.AvgRate
	}
	return p.Default
}

// Display holds the stats as shown in the fee popup.
type Display struct {
	Max string `json:"max"`
	Avg string `json:"avg"`
	Min string `json:"min"`
}

// Display formats the stats with the precision the console uses for each.
func (s Stats) Display() Display {
	return Display{
		Max: fmt.Sprintf("%.0f", s.MaxRate),
		Avg: fmt.Sprintf("%.1f", s.AvgRate),
		Min: fmt.Sprintf("%.2f", s.MinRate),
	}
}
