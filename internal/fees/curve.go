package fees

import (
	"encoding/json"
	"fmt"
	"math/bits"
)

// CurvePoint is one step of the cumulative fee curve.
// It encodes as the [x, y] pair the chart library plots.
type CurvePoint struct {
	Vbytes float64 // cumulative size up to and including this record
	Rate   float64 // fee per vbyte of this record
}

func (p CurvePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Vbytes, p.Rate})
}

func (p *CurvePoint) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.Vbytes, p.Rate = xy[0], xy[1]
	return nil
}

// Stats summarises a working set, in satoshis per vbyte.
// AvgRate is total fee over total size, not the mean of record rates.
type Stats struct {
	MaxRate float64 `json:"max_rate"`
	MinRate float64 `json:"min_rate"`
	AvgRate float64 `json:"avg_rate"`
}

// BuildCurve walks the working set in order, accumulating size and fee.
// Sums stay integral; floats appear only in the emitted values.
func BuildCurve(set []Record) ([]CurvePoint, Stats, error) {
	var (
		stats       Stats
		totalWeight uint64
		totalFee    uint64
	)
	points := make([]CurvePoint, 0, len(set))

	for i, r := range set {
		rate, err := r.Rate()
		if err != nil {
			return nil, Stats{}, fmt.Errorf("record %d: zero weight: %w", i, err)
		}
		if i == 0 {
			stats.MaxRate, stats.MinRate = rate, rate
		} else if rate > stats.MaxRate {
			stats.MaxRate = rate
		} else if rate < stats.MinRate {
			stats.MinRate = rate
		}

		if totalWeight, totalFee, err = addRecord(totalWeight, totalFee, r); err != nil {
			return nil, Stats{}, fmt.Errorf("record %d: %w", i, err)
		}
		points = append(points, CurvePoint{
			Vbytes: float64(totalWeight) / WeightPerVbyte,
			Rate:   rate,
		})
	}

	if totalWeight > 0 {
		stats.AvgRate = float64(totalFee) / (float64(totalWeight) / WeightPerVbyte)
	}
	return points, stats, nil
}

// addRecord adds r to the running sums, failing when either would wrap.
func addRecord(weight, fee uint64, r Record) (uint64, uint64, error) {
	w, c1 := bits.Add64(weight, r.Weight, 0)
	f, c2 := bits.Add64(fee, r.Fee, 0)
	if c1|c2 != 0 {
		return weight, fee, fmt.Errorf("%w: sum overflows", ErrInvalidRecord)
	}
	return w, f, nil
}

// Chart is a processed fee distribution ready for plotting.
type Chart struct {
	Mode    Mode         `json:"-"`
	Records []Record     `json:"records"`
	Points  []CurvePoint `json:"points"`
	Stats   Stats        `json:"stats"`
}

// Distribution runs Process and BuildCurve. On error no partial chart is
// returned, so callers keep whatever they displayed before.
func Distribution(records []Record, mode Mode) (*Chart, error) {
	set, err := Process(records, mode)
	if err != nil {
		return nil, err
	}
	points, stats, err := BuildCurve(set)
	if err != nil {
		return nil, err
	}
	return &Chart{Mode: mode, Records: set, Points: points, Stats: stats}, nil
}
