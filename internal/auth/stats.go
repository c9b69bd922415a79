package auth

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ScoreStats summarises the scores of one verification
type ScoreStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

func calculateStats(data []float64) ScoreStats {
	if len(data) == 0 {
		return ScoreStats{}
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	stats := ScoreStats{
		Count:  len(data),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: median(sorted),
		Mean:   stat.Mean(sorted, nil),
	}
	if len(sorted) > 1 {
		stats.StdDev = stat.PopStdDev(sorted, nil)
	}

	return sanitizeStats(stats)
}

// median expects sorted input
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sanitizeStats keeps the stats JSON-encodable
func sanitizeStats(s ScoreStats) ScoreStats {
	for _, v := range []*float64{&s.Mean, &s.Median, &s.Min, &s.Max, &s.StdDev} {
		if math.IsInf(*v, 0) || math.IsNaN(*v) {
			*v = 0
		}
	}
	return s
}
