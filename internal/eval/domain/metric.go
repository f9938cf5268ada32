package domain

import (
	"context"
	"math"
)

// Metric scores one item's output against its expected value. Compute may
// perform slow I/O (e.g. model-graded scoring) and must respect ctx.
// Each metric computation is independently fallible: an error here degrades
// that single metric's score, never the item.
type Metric interface {
	Name() string
	Compute(ctx context.Context, output, expected, input interface{}) (float64, error)
}

type metricFunc struct {
	name string
	f    func(ctx context.Context, output, expected, input interface{}) (float64, error)
}

// NewMetric wraps a plain function as a Metric.
func NewMetric(name string, f func(ctx context.Context, output, expected, input interface{}) (float64, error)) Metric {
	return &metricFunc{name: name, f: f}
}

func (m *metricFunc) Name() string { return m.name }

func (m *metricFunc) Compute(ctx context.Context, output, expected, input interface{}) (float64, error) {
	return m.f(ctx, output, expected, input)
}

// MetricStats are aggregate statistics of one metric over all items that
// produced a valid score for it.
type MetricStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ComputeMetricStats aggregates per-item scores into per-metric statistics.
// Errored scores are excluded from the aggregate.
func ComputeMetricStats(items []ItemState, metricNames []string) map[string]MetricStats {
	stats := make(map[string]MetricStats, len(metricNames))
	for _, name := range metricNames {
		s := MetricStats{Min: math.Inf(1), Max: math.Inf(-1)}
		sum := 0.0
		for i := range items {
			score, ok := items[i].Scores[name]
			if !ok || score.Err != "" {
				continue
			}
			s.Count++
			sum += score.Value
			if score.Value < s.Min {
				s.Min = score.Value
			}
			if score.Value > s.Max {
				s.Max = score.Value
			}
		}
		if s.Count == 0 {
			s.Min, s.Max = 0, 0
		} else {
			s.Mean = sum / float64(s.Count)
		}
		stats[name] = s
	}
	return stats
}
