package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Metric is an optional float64. A metric that could not be computed (for
// example a ratio with a zero denominator) is carried as Valid=false and
// serialized as JSON null, never as a plausible-looking zero.
type Metric struct {
	Value float64
	Valid bool
}

// MetricOf returns a present metric. Non-finite values are treated as
// not computable.
func MetricOf(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Value: v, Valid: true}
}

// MissingMetric returns an explicitly absent metric.
func MissingMetric() Metric {
	return Metric{}
}

// Ratio returns num/den, or a missing metric when den is zero.
func Ratio(num, den float64) Metric {
	if den == 0 {
		return Metric{}
	}
	return MetricOf(num / den)
}

// Percent returns num/den*100, or a missing metric when den is zero.
func Percent(num, den float64) Metric {
	if den == 0 {
		return Metric{}
	}
	return MetricOf(num / den * 100)
}

// Scale multiplies a present metric by f; a missing metric stays missing.
func (m Metric) Scale(f float64) Metric {
	if !m.Valid {
		return Metric{}
	}
	return MetricOf(m.Value * f)
}

// Clamp bounds a present metric to [lo, hi]; a missing metric stays missing.
func (m Metric) Clamp(lo, hi float64) Metric {
	if !m.Valid {
		return Metric{}
	}
	return MetricOf(math.Min(math.Max(m.Value, lo), hi))
}

// WeightedSum combines weighted terms. If any term is missing the result is
// missing: a partial formula must never masquerade as a full one.
func WeightedSum(terms ...WeightedTerm) Metric {
	var sum float64
	for _, t := range terms {
		if !t.Metric.Valid {
			return Metric{}
		}
		sum += t.Weight * t.Metric.Value
	}
	return MetricOf(sum)
}

// WeightedTerm is one weight*metric term of a composite score.
type WeightedTerm struct {
	Weight float64
	Metric Metric
}

// Term pairs a weight with a metric.
func Term(weight float64, m Metric) WeightedTerm {
	return WeightedTerm{Weight: weight, Metric: m}
}

var jsonNull = []byte("null")

// MarshalJSON renders a missing metric as null and a present one as a number
// rounded to two decimals.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return jsonNull, nil
	}
	return []byte(fmt.Sprintf("%.2f", m.Value)), nil
}

// UnmarshalJSON accepts null or a number.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = MetricOf(v)
	return nil
}

// Count is an optional non-negative integer, used for view/like/comment
// counts the platform may withhold. Unknown is distinct from zero.
type Count struct {
	Value int64
	Valid bool
}

// CountOf returns a present count. Negative values are treated as unknown.
func CountOf(v int64) Count {
	if v < 0 {
		return Count{}
	}
	return Count{Value: v, Valid: true}
}

// UnknownCount returns an explicitly unknown count.
func UnknownCount() Count {
	return Count{}
}

// Metric converts a present count into a present metric.
func (c Count) Metric() Metric {
	if !c.Valid {
		return Metric{}
	}
	return MetricOf(float64(c.Value))
}

// MarshalJSON renders an unknown count as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return jsonNull, nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts null or an integer.
func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*c = Count{}
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = CountOf(v)
	return nil
}
