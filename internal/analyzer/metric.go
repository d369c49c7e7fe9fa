package analyzer

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"strconv"
)

// Metric is a float that may be missing, e.g. an index whose denominator is
// zero. Missing metrics are written as empty CSV cells and JSON null.
type Metric struct {
	Value float64
	Valid bool
}

// Some returns a valid metric.
func Some(v float64) Metric { return Metric{Value: v, Valid: true} }

// Missing is the missing metric.
var Missing = Metric{}

// Ratio returns num/den, or Missing when den is zero.
func Ratio(num, den float64) Metric {
	if den == 0 {
		return Missing
	}
	return Some(num / den)
}

func (m Metric) String() string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (m Metric) MarshalCSV() (string, error) {
	return m.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

type sample struct {
	value  float64
	weight int64
}

// Weighted accumulates values with integer frequency weights. Statistics are
// those of the multiset in which each value appears weight times, computed
// without expanding it. Non-positive weights are ignored.
type Weighted struct {
	samples []sample
	sum     float64
	total   int64
}

// Add records value with the given weight.
func (w *Weighted) Add(value float64, weight int64) {
	if weight <= 0 {
		return
	}
	w.samples = append(w.samples, sample{value: value, weight: weight})
	w.sum += value * float64(weight)
	w.total += weight
}

// Total is the sum of weights.
func (w *Weighted) Total() int64 { return w.total }

// Sum is the weighted sum of values.
func (w *Weighted) Sum() float64 { return w.sum }

// Mean is Sum/Total, or Missing with no weight.
func (w *Weighted) Mean() Metric {
	return Ratio(w.sum, float64(w.total))
}

// Median is the median of the expanded multiset; with an even total weight
// it is the mean of the two middle elements.
func (w *Weighted) Median() Metric {
	if w.total == 0 {
		return Missing
	}
	sorted := slices.Clone(w.samples)
	slices.SortFunc(sorted, func(a, b sample) int { return cmp.Compare(a.value, b.value) })

	at := func(pos int64) float64 {
		var seen int64
		for _, s := range sorted {
			seen += s.weight
			if pos < seen {
				return s.value
			}
		}
		return sorted[len(sorted)-1].value
	}
	if w.total%2 == 1 {
		return Some(at(w.total / 2))
	}
	return Some((at(w.total/2-1) + at(w.total/2)) / 2)
}

// StdDev is the population standard deviation of the expanded multiset.
func (w *Weighted) StdDev() Metric {
	if w.total == 0 {
		return Missing
	}
	mean := w.sum / float64(w.total)
	var ss float64
	for _, s := range w.samples {
		d := s.value - mean
		ss += d * d * float64(s.weight)
	}
	return Some(math.Sqrt(ss / float64(w.total)))
}

// Summary describes an unweighted sample: linear-interpolated percentiles,
// mean and population standard deviation.
type Summary struct {
	Min, Q1, Q2, Q3, Max Metric
	Mean, S              Metric
	N                    int
}

// Summarize computes a Summary of values. An empty input gives all-missing
// statistics with N 0.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var w Weighted
	for _, v := range sorted {
		w.Add(v, 1)
	}
	return Summary{
		Min:  Some(sorted[0]),
		Q1:   Some(percentile(sorted, 25)),
		Q2:   Some(percentile(sorted, 50)),
		Q3:   Some(percentile(sorted, 75)),
		Max:  Some(sorted[len(sorted)-1]),
		Mean: w.Mean(),
		S:    w.StdDev(),
		N:    len(sorted),
	}
}

// percentile interpolates linearly between closest ranks of sorted data.
func percentile(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
