package histogram

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins はヒストグラムのデフォルトのビン数
const DefaultBins = 50

// Bin はヒストグラムの1区間 [Min, Max)（最後のビンのみ Max を含む）
type Bin struct {
	Min   float64
	Max   float64
	Count int
}

// Histogram は固定ビン数のヒストグラム
type Histogram struct {
	Bins  []Bin
	Total int
	Min   float64
	Max   float64
}

// Width はビン幅を返す
func (h Histogram) Width() float64 {
	if len(h.Bins) == 0 {
		return 0
	}
	return h.Bins[0].Max - h.Bins[0].Min
}

// Empty は値が1つも無いかどうかを返す
func (h Histogram) Empty() bool {
	return h.Total == 0
}

// New は values を bins 個の等幅ビンに振り分ける
// values が空なら [0, 1]、全て同じ値なら [v-0.5, v+0.5] を範囲とする
func New(values []float64, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)

	lo, hi := 0.0, 1.0
	if len(sorted) > 0 {
		lo, hi = sorted[0], sorted[len(sorted)-1]
		if lo == hi {
			lo, hi = lo-0.5, hi+0.5
		}
	}

	dividers := spanDividers(lo, hi, bins)

	h := Histogram{
		Bins:  make([]Bin, bins),
		Total: len(sorted),
		Min:   lo,
		Max:   hi,
	}

	var counts []float64
	if len(sorted) > 0 {
		// stat.Histogram は右端を含まないので最大値を最後のビンに入れるためにずらす
		edges := make([]float64, len(dividers))
		copy(edges, dividers)
		edges[bins] = math.Nextafter(hi, math.Inf(1))
		counts = stat.Histogram(nil, edges, sorted, nil)
	}

	for i := range h.Bins {
		h.Bins[i] = Bin{Min: dividers[i], Max: dividers[i+1]}
		if counts != nil {
			h.Bins[i].Count = int(counts[i])
		}
	}
	return h
}

// spanDividers は [lo, hi] を bins 等分する境界を返す
// hi-lo が float64 に収まらない範囲でも境界は有限のまま単調増加する
func spanDividers(lo, hi float64, bins int) []float64 {
	dividers := make([]float64, bins+1)
	if span := hi - lo; !math.IsInf(span, 0) {
		floats.Span(dividers, lo, hi)
	} else {
		for i := range dividers {
			t := float64(i) / float64(bins)
			dividers[i] = lo*(1-t) + hi*t
		}
	}
	dividers[0] = lo
	dividers[bins] = hi
	return dividers
}

// Summary は分布の要約統計量
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	P50    float64
	P95    float64
	P99    float64
	StdDev float64
}

// Summarize は values の要約統計量を計算する
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	data := stats.LoadRawData(values)
	s := Summary{Count: len(values)}
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Mean, _ = stats.Mean(data)
	s.P50, _ = stats.Median(data)
	s.P95, _ = stats.Percentile(data, 95)
	s.P99, _ = stats.Percentile(data, 99)
	s.StdDev, _ = stats.StandardDeviation(data)
	return s
}
