package chart

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"kvmix/internal/histogram"
)

// Size は出力画像のサイズ
type Size struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultSize はデフォルトの画像サイズ（6.4x4.8インチ）
var DefaultSize = Size{Width: 6.4 * vg.Inch, Height: 4.8 * vg.Inch}

var barColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Render はヒストグラムを描画して path に保存する
// 形式は拡張子で決まる（.png, .svg, .pdf ...）
func Render(path, title, xLabel string, h histogram.Histogram) error {
	return RenderSize(path, title, xLabel, h, DefaultSize)
}

// RenderSize はサイズを指定してヒストグラムを描画する
func RenderSize(path, title, xLabel string, h histogram.Histogram, size Size) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Count"

	if h.Empty() {
		// 値が無い場合は軸とタイトルだけを描く
		p.X.Min, p.X.Max = h.Min, h.Max
		p.Y.Min, p.Y.Max = 0, 1
	} else {
		p.Add(bars(h))
		p.Y.Min = 0
	}

	if err := p.Save(size.Width, size.Height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func bars(h histogram.Histogram) *plotter.Histogram {
	bins := make([]plotter.HistogramBin, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}

	return &plotter.Histogram{
		Bins:      bins,
		Width:     h.Width(),
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
}
