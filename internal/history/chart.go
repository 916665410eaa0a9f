package history

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrEmpty = errors.New("history: no points")

type ChartOptions struct {
	Width  int
	Height int
	Name1  string
	Name2  string
}

// RenderPNG charts the cumulative score of each side against completed
// games. go-chart needs at least two x values, so the origin is prepended.
func RenderPNG(points []Point, opts ChartOptions) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 400
	}
	name1, name2 := opts.Name1, opts.Name2
	if name1 == "" {
		name1 = "Engine 1"
	}
	if name2 == "" {
		name2 = "Engine 2"
	}

	if points[0].Completed > 0 {
		points = append([]Point{{}}, points...)
	}
	xs := make([]float64, len(points))
	ys1 := make([]float64, len(points))
	ys2 := make([]float64, len(points))
	maxX, maxY := 1.0, 1.0
	for i, p := range points {
		xs[i] = float64(p.Completed)
		ys1[i] = p.Score1
		ys2[i] = p.Score2
		maxX = max(maxX, xs[i])
		maxY = max(maxY, p.Score1, p.Score2)
	}

	ch := chart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "games", Range: &chart.ContinuousRange{Min: 0, Max: maxX}},
		YAxis:      chart.YAxis{Name: "score", Range: &chart.ContinuousRange{Min: 0, Max: maxY}},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: name1, XValues: xs, YValues: ys1, Style: lineStyle(chart.ColorBlue)},
			chart.ContinuousSeries{Name: name2, XValues: xs, YValues: ys2, Style: lineStyle(chart.ColorRed)},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
		DotWidth:    2,
		DotColor:    col,
	}
}
