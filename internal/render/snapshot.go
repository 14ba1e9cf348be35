package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/story"
)

// Snapshot renders a static PNG preview of one slide: a bar chart for
// cartesian slides, a pie for polar ones. A slide without values renders
// as a blank image.
func Snapshot(st *story.Story, sl story.Slide, width, height int) ([]byte, error) {
	values := snapshotValues(st, sl)
	if len(values) == 0 {
		return blankPNG(width, height)
	}

	var buf bytes.Buffer
	if sl.Config.CoordSystem == model.CoordPolar {
		total := 0.0
		for _, v := range values {
			total += v.Value
		}
		if total <= 0 {
			return blankPNG(width, height)
		}
		pie := chart.PieChart{
			Title:  sl.Config.Title,
			Width:  width,
			Height: height,
			Values: values,
		}
		if err := pie.Render(chart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("render slide %d: %w", sl.Number, err)
		}
		return buf.Bytes(), nil
	}

	top := 0.0
	for _, v := range values {
		if v.Value > top {
			top = v.Value
		}
	}
	if top <= 0 {
		return blankPNG(width, height)
	}

	xStyle := chart.Style{FontSize: 9}
	if sl.Style != nil && sl.Style.Plot.XAxis != nil {
		xStyle.FontSize = sl.Style.Plot.XAxis.Label.FontSize
		if sl.Style.Plot.XAxis.Label.Angle != 0 {
			xStyle.TextRotationDegrees = 45
		}
	}

	bars := chart.BarChart{
		Title:      sl.Config.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xStyle,
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 9},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		BarSpacing: 4,
		BarWidth:   barWidth(width, len(values)),
		Bars:       values,
	}
	if err := bars.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render slide %d: %w", sl.Number, err)
	}
	return buf.Bytes(), nil
}

// snapshotValues reads one value per selected row. The measure is whichever
// axis channel names a numeric column; the other axis (or the label
// channel, when set to a text column) names the bar.
func snapshotValues(st *story.Story, sl story.Slide) []chart.Value {
	if st.Data == nil {
		return nil
	}

	isMeasure := make(map[string]bool)
	for _, m := range st.Data.Measures() {
		isMeasure[m] = true
	}

	measure, category := sl.Config.Y, sl.Config.X
	if isMeasure[sl.Config.X] {
		measure, category = sl.Config.X, sl.Config.Y
	}
	if !isMeasure[measure] {
		return nil
	}
	labelCol := category
	if sl.Config.Label != "" && !isMeasure[sl.Config.Label] {
		labelCol = sl.Config.Label
	}

	colors := paletteColors(sl.Style)

	var values []chart.Value
	for _, r := range st.Rows(sl) {
		v, ok := r.Measure(measure)
		if !ok {
			continue
		}
		val := chart.Value{Label: labelFor(r, labelCol), Value: v}
		if len(colors) > 0 {
			c := colors[len(values)%len(colors)]
			val.Style = chart.Style{FillColor: c, StrokeColor: c}
		}
		values = append(values, val)
	}

	if sl.Config.Sort == "byValue" {
		sort.SliceStable(values, func(i, j int) bool { return values[i].Value < values[j].Value })
	}
	return values
}

func labelFor(r dataset.Row, col string) string {
	if l := r.Dimension(col); l != "" {
		return l
	}
	return "?"
}

func paletteColors(st *model.Style) []drawing.Color {
	if st == nil || st.Plot.Marker == nil {
		return nil
	}
	var out []drawing.Color
	for _, hex := range strings.Fields(st.Plot.Marker.ColorPalette) {
		out = append(out, drawing.ColorFromHex(strings.TrimPrefix(hex, "#")))
	}
	return out
}

func barWidth(width, n int) int {
	if n == 0 {
		return 0
	}
	w := (width-80)/n - 4
	switch {
	case w < 4:
		return 4
	case w > 60:
		return 60
	}
	return w
}

func blankPNG(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode blank slide: %w", err)
	}
	return buf.Bytes(), nil
}
