package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisSeparator     = " │ "
	colorReset        = "\x1b[0m"
)

var axisLabels = [3]string{"max", "mid", "min"}

// dash patterns cycle per series so overlapping lines stay distinguishable
// without color.
var dashPatterns = []struct {
	name   string
	period int
	on     int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
}

var seriesColors = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// canvas is a grid of braille cells, each holding a 2x4 dot matrix.
type canvas struct {
	cells  [][]uint8
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for i := range cells {
		cells[i] = make([]uint8, width)
	}
	return &canvas{cells: cells, width: width, height: height}
}

var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= dotBits[x%2][y%4]
}

// line draws with Bresenham's algorithm, skipping dots outside the dash pattern.
func (c *canvas) line(x0, y0, x1, y1, period, on int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if period <= 1 || x0%period < on {
			c.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PlotSeries renders series as a braille line chart, each scaled to its own
// range. Width and height are in terminal cells; zero picks defaults.
func PlotSeries(w io.Writer, title string, series []Series, width, height int, useColor bool) error {
	kept := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	useColor = useColor && os.Getenv("NO_COLOR") == ""

	canvases := make([]*canvas, len(kept))
	var header strings.Builder
	if title != "" {
		header.WriteString(title + "\n")
	}
	for i, s := range kept {
		values := resampleSeries(s.Values, width)
		lo, hi := minMax(s.Values)
		fmt.Fprintf(&header, "%s: min=%.2f max=%.2f\n", s.Name, lo, hi)
		if hi-lo < 1e-9 {
			lo--
			hi++
		}

		pattern := dashPatterns[i%len(dashPatterns)]
		c := newCanvas(width, height)
		dots := height * 4
		prevX, prevY := -1, -1
		for x, v := range values {
			y := int(math.Round((1 - (v-lo)/(hi-lo)) * float64(dots-1)))
			px := x * 2
			if prevX < 0 {
				prevX, prevY = px, y
			}
			c.line(prevX, prevY, px, y, pattern.period, pattern.on)
			prevX, prevY = px, y
		}
		canvases[i] = c
	}
	if _, err := io.WriteString(w, header.String()); err != nil {
		return err
	}

	labelWidth := 0
	for _, l := range axisLabels {
		if n := runewidth.StringWidth(l); n > labelWidth {
			labelWidth = n
		}
	}
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = axisLabels[0]
		case height / 2:
			label = axisLabels[1]
		case height - 1:
			label = axisLabels[2]
		}
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(label, labelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, c := range canvases {
				if bits := c.cells[y][x]; bits != 0 {
					mask |= bits
					if owner < 0 {
						owner = i
					}
				}
			}
			ch := string(rune(0x2800 + int(mask)))
			if useColor && owner >= 0 {
				ch = seriesColors[owner%len(seriesColors)] + ch + colorReset
			}
			row.WriteString(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}

	legend := make([]string, len(kept))
	for i, s := range kept {
		item := fmt.Sprintf("%c %s (%s)", rune(0x2801), s.Name, dashPatterns[i%len(dashPatterns)].name)
		if useColor {
			item = seriesColors[i%len(seriesColors)] + item + colorReset
		}
		legend[i] = item
	}
	_, err := fmt.Fprintf(w, "Legend: %s\n\n", strings.Join(legend, "  "))
	return err
}

// PlotWidthFor returns the plot width that fits totalWidth alongside the axis.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axis := runewidth.StringWidth(axisLabels[0]) + runewidth.StringWidth(axisSeparator)
	if width := totalWidth - axis; width > minPlotWidth {
		return width
	}
	return minPlotWidth
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// resampleSeries maps values onto width points: buckets are averaged when
// shrinking, neighbors linearly interpolated when stretching.
func resampleSeries(values []float64, width int) []float64 {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := (i + 1) * n / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
