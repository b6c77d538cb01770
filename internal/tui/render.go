package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maauso/mediamanip/internal/raster"
	"github.com/maauso/mediamanip/internal/tui/styles"
	"github.com/maauso/mediamanip/internal/video"
)

// halfBlock draws two vertically stacked pixels per cell: the glyph takes the
// top colour, the cell background the bottom one.
const halfBlock = "▀"

var barLevels = []rune(" ▁▂▃▄▅▆▇█")

// renderImage fits img into cols x rows cells.
func renderImage(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	thumb := raster.Thumbnail(img, cols, rows*2)
	b := thumb.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(thumb.NRGBAAt(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hexColor(thumb.NRGBAAt(x, y+1)))
			}
			sb.WriteString(style.Render(halfBlock))
		}
	}
	return sb.String()
}

func hexColor(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// renderHistogram draws one bar line per channel, width cells wide.
func renderHistogram(h *video.Histogram, width int, st *styles.Styles) string {
	if h == nil {
		return ""
	}
	const label = 6
	width = max(8, min(256, width-label))

	channels := []struct {
		name  string
		index int
		color lipgloss.Color
	}{
		{"Red", video.Red, lipgloss.Color("#e94560")},
		{"Green", video.Green, lipgloss.Color("#4caf50")},
		{"Blue", video.Blue, lipgloss.Color("#3e8ede")},
	}

	lines := []string{st.Section.Render("Histogram (frame 0)"), ""}
	for _, ch := range channels {
		lines = append(lines,
			fmt.Sprintf("%-*s", label, ch.name)+
				lipgloss.NewStyle().Foreground(ch.color).Render(bars(h.Buckets(ch.index, width))))
	}
	return strings.Join(lines, "\n")
}

// bars maps counts onto eighth-block glyphs scaled to the largest count.
// Non-zero counts always show at least the lowest bar.
func bars(counts []int) string {
	top := 0
	for _, n := range counts {
		top = max(top, n)
	}
	out := make([]rune, len(counts))
	steps := len(barLevels) - 1
	for i, n := range counts {
		level := 0
		if top > 0 && n > 0 {
			level = max(1, n*steps/top)
		}
		out[i] = barLevels[level]
	}
	return string(out)
}
