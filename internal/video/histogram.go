package video

import (
	"image"

	"github.com/disintegration/imaging"
)

// Channel indexes a Histogram.
const (
	Red = iota
	Green
	Blue
)

// Histogram holds 256-bin counts for the red, green and blue channels.
type Histogram [3][256]int

// ComputeHistogram counts channel intensities over every pixel of img.
func ComputeHistogram(img image.Image) *Histogram {
	px := imaging.Clone(img)
	var h Histogram
	for i := 0; i+3 < len(px.Pix); i += 4 {
		h[Red][px.Pix[i]]++
		h[Green][px.Pix[i+1]]++
		h[Blue][px.Pix[i+2]]++
	}
	return &h
}

// Max returns the largest bin of channel c.
func (h *Histogram) Max(c int) int {
	m := 0
	for _, n := range h[c] {
		m = max(m, n)
	}
	return m
}

// Buckets folds channel c into n equal-width buckets for compact rendering.
func (h *Histogram) Buckets(c, n int) []int {
	if n <= 0 || n > 256 {
		n = 256
	}
	out := make([]int, n)
	for i, v := range h[c] {
		out[i*n/256] += v
	}
	return out
}
