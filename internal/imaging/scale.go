package imaging

import "math"

// ScaleDimensions fits width x height inside maxWidth x maxHeight, preserving the aspect ratio.
// The width bound is applied first; if the height still exceeds its bound both sides are scaled
// again. Images already inside the bounds are never enlarged. Results are rounded to the nearest
// pixel and never drop below 1.
func ScaleDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}

	w, h := float64(width), float64(height)
	if maxWidth > 0 && w > float64(maxWidth) {
		ratio := float64(maxWidth) / w
		w, h = float64(maxWidth), h*ratio
	}
	if maxHeight > 0 && h > float64(maxHeight) {
		ratio := float64(maxHeight) / h
		w, h = w*ratio, float64(maxHeight)
	}

	return atLeastOne(w), atLeastOne(h)
}

func atLeastOne(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}
