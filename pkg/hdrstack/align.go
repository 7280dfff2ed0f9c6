package hdrstack

import(
	"image"
	"log"
	"math"
)

const maxShift = 16

// Align estimates a translation for every layer relative to layer 0:
// a coarse search over +/-maxShift, then a fine pass around the best
// coarse hit. Exposure differences are normalized away by comparing
// brightness-scaled samples, and pixels near black or saturation are
// ignored - they carry no alignment signal.
func (s *Stack)Align() {
	if len(s.layers) < 2 {
		return
	}

	base := s.layers[0]
	baseMean := meanSample(base.img)

	for i := 1; i < len(s.layers); i++ {
		l := s.layers[i]
		scale := 1.0
		if m := meanSample(l.img); m > 0 {
			scale = baseMean / m
		}

		bestDx, bestDy, bestErr := 0, 0, math.MaxFloat64
		// Coarse pass
		for dy := -maxShift; dy <= maxShift; dy += 4 {
			for dx := -maxShift; dx <= maxShift; dx += 4 {
				if e := s.alignErr(base, l, dx, dy, scale); e < bestErr {
					bestDx, bestDy, bestErr = dx, dy, e
				}
			}
		}
		// Fine pass around the coarse winner
		cDx, cDy := bestDx, bestDy
		for dy := cDy - 3; dy <= cDy+3; dy++ {
			for dx := cDx - 3; dx <= cDx+3; dx++ {
				if e := s.alignErr(base, l, dx, dy, scale); e < bestErr {
					bestDx, bestDy, bestErr = dx, dy, e
				}
			}
		}

		l.dx, l.dy = bestDx, bestDy
		log.Printf("Aligned %s at (%+d,%+d), err %.1f\n", l.img.FileName, bestDx, bestDy, bestErr)
	}
}

// alignErr is the mean absolute difference between the base layer
// and a candidate placement of l, over a sparse pixel grid.
func (s *Stack)alignErr(base, l *layer, dx, dy int, scale float64) float64 {
	const grid = 8
	tooLow := 0.02 * 65535.0
	tooHigh := s.satThreshold
	if tooHigh <= 0 {
		tooHigh = 0.98 * 65535.0
	}

	totErr, n := 0.0, 0
	b := s.bounds
	for y := b.Min.Y + maxShift; y < b.Max.Y-maxShift; y += grid {
		for x := b.Min.X + maxShift; x < b.Max.X-maxShift; x += grid {
			v1 := float64(base.img.At(x, y))
			if v1 < tooLow || v1 > tooHigh {
				continue
			}
			v2 := float64(l.img.At(x+dx, y+dy)) * scale
			if v2 < tooLow || v2 > tooHigh {
				continue
			}
			totErr += math.Abs(v1 - v2)
			n++
		}
	}
	if n == 0 {
		return math.MaxFloat64
	}
	return totErr / float64(n)
}

// Crop shrinks the active window to the region every aligned layer
// actually covers.
func (s *Stack)Crop() {
	if len(s.layers) == 0 {
		return
	}

	full := image.Rect(0, 0, s.layers[0].img.Width, s.layers[0].img.Height)
	b := full
	for _, l := range s.layers {
		// Layer content is valid at base coords where x+dx,y+dy land inside it
		covered := image.Rect(-l.dx, -l.dy, l.img.Width-l.dx, l.img.Height-l.dy)
		b = b.Intersect(covered)
	}

	s.bounds = b
	s.cropped = b != full
	if s.cropped {
		log.Printf("Cropped stack to %v\n", b)
	}
}
