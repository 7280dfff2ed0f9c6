package hdrstack

import(
	"log"

	"gonum.org/v1/gonum/stat"
)

// ComputeResponseFunctions fits, for each adjacent pair of layers,
// the factor that maps the dimmer layer's samples onto the brighter
// one's, chaining the factors so every layer ends up in layer 0's
// scale. The fit is a least-squares line through the origin over
// pixels both layers expose usefully; when a pair shares too few
// such pixels the exposure metadata ratio stands in.
func (s *Stack)ComputeResponseFunctions() {
	if len(s.layers) == 0 {
		return
	}
	s.layers[0].relExp = 1.0

	for i := 1; i < len(s.layers); i++ {
		brighter, dimmer := s.layers[i-1], s.layers[i]

		xs, ys := s.usablePairs(brighter, dimmer)
		factor := 0.0
		if len(xs) >= 16 {
			_, beta := stat.LinearRegression(xs, ys, nil, true)
			factor = beta
		}
		if factor <= 1.0 {
			factor = metadataRatio(brighter, dimmer)
		}

		dimmer.relExp = brighter.relExp * factor
		log.Printf("Response %s -> %s: factor %.4f (relExp %.4f)\n",
			dimmer.img.FileName, brighter.img.FileName, factor, dimmer.relExp)
	}
}

// usablePairs collects (dimmer, brighter) sample pairs over a sparse
// grid, keeping only pixels that are mid-range in both layers.
func (s *Stack)usablePairs(brighter, dimmer *layer) ([]float64, []float64) {
	const grid = 8
	low := 0.02 * 65535.0
	high := s.satThreshold
	if high <= 0 {
		high = 0.98 * 65535.0
	}

	xs, ys := []float64{}, []float64{}
	b := s.bounds
	for y := b.Min.Y; y < b.Max.Y; y += grid {
		for x := b.Min.X; x < b.Max.X; x += grid {
			vb := float64(s.sampleAt(brighter, x, y))
			vd := float64(s.sampleAt(dimmer, x, y))
			if vb < low || vb > high || vd < low || vd > high {
				continue
			}
			xs = append(xs, vd)
			ys = append(ys, vb)
		}
	}
	return xs, ys
}

// metadataRatio falls back to the decoder's exposure ordering keys;
// never below 1, a dimmer layer cannot need less gain.
func metadataRatio(brighter, dimmer *layer) float64 {
	if brighter.brightness > 0 && dimmer.brightness > 0 {
		if r := brighter.brightness / dimmer.brightness; r > 1.0 {
			return r
		}
	}
	return 2.0 // one stop, the usual bracket step
}
