package hdrstack

import(
	"fmt"
	"log"

	"github.com/example/rawmerge/pkg/rawmerge"
)

// GenerateMask decides, per pixel, which layer contributes it: the
// most exposed layer whose sample is still below the saturation
// threshold, falling through to the least exposed layer.
func (s *Stack)GenerateMask() {
	w, h := s.bounds.Dx(), s.bounds.Dy()
	s.mask = rawmerge.NewMask(w, h)

	n := len(s.layers)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bx, by := x+s.bounds.Min.X, y+s.bounds.Min.Y
			idx := 0
			for idx < n-1 && float64(s.sampleAt(s.layers[idx], bx, by)) >= s.satThreshold {
				idx++
			}
			s.mask.Index[y*w + x] = uint8(idx)
		}
	}
}

// Compose merges the layers into one float raster following the
// mask, with transitions feathered by blurring the mask
// featherRadius times and blending between the two straddled layers.
// Output samples are black-anchored raw values scaled into layer 0's
// exposure, so they can exceed the 16-bit range.
func (s *Stack)Compose(p *rawmerge.RawParameters, featherRadius int) *rawmerge.Raster {
	w, h := s.bounds.Dx(), s.bounds.Dy()
	n := len(s.layers)
	if s.mask == nil {
		s.GenerateMask()
	}

	weight := rawmerge.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			weight.Set(x, y, float64(s.mask.At(x, y)))
		}
	}
	for r := 0; r < featherRadius; r++ {
		weight = weight.GaussianBlur()
	}

	out := rawmerge.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bx, by := x+s.bounds.Min.X, y+s.bounds.Min.Y
			black := p.BlackAt(bx-p.LeftMargin, by-p.TopMargin)

			wv := weight.Get(x, y)
			if wv < 0 { wv = 0 }
			if wv > float64(n-1) { wv = float64(n - 1) }
			i0 := int(wv)
			i1 := i0 + 1
			if i1 > n-1 { i1 = n - 1 }
			frac := wv - float64(i0)

			v0 := s.exposedValue(s.layers[i0], bx, by, black)
			v1 := s.exposedValue(s.layers[i1], bx, by, black)
			out.Set(x, y, black + v0*(1-frac) + v1*frac)
		}
	}

	log.Printf("Composed %s\n", out.Stats())
	return out
}

// exposedValue is a layer's black-subtracted sample rescaled into
// the reference exposure.
func (s *Stack)exposedValue(l *layer, x, y int, black float64) float64 {
	v := float64(s.sampleAt(l, x, y)) - black
	if v < 0 {
		v = 0
	}
	return v * l.relExp
}

// DumpLayers writes each aligned layer as a labelled grayscale PNG,
// for eyeballing alignment and response scaling.
func (s *Stack)DumpLayers() error {
	w, h := s.bounds.Dx(), s.bounds.Dy()
	for i, l := range s.layers {
		r := rawmerge.NewRaster(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.Set(x, y, float64(s.sampleAt(l, x+s.bounds.Min.X, y+s.bounds.Min.Y)))
			}
		}
		name := fmt.Sprintf("layer-%02d.png", i)
		if err := r.ToImg(l.String(), name); err != nil {
			return fmt.Errorf("dump layer %d: %v", i, err)
		}
		log.Printf("Layer dump written to %s\n", name)
	}
	return nil
}
