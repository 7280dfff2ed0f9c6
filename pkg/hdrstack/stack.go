// Package hdrstack implements the exposure stack: decoded raw frames
// kept in order of descending gathered light, merged into one
// high-dynamic-range raster.
package hdrstack

import(
	"fmt"
	"image"
	"log"
	"sort"

	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/stat"

	"github.com/example/rawmerge/pkg/rawmerge"
)

// A layer is one exposure plus the state the stack derives for it.
type layer struct {
	img        *rawmerge.RawImage
	dx, dy     int     // translation aligning this layer to layer 0
	relExp     float64 // multiplier mapping samples into layer 0's scale
	brightness float64 // ordering key; bigger = more light gathered
}

func (l *layer)String() string {
	return fmt.Sprintf("%s: brightness %.1f, xform(%+d,%+d), relExp %.3f",
		l.img.FileName, l.brightness, l.dx, l.dy, l.relExp)
}

// A Stack of images to be merged. The images are sorted in order of
// descending exposure - the most light-gathering / most likely to
// saturate image comes first.
type Stack struct {
	layers       []*layer
	flip         int
	satThreshold float64
	bounds       image.Rectangle // active window, in layer 0 coordinates
	cropped      bool
	mask         *rawmerge.Mask
}

func New() *Stack {
	return &Stack{layers: []*layer{}}
}

func (s *Stack)String() string {
	str := "Stack[\n"
	for _, l := range s.layers {
		str += fmt.Sprintf("  %s\n", l)
	}
	return str + "]\n"
}

// Insert places the image at its exposure-ordered position and
// returns that position.
func (s *Stack)Insert(img *rawmerge.RawImage) int {
	l := &layer{img: img, relExp: 1, brightness: orderingKey(img)}

	pos := sort.Search(len(s.layers), func(i int) bool {
		return s.layers[i].brightness < l.brightness
	})
	s.layers = append(s.layers, nil)
	copy(s.layers[pos+1:], s.layers[pos:])
	s.layers[pos] = l

	if len(s.layers) == 1 {
		s.bounds = image.Rect(0, 0, img.Width, img.Height)
	}
	return pos
}

func (s *Stack)Size() int                         { return len(s.layers) }
func (s *Stack)ImageAt(i int) *rawmerge.RawImage  { return s.layers[i].img }
func (s *Stack)SetOrientation(flip int)           { s.flip = flip }
func (s *Stack)IsCropped() bool                   { return s.cropped }
func (s *Stack)Width() int                        { return s.bounds.Dx() }
func (s *Stack)Height() int                       { return s.bounds.Dy() }
func (s *Stack)Mask() *rawmerge.Mask              { return s.mask }

// MaxExposure is the factor the least exposed layer is scaled by
// when mapped into the reference scale; it bounds the composed
// sample values.
func (s *Stack)MaxExposure() float64 {
	if len(s.layers) == 0 {
		return 1
	}
	return s.layers[len(s.layers)-1].relExp
}

// orderingKey prefers the decoder's exposure metadata; a frame
// without it is ordered by its mean sample value.
func orderingKey(img *rawmerge.RawImage) float64 {
	if img.RelativeExposure > 0 {
		return img.RelativeExposure
	}
	return meanSample(img)
}

const sampleStride = 97 // prime, so subsampling is not row-locked

func meanSample(img *rawmerge.RawImage) float64 {
	sum, n := 0.0, 0
	for i := 0; i < len(img.Samples); i += sampleStride {
		sum += float64(img.Samples[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputeSaturation decides the sample level above which a layer is
// considered blown out. With a custom white level we trust it;
// otherwise the brightest layer's upper quantile decides, so sensors
// that never reach their nominal white still saturate correctly.
func (s *Stack)ComputeSaturation(p *rawmerge.RawParameters, useCustomWhite bool) {
	if len(s.layers) == 0 {
		return
	}

	nominal := 0.99 * float64(p.Max)
	if useCustomWhite {
		s.satThreshold = nominal
		log.Printf("Saturation threshold %d (custom white level)\n", int(s.satThreshold))
		return
	}

	bright := s.layers[0].img
	hist := histogram.Histogram{NumBuckets: 64, ValMin: 0, ValMax: 65536}
	vals := make([]float64, 0, len(bright.Samples)/sampleStride+1)
	for i := 0; i < len(bright.Samples); i += sampleStride {
		v := bright.Samples[i]
		hist.Add(histogram.ScalarVal(int(v)))
		vals = append(vals, float64(v))
	}
	sort.Float64s(vals)

	q := stat.Quantile(0.999, stat.Empirical, vals, nil)
	s.satThreshold = nominal
	if q < nominal {
		s.satThreshold = q
	}
	log.Printf("Saturation threshold %d; brightest layer distribution: %v\n", int(s.satThreshold), hist)
}

// sampleAt reads a layer at layer-0 coordinates, applying its
// alignment offset. Out-of-range reads clamp to the edge.
func (s *Stack)sampleAt(l *layer, x, y int) uint16 {
	x += l.dx
	y += l.dy
	if x < 0 { x = 0 }
	if y < 0 { y = 0 }
	if x >= l.img.Width  { x = l.img.Width - 1 }
	if y >= l.img.Height { y = l.img.Height - 1 }
	return l.img.At(x, y)
}
