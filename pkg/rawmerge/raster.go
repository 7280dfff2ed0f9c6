package rawmerge

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"
)

// A Raster is a grid of float64 samples, the working currency of
// composition: raw values can exceed the 16-bit range once dimmer
// exposures are rescaled into the reference exposure's scale.
type Raster struct {
	stride int
	values []float64
}

func NewRaster(w, h int) *Raster {
	return &Raster{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (r *Raster)Set(x, y int, v float64) { r.values[r.stride*y + x] = v }
func (r *Raster)Get(x, y int) float64    { return r.values[r.stride*y + x] }
func (r *Raster)Dx() int                 { return r.stride }
func (r *Raster)Dy() int                 { return len(r.values) / r.stride }

func (r *Raster)Copy() *Raster {
	r2 := Raster{stride: r.stride, values: make([]float64, len(r.values))}
	copy(r2.values, r.values)
	return &r2
}

func (r *Raster)Max() float64 {
	max := 0.0
	for i := 0; i < len(r.values); i++ {
		if r.values[i] > max { max = r.values[i] }
	}
	return max
}

// GaussianBlur returns a blurred copy, one 3-tap pass per axis.
// Callers wanting a wider kernel run it repeatedly. An axis shorter
// than two pixels has no neighbors to sample and passes through
// untouched.
func (r *Raster)GaussianBlur() *Raster {
	width := r.Dx()
	height := r.Dy()

	// X blur, build up in T
	T := r.Copy()
	if width >= 2 {
		T = NewRaster(width, height)
		for y := 0; y < height; y++ {
			for x := 1; x < width-1; x++ {
				t := 2.0*r.Get(x, y)
				t += r.Get(x-1, y)
				t += r.Get(x+1, y)
				T.Set(x, y, t/4.0)
			}
			T.Set(0, y,       (3.0*r.Get(0,       y) + r.Get(1,       y)) / 4.0)
			T.Set(width-1, y, (3.0*r.Get(width-1, y) + r.Get(width-2, y)) / 4.0)
		}
	}
	if height < 2 {
		return T
	}

	// Y blur, read from T and generate output
	out := NewRaster(width, height)
	for x := 0; x < width; x++ {
		for y := 1; y < height-1; y++ {
			t := 2.0*T.Get(x, y)
			t += T.Get(x, y-1)
			t += T.Get(x, y+1)
			out.Set(x, y, t/4.0)
		}
		out.Set(x, 0,        (3.0*T.Get(x,        0) + T.Get(x,        1)) / 4.0)
		out.Set(x, height-1, (3.0*T.Get(x, height-1) + T.Get(x, height-2)) / 4.0)
	}

	return out
}

func (r *Raster)Stats() string {
	min := math.MaxFloat64
	max := -1.0 * min
	for i := 0; i < len(r.values); i++ {
		if r.values[i] > max { max = r.values[i] }
		if r.values[i] < min { min = r.values[i] }
	}
	return fmt.Sprintf("raster[%dx%d, vals{%f,%f}]", r.Dx(), r.Dy(), min, max)
}

// ToImg saves a simple grayscale rendering of the raster, gamma
// scaled to look normal for human vision, with a debug title.
func (r *Raster)ToImg(title, filename string) error {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < len(r.values); i++ {
		if r.values[i] > max { max = r.values[i] }
		if r.values[i] < min { min = r.values[i] }
	}
	if max <= min { max = min + 1 }

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{r.Dx(), r.Dy()}})
	for x := 0; x < r.Dx(); x++ {
		for y := 0; y < r.Dy(); y++ {
			gray := gammaExpand((r.Get(x, y) - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 50, 50)
	return dc.SavePNG(filename)
}

// linear RGB to sRGB, input assumed in [0,1]
func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}
