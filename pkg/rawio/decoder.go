// Package rawio implements the file-level collaborators: a decoder
// for 16-bit TIFF exposures carrying EXIF, and an encoder persisting
// composed rasters. True camera-raw unpacking (libraw territory)
// stays behind the Decoder interface; anything this decoder cannot
// parse is simply a decode failure to the ingestion engine.
package rawio

import(
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/example/rawmerge/pkg/rawmerge"
)

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// Format signature codes. TIFF files with different sample layouts
// never merge into one stack.
const (
	sigGray16 = 1
	sigGray8  = 2
	sigColor  = 3
)

// FrameCount probes the named file. A parseable TIFF holds one
// frame; vendor multi-frame raw layouts belong to a richer decoder.
func (d *Decoder)FrameCount(name string) (int, error) {
	reader, err := os.Open(name)
	if err != nil {
		return 0, fmt.Errorf("open '%s': %v", name, err)
	}
	defer reader.Close()

	if _, err := tiff.DecodeConfig(reader); err != nil {
		return 0, fmt.Errorf("probe '%s': %v", name, err)
	}
	return 1, nil
}

func (d *Decoder)Decode(name string, frame int) (*rawmerge.RawImage, *rawmerge.RawParameters, error) {
	if frame != 0 {
		return nil, nil, fmt.Errorf("'%s': no frame %d", name, frame)
	}

	p := &rawmerge.RawParameters{FileName: name, Max: 0xffff}
	d.readExif(name, p)

	reader, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open+r img '%s': %v", name, err)
	}
	defer reader.Close()
	img, err := tiff.Decode(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("tiff loading '%s': %v", name, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ri := &rawmerge.RawImage{
		FileName: name,
		Width:    w,
		Height:   h,
		Samples:  make([]uint16, w*h),
	}

	switch img.(type) {
	case *image.Gray16:
		p.FilterPattern = sigGray16
	case *image.Gray:
		p.FilterPattern = sigGray8
	default:
		p.FilterPattern = sigColor
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			ri.Samples[y*w + x] = g.Y
			if g.Y > ri.MaxSample {
				ri.MaxSample = g.Y
			}
		}
	}

	p.Width, p.Height = w, h
	p.RawWidth, p.RawHeight = w, h
	ri.RelativeExposure = relativeExposure(p)
	return ri, p, nil
}

// readExif fills in what metadata the file carries; a file without
// EXIF still decodes, it just cannot be time-clustered or
// metadata-ordered.
func (d *Decoder)readExif(name string, p *rawmerge.RawParameters) {
	reader, err := os.Open(name)
	if err != nil {
		return
	}
	defer reader.Close()
	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}

	if ts, err := ex.DateTime(); err == nil {
		p.Timestamp = ts
	}
	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			p.Shutter = float64(num) / float64(denom)
		}
	}
	if tag, err := ex.Get(exif.Orientation); err == nil {
		if o, err := tag.Int(0); err == nil {
			p.Flip = o
		}
	}
	if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int64(0); err == nil && iso > 0 {
			p.ISO = iso
		}
	}
	if tag, err := ex.Get(exif.FNumber); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 && num != 0 {
			p.FNumber = float64(num) / float64(denom)
		}
	}
}

// relativeExposure estimates gathered light from the exposure
// triangle: t * ISO / N^2. Zero when the metadata is missing, which
// tells the stack to order by measured brightness instead.
func relativeExposure(p *rawmerge.RawParameters) float64 {
	if p.Shutter <= 0 || p.ISO <= 0 {
		return 0
	}
	fnum := p.FNumber
	if fnum <= 0 {
		fnum = 1
	}
	return p.Shutter * float64(p.ISO) / (fnum * fnum)
}

// Interval reports the capture window of the file, when it has a
// timestamp to derive one from.
func (d *Decoder)Interval(name string) (rawmerge.CaptureInterval, bool) {
	reader, err := os.Open(name)
	if err != nil {
		return rawmerge.CaptureInterval{}, false
	}
	defer reader.Close()
	ex, err := exif.Decode(reader)
	if err != nil {
		return rawmerge.CaptureInterval{}, false
	}
	ts, err := ex.DateTime()
	if err != nil {
		return rawmerge.CaptureInterval{}, false
	}

	shutter := 0.0
	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			shutter = float64(num) / float64(denom)
		}
	}
	return rawmerge.CaptureInterval{
		Start: ts.Add(-time.Duration(shutter * float64(time.Second))),
		End:   ts,
	}, true
}

// Reconstruct renders a raw sample buffer back into a viewable
// image, honoring the EXIF orientation and optionally halving the
// size.
func (d *Decoder)Reconstruct(p *rawmerge.RawParameters, samples []uint16, halfSize bool) (image.Image, error) {
	if len(samples) != p.Width*p.Height {
		return nil, fmt.Errorf("reconstruct: %d samples for %dx%d", len(samples), p.Width, p.Height)
	}

	gray := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			gray.SetGray16(x, y, color.Gray16{samples[y*p.Width + x]})
		}
	}

	var img image.Image = gray
	switch p.Flip {
	case 2:
		img = imaging.FlipH(img)
	case 3:
		img = imaging.Rotate180(img)
	case 4:
		img = imaging.FlipV(img)
	case 5:
		img = imaging.Transpose(img)
	case 6:
		img = imaging.Rotate270(img) // 90 clockwise
	case 7:
		img = imaging.Transverse(img)
	case 8:
		img = imaging.Rotate90(img)
	}

	if halfSize {
		img = imaging.Resize(img, img.Bounds().Dx()/2, 0, imaging.Box)
	}
	return img, nil
}
