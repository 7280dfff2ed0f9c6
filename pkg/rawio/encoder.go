package rawio

import(
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"golang.org/x/image/tiff"

	"github.com/example/rawmerge/pkg/rawmerge"
)

// A FileEncoder persists composed rasters. Output named *.hdr goes
// out as Radiance RGBE, keeping the full float range; anything else
// is written as a 16-bit grayscale TIFF (the merged-DNG binary
// layout is not reproduced here). The preview, when present, lands
// in a PNG next to the output.
type FileEncoder struct{}

func NewEncoder() *FileEncoder { return &FileEncoder{} }

func (e *FileEncoder)Write(name string, composed *rawmerge.Raster, preview image.Image, p *rawmerge.RawParameters, bitsPerSample int) error {
	var err error
	if strings.ToLower(filepath.Ext(name)) == ".hdr" {
		err = writeRadiance(composed, name)
	} else {
		err = writeTIFF(composed, name, bitsPerSample)
	}
	if err != nil {
		return err
	}

	if preview != nil {
		previewName := strings.TrimSuffix(name, filepath.Ext(name)) + "-preview.png"
		if err := rawmerge.WritePNG(preview, previewName); err != nil {
			return err
		}
		log.Printf("Preview written to %s\n", previewName)
	}
	return nil
}

func writeTIFF(composed *rawmerge.Raster, name string, bitsPerSample int) error {
	// The raster can exceed the 16-bit range once dim exposures are
	// rescaled; map it down linearly so nothing clips.
	scale := 1.0
	if max := composed.Max(); max > 0xffff {
		scale = 0xffff / max
	}

	img := image.NewGray16(image.Rect(0, 0, composed.Dx(), composed.Dy()))
	for y := 0; y < composed.Dy(); y++ {
		for x := 0; x < composed.Dx(); x++ {
			v := composed.Get(x, y) * scale
			if v < 0 { v = 0 }
			if v > 0xffff { v = 0xffff }
			img.SetGray16(x, y, color.Gray16{uint16(v)})
		}
	}

	writer, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", name, err)
	}
	defer writer.Close()

	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	if err := tiff.Encode(writer, img, opts); err != nil {
		return fmt.Errorf("tiff encode '%s': %v", name, err)
	}
	log.Printf("Wrote %s (%d-bit source range, scale %.4f)\n", name, bitsPerSample, scale)
	return nil
}

// rasterHDR adapts a Raster to the hdr.Image interface so the rgbe
// codec can consume it directly.
type rasterHDR struct {
	r *rawmerge.Raster
}

func (h rasterHDR)ColorModel() color.Model     { return hdrcolor.RGBModel }
func (h rasterHDR)Bounds() image.Rectangle     { return image.Rect(0, 0, h.r.Dx(), h.r.Dy()) }
func (h rasterHDR)At(x, y int) color.Color     { return h.HDRAt(x, y) }
func (h rasterHDR)Size() int                   { return h.r.Dx() * h.r.Dy() }

func (h rasterHDR)HDRAt(x, y int) hdrcolor.Color {
	v := h.r.Get(x, y) / float64(0xffff)
	return hdrcolor.RGB{R: v, G: v, B: v}
}

func writeRadiance(composed *rawmerge.Raster, name string) error {
	writer, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", name, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, rasterHDR{composed}); err != nil {
		return fmt.Errorf("rgbe encode '%s': %v", name, err)
	}
	log.Printf("Wrote %s\n", name)
	return nil
}
