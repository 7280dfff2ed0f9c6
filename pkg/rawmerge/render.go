package rawmerge

import(
	"fmt"
	"image"
	"image/color"
	"log"
)

// Render composes the stack into the final raster, renders the
// preview, persists both through the encoder, and optionally exports
// the contribution mask. The output file name in opts must already
// be resolved.
func (ms *MergeSet)Render(opts SaveOptions, dec Decoder, enc Encoder, prog Progress) error {
	cropped := ""
	if ms.stack.IsCropped() { cropped = " cropped" }
	log.Printf("Writing %s, %d-bit, %dx%d%s\n",
		opts.FileName, opts.BitsPerSample, ms.stack.Width(), ms.stack.Height(), cropped)

	prog.Advance(0, "Rendering image")
	p := *ms.params[len(ms.params)-1]
	p.Width = ms.stack.Width()
	p.Height = ms.stack.Height()
	p.AdjustWhite(ms.stack.ImageAt(ms.stack.Size() - 1))
	composed := ms.stack.Compose(&p, opts.FeatherRadius)

	prog.Advance(33, "Rendering preview")
	var preview image.Image
	if opts.PreviewSize > PreviewNone {
		var err error
		preview, err = ms.renderPreview(composed, &p, dec, opts.PreviewSize <= PreviewHalf)
		if err != nil {
			// A bad preview is not worth losing the merge over
			log.Printf("preview render failed: %v\n", err)
			preview = nil
		}
	}

	prog.Advance(66, "Writing output")
	if err := enc.Write(opts.FileName, composed, preview, &p, opts.BitsPerSample); err != nil {
		return fmt.Errorf("write '%s': %v", opts.FileName, err)
	}
	prog.Advance(100, "Done writing")

	if opts.SaveMask {
		name := Resolve(opts.MaskFileName, opts.FileName, ms.FileNames())
		if err := ms.WriteMaskImage(name); err != nil {
			log.Printf("Cannot save mask image to %s: %v\n", name, err)
		}
	}
	return nil
}

// renderPreview rebuilds a viewable image from the composed raster:
// a per-pixel linear rescale back into the 16-bit range, then the
// decoder's reconstruction pass.
func (ms *MergeSet)renderPreview(composed *Raster, p *RawParameters, dec Decoder, halfSize bool) (image.Image, error) {
	const targetMax = 65535.0
	scale := targetMax / float64(int(p.Max)-int(p.Black))

	samples := make([]uint16, composed.Dx()*composed.Dy())
	for y := 0; y < composed.Dy(); y++ {
		for x := 0; x < composed.Dx(); x++ {
			v := (composed.Get(x, y) - p.BlackAt(x-p.LeftMargin, y-p.TopMargin)) * scale
			if v < 0 {
				v = 0
			} else if v > targetMax {
				v = targetMax
			}
			samples[y*composed.Dx() + x] = uint16(v)
		}
	}

	return dec.Reconstruct(p, samples, halfSize)
}

// MaskPalette builds the indexed palette for a mask export:
// stackSize-1 evenly spaced grays, then pure white for the last
// (least exposed) contributor.
func MaskPalette(stackSize int) color.Palette {
	numColors := stackSize - 1
	pal := make(color.Palette, 0, numColors+1)
	for c := 0; c < numColors; c++ {
		gray := uint8((256 * c) / numColors)
		pal = append(pal, color.RGBA{gray, gray, gray, 0xff})
	}
	return append(pal, color.RGBA{0xff, 0xff, 0xff, 0xff})
}

// WriteMaskImage exports the contribution mask as an indexed PNG,
// pixel value = index of the contributing source image.
func (ms *MergeSet)WriteMaskImage(maskFile string) error {
	log.Printf("Saving mask to %s\n", maskFile)
	mask := ms.stack.Mask()
	if mask == nil {
		return fmt.Errorf("stack has no mask")
	}

	img := image.NewPaletted(image.Rect(0, 0, mask.Width, mask.Height), MaskPalette(ms.stack.Size()))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			img.SetColorIndex(x, y, mask.At(x, y))
		}
	}
	return WritePNG(img, maskFile)
}
