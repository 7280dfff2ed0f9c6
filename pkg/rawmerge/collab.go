package rawmerge

import(
	"image"
)

// A RawImage is one decoded exposure: the raw sensor samples plus the
// little bit of derived state the stack needs to order and merge it.
type RawImage struct {
	FileName         string
	Width, Height    int
	Samples          []uint16

	// RelativeExposure orders the stack; bigger means the frame
	// gathered more light (longer shutter, higher ISO).
	RelativeExposure float64

	MaxSample        uint16 // brightest sample seen during decode
}

func (ri *RawImage)At(x, y int) uint16 { return ri.Samples[y*ri.Width + x] }

// A Mask says, for every output pixel, which image in the stack
// contributed it. Index values run 0..stackSize-1, with 0 being the
// most exposed image.
type Mask struct {
	Width, Height int
	Index         []uint8
}

func NewMask(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Index: make([]uint8, w*h)}
}

func (m *Mask)At(x, y int) uint8 { return m.Index[y*m.Width + x] }

// A Decoder turns raw files into RawImages. Implementations own all
// the per-pixel decode work; the ingestion engine only sees the
// results. A decoder is also used to re-render a raw sample buffer
// into a viewable preview (the reconstruction pass).
type Decoder interface {
	// FrameCount probes how many frames a single raw file holds.
	FrameCount(name string) (int, error)

	// Decode unpacks one frame of the named file. Any failure is a
	// decode failure; the ingestion engine maps it to NotFound.
	Decode(name string, frame int) (*RawImage, *RawParameters, error)

	// Interval reports the estimated capture window of the file.
	// ok is false when the file carries no timestamp.
	Interval(name string) (CaptureInterval, bool)

	// Reconstruct renders a raw sample buffer into a displayable
	// image, at half size when halfSize is set.
	Reconstruct(p *RawParameters, samples []uint16, halfSize bool) (image.Image, error)
}

// An ExposureStack is the ordered collection of decoded exposures for
// one merge. Insert returns the position the stack chose for the
// image; the ordering criterion is the stack's own business.
type ExposureStack interface {
	Insert(img *RawImage) int
	Size() int
	ImageAt(i int) *RawImage

	SetOrientation(flip int)
	ComputeSaturation(p *RawParameters, useCustomWhite bool)
	Align()
	Crop()
	IsCropped() bool
	ComputeResponseFunctions()
	GenerateMask()
	Mask() *Mask
	MaxExposure() float64

	Compose(p *RawParameters, featherRadius int) *Raster
	Width() int
	Height() int
}

// An Encoder persists a composed raster, its preview and the chosen
// bit depth to a named file. preview may be nil.
type Encoder interface {
	Write(name string, composed *Raster, preview image.Image, p *RawParameters, bitsPerSample int) error
}

// A MetadataCopier propagates EXIF/XMP/IPTC tags from an exemplar
// source file to the rendered output.
type MetadataCopier interface {
	Copy(dstFile, srcFile string) error
}
