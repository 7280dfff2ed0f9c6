package rawmerge

import(
	"fmt"
	"image"
	"sort"
)

// fakeFile is one scripted input for the fake decoder.
type fakeFile struct {
	frames    int
	signature uint32
	relExp    float64
	interval  CaptureInterval
	hasTime   bool
	failOpen  bool
	width     int
	height    int
	samples   []uint16
	flip      int
	black     uint16
	max       uint16
}

type fakeDecoder struct {
	files map[string]*fakeFile

	// captured from the last Reconstruct call
	reconSamples  []uint16
	reconHalfSize bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{files: map[string]*fakeFile{}}
}

func (d *fakeDecoder)addFile(name string, f fakeFile) *fakeFile {
	if f.frames == 0 { f.frames = 1 }
	if f.signature == 0 { f.signature = 1 }
	if f.relExp == 0 { f.relExp = 1 }
	if f.width == 0 { f.width = 4 }
	if f.height == 0 { f.height = 4 }
	if f.max == 0 { f.max = 0xffff }
	if f.samples == nil {
		f.samples = make([]uint16, f.width*f.height)
	}
	d.files[name] = &f
	return &f
}

func (d *fakeDecoder)FrameCount(name string) (int, error) {
	f, ok := d.files[name]
	if !ok || f.failOpen {
		return 0, fmt.Errorf("open '%s': no such file", name)
	}
	return f.frames, nil
}

func (d *fakeDecoder)Decode(name string, frame int) (*RawImage, *RawParameters, error) {
	f, ok := d.files[name]
	if !ok || f.failOpen {
		return nil, nil, fmt.Errorf("decode '%s': no such file", name)
	}
	maxSample := uint16(0)
	for _, v := range f.samples {
		if v > maxSample { maxSample = v }
	}
	img := &RawImage{
		FileName:         name,
		Width:            f.width,
		Height:           f.height,
		Samples:          f.samples,
		RelativeExposure: f.relExp,
		MaxSample:        maxSample,
	}
	p := &RawParameters{
		FileName:      name,
		Width:         f.width,
		Height:        f.height,
		RawWidth:      f.width,
		RawHeight:     f.height,
		Black:         f.black,
		Max:           f.max,
		Flip:          f.flip,
		FilterPattern: f.signature,
	}
	return img, p, nil
}

func (d *fakeDecoder)Interval(name string) (CaptureInterval, bool) {
	f, ok := d.files[name]
	if !ok || !f.hasTime {
		return CaptureInterval{}, false
	}
	return f.interval, true
}

func (d *fakeDecoder)Reconstruct(p *RawParameters, samples []uint16, halfSize bool) (image.Image, error) {
	d.reconSamples = append([]uint16(nil), samples...)
	d.reconHalfSize = halfSize
	return image.NewGray16(image.Rect(0, 0, p.Width, p.Height)), nil
}

// fakeStack orders inserts by descending RelativeExposure, the same
// reordering a real stack performs, and records the whole-stack
// operations it is asked to run.
type fakeStack struct {
	imgs    []*RawImage
	calls   []string
	flip    int
	mask    *Mask
	composed *Raster
}

func newFakeStack() *fakeStack { return &fakeStack{} }

// stackFactory hands a prebuilt fake to IngestSet so tests can
// inspect it afterwards.
func stackFactory(s *fakeStack) func() ExposureStack {
	return func() ExposureStack { return s }
}

func (s *fakeStack)Insert(img *RawImage) int {
	pos := sort.Search(len(s.imgs), func(i int) bool {
		return s.imgs[i].RelativeExposure < img.RelativeExposure
	})
	s.imgs = append(s.imgs, nil)
	copy(s.imgs[pos+1:], s.imgs[pos:])
	s.imgs[pos] = img
	return pos
}

func (s *fakeStack)Size() int                  { return len(s.imgs) }
func (s *fakeStack)ImageAt(i int) *RawImage    { return s.imgs[i] }
func (s *fakeStack)SetOrientation(flip int)    { s.flip = flip; s.calls = append(s.calls, "orient") }
func (s *fakeStack)Align()                     { s.calls = append(s.calls, "align") }
func (s *fakeStack)Crop()                      { s.calls = append(s.calls, "crop") }
func (s *fakeStack)IsCropped() bool            { return false }
func (s *fakeStack)ComputeResponseFunctions()  { s.calls = append(s.calls, "response") }
func (s *fakeStack)GenerateMask()              { s.calls = append(s.calls, "mask") }
func (s *fakeStack)Mask() *Mask                { return s.mask }
func (s *fakeStack)MaxExposure() float64       { return 1 }

func (s *fakeStack)ComputeSaturation(p *RawParameters, useCustomWhite bool) {
	s.calls = append(s.calls, "saturation")
}

func (s *fakeStack)Compose(p *RawParameters, featherRadius int) *Raster {
	s.calls = append(s.calls, "compose")
	if s.composed != nil {
		return s.composed
	}
	return NewRaster(s.Width(), s.Height())
}

func (s *fakeStack)Width() int {
	if len(s.imgs) == 0 { return 0 }
	return s.imgs[0].Width
}

func (s *fakeStack)Height() int {
	if len(s.imgs) == 0 { return 0 }
	return s.imgs[0].Height
}

// fakeEncoder records what it was asked to persist.
type fakeEncoder struct {
	names    []string
	previews []image.Image
	bits     []int
	params   []*RawParameters
	failWith error
}

func (e *fakeEncoder)Write(name string, composed *Raster, preview image.Image, p *RawParameters, bitsPerSample int) error {
	if e.failWith != nil {
		return e.failWith
	}
	e.names = append(e.names, name)
	e.previews = append(e.previews, preview)
	e.bits = append(e.bits, bitsPerSample)
	cp := *p
	e.params = append(e.params, &cp)
	return nil
}

// fakeMeta records metadata copy requests.
type fakeMeta struct {
	pairs [][2]string
}

func (m *fakeMeta)Copy(dstFile, srcFile string) error {
	m.pairs = append(m.pairs, [2]string{dstFile, srcFile})
	return nil
}
