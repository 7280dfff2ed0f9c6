package rawmerge

import(
	"fmt"
	"time"
)

// A RawParameters holds the decoded metadata of one exposure. The
// decoder fills it in; the only later mutation is clamping Max to a
// user-supplied white level.
type RawParameters struct {
	FileName              string

	Width, Height         int // active image area
	RawWidth, RawHeight   int // full sensor dump, including margins
	TopMargin, LeftMargin int

	Black                 uint16
	CBlack                [4]uint16 // per-CFA-site black offsets, 2x2 pattern
	Max                   uint16    // white level

	CamMul                [4]float32 // as-shot color channel multipliers
	Flip                  int        // EXIF orientation code, 1..8

	Timestamp             time.Time
	Shutter               float64 // seconds
	ISO                   int64
	FNumber               float64
	FilterPattern         uint32  // CFA layout, part of the format signature
}

func (p *RawParameters)String() string {
	return fmt.Sprintf("%s: %dx%d black %d white %d shutter %gs",
		p.FileName, p.Width, p.Height, p.Black, p.Max, p.Shutter)
}

// IsSameFormat says whether two images can go into the same stack:
// same sensor geometry, same filter layout.
func (p *RawParameters)IsSameFormat(o *RawParameters) bool {
	return p.RawWidth == o.RawWidth &&
		p.RawHeight == o.RawHeight &&
		p.TopMargin == o.TopMargin &&
		p.LeftMargin == o.LeftMargin &&
		p.FilterPattern == o.FilterPattern
}

// CanAlign says whether the filter layout is regular enough for
// translational alignment. X-Trans style 6x6 patterns are not.
func (p *RawParameters)CanAlign() bool {
	return p.FilterPattern != filterXTrans
}

const filterXTrans = 9

// BlackAt returns the black level at a position in the active area,
// interpolated over the 2x2 CFA pattern.
func (p *RawParameters)BlackAt(x, y int) float64 {
	if x < 0 { x = 0 }
	if y < 0 { y = 0 }
	return float64(p.Black) + float64(p.CBlack[(y&1)*2 + (x&1)])
}

// ClampWhite lowers the white level to a custom value. The decoder's
// value is an upper bound; a custom level never raises it.
func (p *RawParameters)ClampWhite(customWhite uint16) {
	if customWhite < p.Max {
		p.Max = customWhite
	}
}

// AdjustWhite raises the white level to cover the brightest sample
// actually present, so composition never clips below it.
func (p *RawParameters)AdjustWhite(img *RawImage) {
	if img != nil && img.MaxSample > p.Max {
		p.Max = img.MaxSample
	}
}

// Interval derives the capture window: exposure ended at the
// timestamp and started a shutter-duration before it.
func (p *RawParameters)Interval() (CaptureInterval, bool) {
	if p.Timestamp.IsZero() {
		return CaptureInterval{}, false
	}
	end := p.Timestamp
	start := end.Add(-time.Duration(p.Shutter * float64(time.Second)))
	return CaptureInterval{Start: start, End: end}, true
}
