package hdrstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rawmerge/pkg/rawmerge"
)

func flatImage(name string, w, h int, value uint16, relExp float64) *rawmerge.RawImage {
	samples := make([]uint16, w*h)
	for i := range samples {
		samples[i] = value
	}
	return &rawmerge.RawImage{
		FileName:         name,
		Width:            w,
		Height:           h,
		Samples:          samples,
		RelativeExposure: relExp,
		MaxSample:        value,
	}
}

func TestInsertOrdersByExposureMetadata(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Insert(flatImage("mid", 4, 4, 100, 2)))
	assert.Equal(t, 0, s.Insert(flatImage("bright", 4, 4, 100, 8)))
	assert.Equal(t, 2, s.Insert(flatImage("dim", 4, 4, 100, 1)))

	require.Equal(t, 3, s.Size())
	assert.Equal(t, "bright", s.ImageAt(0).FileName)
	assert.Equal(t, "mid", s.ImageAt(1).FileName)
	assert.Equal(t, "dim", s.ImageAt(2).FileName)
}

func TestInsertFallsBackToMeanSample(t *testing.T) {
	s := New()
	s.Insert(flatImage("dim", 8, 8, 500, 0))
	s.Insert(flatImage("bright", 8, 8, 20000, 0))

	assert.Equal(t, "bright", s.ImageAt(0).FileName)
	assert.Equal(t, "dim", s.ImageAt(1).FileName)
}

func TestInsertSetsBoundsFromFirstImage(t *testing.T) {
	s := New()
	s.Insert(flatImage("a", 6, 4, 100, 1))
	assert.Equal(t, 6, s.Width())
	assert.Equal(t, 4, s.Height())
	assert.False(t, s.IsCropped())
}

func TestMaxExposure(t *testing.T) {
	s := New()
	assert.Equal(t, 1.0, s.MaxExposure())

	s.Insert(flatImage("a", 4, 4, 100, 4))
	s.Insert(flatImage("b", 4, 4, 100, 1))
	s.layers[1].relExp = 4.2
	assert.Equal(t, 4.2, s.MaxExposure())
}

func TestComputeSaturationCustomWhite(t *testing.T) {
	s := New()
	s.Insert(flatImage("a", 8, 8, 100, 1))

	p := &rawmerge.RawParameters{Max: 12000}
	s.ComputeSaturation(p, true)
	assert.InDelta(t, 0.99*12000, s.satThreshold, 0.5)
}

func TestComputeSaturationFromBrightestLayer(t *testing.T) {
	// A sensor that never gets near its nominal white: the threshold
	// comes down to the observed upper quantile.
	s := New()
	s.Insert(flatImage("bright", 200, 200, 9000, 2))
	s.Insert(flatImage("dim", 200, 200, 4000, 1))

	p := &rawmerge.RawParameters{Max: 65000}
	s.ComputeSaturation(p, false)
	assert.InDelta(t, 9000, s.satThreshold, 1)
}

func TestComputeSaturationCappedByNominalWhite(t *testing.T) {
	s := New()
	s.Insert(flatImage("bright", 200, 200, 65535, 2))

	p := &rawmerge.RawParameters{Max: 16000}
	s.ComputeSaturation(p, false)
	assert.InDelta(t, 0.99*16000, s.satThreshold, 0.5)
}

func TestSampleAtAppliesOffsetAndClamps(t *testing.T) {
	img := flatImage("a", 4, 4, 0, 1)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Samples[y*4+x] = uint16(y*4 + x)
		}
	}
	s := New()
	s.Insert(img)
	l := s.layers[0]
	l.dx, l.dy = 1, 1

	assert.Equal(t, uint16(5), s.sampleAt(l, 0, 0))
	assert.Equal(t, uint16(15), s.sampleAt(l, 3, 3)) // clamped to the corner
	assert.Equal(t, uint16(0), s.sampleAt(l, -5, -5))
}
