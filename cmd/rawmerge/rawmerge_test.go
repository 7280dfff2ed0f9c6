package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rawmerge/pkg/rawmerge"
)

func withConfig(t *testing.T, contents string) {
	t.Helper()
	name := filepath.Join(t.TempDir(), "rawmerge.yaml")
	require.NoError(t, os.WriteFile(name, []byte(contents), 0644))
	fConfigFile = name
	t.Cleanup(func() { fConfigFile = "" })
}

func TestBuildOptionsKeepsConfigWhenFlagsNotGiven(t *testing.T) {
	withConfig(t, `
load:
  align: false
  batchgap: 3.5

save:
  bitspersample: 32
  featherradius: 5
  previewsize: 1
`)
	// All flags sit at their defaults, none were given
	fBitsPerSample, fFeatherRadius, fPreviewSize = 16, 3, "full"
	fBatchGap, fNoAlign = 2.0, false

	load, save, err := buildOptions([]string{"a.tif"}, map[string]bool{})
	require.NoError(t, err)

	assert.False(t, load.Align)
	assert.Equal(t, 3.5, load.BatchGap)
	assert.Equal(t, 32, save.BitsPerSample)
	assert.Equal(t, 5, save.FeatherRadius)
	assert.Equal(t, rawmerge.PreviewHalf, save.PreviewSize)
}

func TestBuildOptionsGivenFlagsOverrideConfig(t *testing.T) {
	withConfig(t, `
load:
  align: false
  batchgap: 3.5

save:
  bitspersample: 32
  previewsize: 1
`)
	fNoAlign, fBatchGap = false, 10.0
	fBitsPerSample, fPreviewSize = 16, "none"
	given := map[string]bool{"no-align": true, "g": true, "b": true, "p": true}

	load, save, err := buildOptions([]string{"a.tif"}, given)
	require.NoError(t, err)

	assert.True(t, load.Align)
	assert.Equal(t, 10.0, load.BatchGap)
	assert.Equal(t, 16, save.BitsPerSample)
	assert.Equal(t, rawmerge.PreviewNone, save.PreviewSize)
}

func TestBuildOptionsWithoutConfig(t *testing.T) {
	fMaskFilename = "%of.mask.png"
	fWhiteLevel = 60000
	defer func() { fMaskFilename, fWhiteLevel = "", 0 }()

	load, save, err := buildOptions([]string{"a.tif", "b.tif"},
		map[string]bool{"m": true, "w": true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.tif", "b.tif"}, load.FileNames)
	assert.True(t, load.UseCustomWhite)
	assert.Equal(t, uint16(60000), load.CustomWhite)
	assert.True(t, save.SaveMask)
	assert.Equal(t, "%of.mask.png", save.MaskFileName)
	// Untouched fields keep the built-in defaults
	assert.True(t, load.Align)
	assert.Equal(t, 16, save.BitsPerSample)
}

func TestBuildOptionsRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		setup func()
		given map[string]bool
	}{
		{"bad bits", func() { fBitsPerSample = 12 }, map[string]bool{"b": true}},
		{"bad preview", func() { fPreviewSize = "tiny" }, map[string]bool{"p": true}},
		{"bad gap", func() { fBatchGap = -1 }, map[string]bool{"g": true}},
	}
	for _, c := range cases {
		c.setup()
		_, _, err := buildOptions([]string{"a.tif"}, c.given)
		assert.Error(t, err, c.name)
	}
	fBitsPerSample, fPreviewSize, fBatchGap = 16, "full", 2.0
}

func TestBuildOptionsRequiresInputs(t *testing.T) {
	_, _, err := buildOptions(nil, map[string]bool{})
	assert.Error(t, err)
}
