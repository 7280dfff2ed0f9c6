package main

import(
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/example/rawmerge/pkg/exifcopy"
	"github.com/example/rawmerge/pkg/hdrstack"
	"github.com/example/rawmerge/pkg/rawio"
	"github.com/example/rawmerge/pkg/rawmerge"
)

var(
	fOutputFilename string
	fMaskFilename   string
	fBitsPerSample  int
	fFeatherRadius  int
	fPreviewSize    string
	fBatch          bool
	fSingle         bool
	fBatchGap       float64
	fNoAlign        bool
	fNoCrop         bool
	fWhiteLevel     int
	fConfigFile     string
	fDumpLayers     bool
)

func init() {
	flag.StringVar(&fOutputFilename, "o", "", "output file name pattern; %iF[0], %in[-1] etc are expanded per set")
	flag.StringVar(&fMaskFilename, "m", "", "save the contribution mask to this PNG file pattern (%of, %od also accepted)")
	flag.IntVar(&fBitsPerSample, "b", 16, "bits per sample: 16, 24 or 32")
	flag.IntVar(&fFeatherRadius, "r", 3, "mask blur radius, to soften transitions between images")
	flag.StringVar(&fPreviewSize, "p", "full", "preview size: full, half or none")
	flag.BoolVar(&fBatch, "B", false, "batch mode: group inputs into bracketed sets by capture time")
	flag.BoolVar(&fSingle, "single", false, "include single images in batch mode (default is to skip them)")
	flag.Float64Var(&fBatchGap, "g", 2.0, "batch gap: max seconds between two images of the same set")
	flag.BoolVar(&fNoAlign, "no-align", false, "do not auto-align source images")
	flag.BoolVar(&fNoCrop, "no-crop", false, "do not crop the output to the aligned area")
	flag.IntVar(&fWhiteLevel, "w", 0, "custom white level (never raised above the decoder's value)")
	flag.StringVar(&fConfigFile, "config", "", "YAML file with option defaults")
	flag.BoolVar(&fDumpLayers, "dumplayers", false, "write each aligned layer as a labelled PNG, for debugging")
}

// buildOptions lays the flags the user actually gave over the config
// file defaults. A flag sitting at its default value must not
// clobber a config setting, so only names present in given override.
func buildOptions(args []string, given map[string]bool) (rawmerge.LoadOptions, rawmerge.SaveOptions, error) {
	load := rawmerge.NewLoadOptions()
	save := rawmerge.NewSaveOptions()

	if fConfigFile != "" {
		cfg, err := rawmerge.LoadConfigFile(fConfigFile)
		if err != nil {
			return load, save, err
		}
		load, save = cfg.Load, cfg.Save
	}

	load.FileNames = args
	if given["no-align"] { load.Align = !fNoAlign }
	if given["no-crop"]  { load.Crop = !fNoCrop }
	if given["B"]        { load.Batch = fBatch }
	if given["single"]   { load.WithSingles = fSingle }
	if given["g"] {
		if fBatchGap <= 0 {
			return load, save, fmt.Errorf("batch gap must be positive, not %g", fBatchGap)
		}
		load.BatchGap = fBatchGap
	}
	if given["w"] && fWhiteLevel > 0 {
		load.UseCustomWhite = true
		load.CustomWhite = uint16(fWhiteLevel)
	}

	if given["o"] { save.FileName = fOutputFilename }
	if given["m"] {
		save.MaskFileName = fMaskFilename
		save.SaveMask = true
	}
	if given["b"] {
		switch fBitsPerSample {
		case 16, 24, 32:
			save.BitsPerSample = fBitsPerSample
		default:
			return load, save, fmt.Errorf("bits per sample must be 16, 24 or 32, not %d", fBitsPerSample)
		}
	}
	if given["r"] { save.FeatherRadius = fFeatherRadius }
	if given["p"] {
		switch fPreviewSize {
		case "full": save.PreviewSize = rawmerge.PreviewFull
		case "half": save.PreviewSize = rawmerge.PreviewHalf
		case "none": save.PreviewSize = rawmerge.PreviewNone
		default:
			return load, save, fmt.Errorf("preview size must be full, half or none, not '%s'", fPreviewSize)
		}
	}

	if len(load.FileNames) == 0 {
		return load, save, fmt.Errorf("no input raw files given")
	}
	return load, save, nil
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stdout)
	log.Printf("Starting\n")

	given := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { given[f.Name] = true })

	load, save, err := buildOptions(flag.Args(), given)
	if err != nil {
		log.Fatal(err)
	}

	driver := &rawmerge.Driver{
		Dec:      rawio.NewDecoder(),
		Enc:      rawio.NewEncoder(),
		Meta:     exifcopy.Sidecar{},
		NewStack: func() rawmerge.ExposureStack { return hdrstack.New() },
		Prog:     rawmerge.LogProgress{},
	}
	if fDumpLayers {
		driver.AfterIngest = func(ms *rawmerge.MergeSet) {
			if s, ok := ms.Stack().(*hdrstack.Stack); ok {
				if err := s.DumpLayers(); err != nil {
					log.Printf("layer dump: %v\n", err)
				}
			}
		}
	}

	failed := 0
	for _, res := range driver.Run(load, save) {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("%d set(s) failed\n", failed)
		os.Exit(1)
	}
}
