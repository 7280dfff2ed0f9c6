package rawmerge

import(
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Preview sizes, as accepted by SaveOptions.PreviewSize.
const (
	PreviewNone = 0
	PreviewHalf = 1
	PreviewFull = 2
)

// LoadOptions configures the ingestion of one set of exposures.
type LoadOptions struct {
	FileNames      []string
	Align          bool
	Crop           bool
	UseCustomWhite bool
	CustomWhite    uint16
	Batch          bool
	BatchGap       float64 // seconds between images of different sets
	WithSingles    bool    // process one-image sets in batch mode
}

// SaveOptions configures the rendered output of one set. FileName and
// MaskFileName are template patterns, resolved per set.
type SaveOptions struct {
	FileName      string
	BitsPerSample int
	FeatherRadius int
	PreviewSize   int
	MaskFileName  string
	SaveMask      bool
}

func NewLoadOptions() LoadOptions {
	return LoadOptions{
		Align:    true,
		Crop:     true,
		BatchGap: 2.0,
	}
}

func NewSaveOptions() SaveOptions {
	return SaveOptions{
		BitsPerSample: 16,
		FeatherRadius: 3,
		PreviewSize:   PreviewFull,
	}
}

/* Example defaults file ...

load:
  align: true
  crop: true
  batchgap: 3.5

save:
  bitspersample: 16
  featherradius: 5
  previewsize: 1

*/

// A ConfigFile holds option defaults loaded from YAML; command line
// flags override it field by field.
type ConfigFile struct {
	Load LoadOptions
	Save SaveOptions
}

func LoadConfigFile(filename string) (ConfigFile, error) {
	c := ConfigFile{Load: NewLoadOptions(), Save: NewSaveOptions()}

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("config read '%s': %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse '%s': %v", filename, err)
	}

	return c, c.validate()
}

func (c *ConfigFile)validate() error {
	switch c.Save.BitsPerSample {
	case 16, 24, 32:
	default:
		return fmt.Errorf("bits per sample must be 16, 24 or 32, not %d", c.Save.BitsPerSample)
	}
	if c.Save.PreviewSize < PreviewNone || c.Save.PreviewSize > PreviewFull {
		return fmt.Errorf("preview size must be 0 (none), 1 (half) or 2 (full), not %d", c.Save.PreviewSize)
	}
	if c.Load.BatchGap <= 0 {
		return fmt.Errorf("batch gap must be positive, not %g", c.Load.BatchGap)
	}
	return nil
}
