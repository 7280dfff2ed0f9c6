package rawmerge

import(
	"log"
	"path/filepath"
	"strings"
)

// A SetResult records the outcome of one bracketed set. The batch
// driver returns one per set, so a failure in the middle of a batch
// stays visible to the caller.
type SetResult struct {
	FileNames []string
	Output    string
	Skipped   bool
	Err       error
}

func (r SetResult)OK() bool { return r.Err == nil && !r.Skipped }

// A Driver wires the collaborators together and runs sets one at a
// time. NewStack builds a fresh ExposureStack per set.
type Driver struct {
	Dec      Decoder
	Enc      Encoder
	Meta     MetadataCopier
	NewStack func() ExposureStack
	Prog     Progress

	// AfterIngest, when set, runs on each successfully ingested set
	// before rendering; debug hooks hang off it.
	AfterIngest func(ms *MergeSet)
}

// Run merges the configured inputs. In batch mode the inputs are
// first clustered into bracketed sets by capture time; otherwise
// they form one set. Each set is ingested and rendered
// independently: a failed set is recorded and the driver moves on.
func (d *Driver)Run(opts LoadOptions, save SaveOptions) []SetResult {
	var sets [][]string
	if opts.Batch {
		sets = GroupBrackets(opts.FileNames, opts.BatchGap, d.Dec)
	} else {
		sets = [][]string{opts.FileNames}
	}

	results := make([]SetResult, 0, len(sets))
	for _, set := range sets {
		results = append(results, d.runSet(set, opts, save))
	}
	return results
}

func (d *Driver)runSet(set []string, opts LoadOptions, save SaveOptions) SetResult {
	res := SetResult{FileNames: set}

	if !opts.WithSingles && opts.Batch && len(set) == 1 {
		log.Printf("Skipping single image %s\n", set[0])
		res.Skipped = true
		return res
	}

	setOpts := opts
	setOpts.FileNames = set
	ms, err := IngestSet(setOpts, d.Dec, d.NewStack, d.Prog)
	if err != nil {
		log.Printf("%v\n", err)
		res.Err = err
		return res
	}

	if d.AfterIngest != nil {
		d.AfterIngest(ms)
	}

	setSave := save
	if setSave.FileName != "" {
		setSave.FileName = Resolve(setSave.FileName, "", ms.FileNames())
		if !hasOutputExt(setSave.FileName) {
			setSave.FileName += ".dng"
		}
	} else {
		setSave.FileName = ms.DefaultFileName()
	}
	res.Output = setSave.FileName

	log.Printf("Writing result to %s\n", setSave.FileName)
	if err := ms.Render(setSave, d.Dec, d.Enc, d.Prog); err != nil {
		res.Err = err
		return res
	}

	if d.Meta != nil {
		// Tags come from the least exposed image, the same exemplar
		// the render parameters come from
		src := ms.Params(ms.Size() - 1).FileName
		if err := d.Meta.Copy(setSave.FileName, src); err != nil {
			log.Printf("metadata copy from %s: %v\n", src, err)
		}
	}
	return res
}

func hasOutputExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dng", ".tif", ".tiff", ".hdr":
		return true
	}
	return false
}
