package rawmerge

import(
	"sort"
)

// A MergeSet is the pipeline state for one merge: the exposure stack
// and its order-synchronized parameter list. It is built by
// IngestSet, consumed by Render, and discarded afterwards; nothing
// carries over between sets.
//
// For every index i, params[i] describes the same photograph as
// stack.ImageAt(i).
type MergeSet struct {
	stack  ExposureStack
	params []*RawParameters
}

func (ms *MergeSet)Size() int                    { return len(ms.params) }
func (ms *MergeSet)Params(i int) *RawParameters  { return ms.params[i] }
func (ms *MergeSet)Stack() ExposureStack         { return ms.stack }

// FileNames returns the distinct input file names of the set.
func (ms *MergeSet)FileNames() []string {
	seen := map[string]bool{}
	names := []string{}
	for _, p := range ms.params {
		if !seen[p.FileName] {
			seen[p.FileName] = true
			names = append(names, p.FileName)
		}
	}
	return names
}

// DefaultFileName synthesizes an output name from the inputs:
// <dir of last>/<first, no ext>-<number suffix of last>.dng, or just
// <first, no ext>.dng when the set holds one image.
func (ms *MergeSet)DefaultFileName() string {
	if ms.Size() > 1 {
		return Resolve("%id[-1]/%iF[0]-%in[-1].dng", "", ms.FileNames())
	}
	return Resolve("%id[-1]/%iF[0].dng", "", ms.FileNames())
}

// IngestSet builds a MergeSet from the configured inputs and runs
// the fixed post-load sequence over the stack. A single input file is
// probed for multiple frames; two or more files are decoded one
// each, in input order. Any failure discards the whole set and
// returns a *LoadError naming the failing index and kind.
//
// The stack is created here, via newStack, and lives only as long as
// the MergeSet: a failed ingestion discards it along with the
// parameter list, so no partial insertions are ever observable.
func IngestSet(opts LoadOptions, dec Decoder, newStack func() ExposureStack, prog Progress) (*MergeSet, error) {
	ms := &MergeSet{stack: newStack()}

	var err error
	if len(opts.FileNames) == 1 {
		err = ms.loadFrames(opts.FileNames[0], dec, prog)
	} else {
		err = ms.loadFiles(opts.FileNames, dec, prog)
	}
	if err != nil {
		// No partial state survives: the set was never handed out.
		return nil, err
	}

	ms.processStack(opts, prog)
	return ms, nil
}

// loadFrames ingests every frame of a single multi-frame raw file.
// Counts 1..4 cover the vendor layouts we know how to merge; any
// other count fails fast rather than leaving an empty stack behind.
func (ms *MergeSet)loadFrames(name string, dec Decoder, prog Progress) error {
	frameCount, err := dec.FrameCount(name)
	if err != nil {
		return &LoadError{Index: 0, File: name, Kind: FailNotFound}
	}
	if frameCount < 1 || frameCount > 4 {
		return &LoadError{Index: 0, File: name, Kind: FailNoFrames}
	}

	step := 100 / (frameCount + 1)
	for i := 0; i < frameCount; i++ {
		prog.Advance(i*step, "Loading", name)
		if err := ms.accept(dec, name, i, i); err != nil {
			return err
		}
	}
	return nil
}

func (ms *MergeSet)loadFiles(names []string, dec Decoder, prog Progress) error {
	step := 100 / (len(names) + 1)
	for i, name := range names {
		prog.Advance(i*step, "Loading", name)
		if err := ms.accept(dec, name, 0, i); err != nil {
			return err
		}
	}
	return nil
}

// accept decodes one image and, if it is compatible with the set,
// inserts it at the position the stack chooses, keeping the
// parameter list in the same order.
func (ms *MergeSet)accept(dec Decoder, name string, frame, index int) error {
	img, p, err := dec.Decode(name, frame)
	if err != nil {
		return &LoadError{Index: index, File: name, Kind: FailNotFound}
	}
	if len(ms.params) > 0 && !p.IsSameFormat(ms.params[0]) {
		return &LoadError{Index: index, File: name, Kind: FailFormatMismatch}
	}

	pos := ms.stack.Insert(img)
	ms.insertParams(pos, p)
	return nil
}

// insertParams homes p at the position the stack reported for its
// image, shifting later entries up one.
func (ms *MergeSet)insertParams(pos int, p *RawParameters) {
	ms.params = append(ms.params, nil)
	copy(ms.params[pos+1:], ms.params[pos:])
	ms.params[pos] = p
}

// processStack runs the fixed post-ingestion sequence: orientation,
// white-level clamp, saturation, optional align+crop, response
// functions, mask.
func (ms *MergeSet)processStack(opts LoadOptions, prog Progress) {
	prog.Advance(90, "Processing stack")

	first := ms.params[0]
	ms.stack.SetOrientation(first.Flip)
	if opts.UseCustomWhite {
		// Never raise the white level past what the decoder reported
		first.ClampWhite(opts.CustomWhite)
	}
	ms.stack.ComputeSaturation(first, opts.UseCustomWhite)
	if opts.Align && first.CanAlign() {
		ms.stack.Align()
		if opts.Crop {
			ms.stack.Crop()
		}
	}
	ms.stack.ComputeResponseFunctions()
	ms.stack.GenerateMask()

	prog.Advance(100, "Done loading")
}

// SortedFileNames is the lexicographic input order used by the
// template engine, exposed for callers that log it.
func (ms *MergeSet)SortedFileNames() []string {
	names := ms.FileNames()
	sort.Strings(names)
	return names
}
