package rawmerge

import(
	"fmt"
)

// FailureKind classifies why ingestion of a set failed. Every kind is
// fatal to its set and only its set.
type FailureKind int

const (
	// FailNotFound: a file could not be opened or unpacked.
	FailNotFound FailureKind = iota + 1
	// FailFormatMismatch: an image's format signature differs from
	// the first accepted image's.
	FailFormatMismatch
	// FailNoFrames: a single input file reported a frame count
	// outside the supported 1..4 range.
	FailNoFrames
)

func (k FailureKind)String() string {
	switch k {
	case FailNotFound:       return "file not found"
	case FailFormatMismatch: return "different format"
	case FailNoFrames:       return "unsupported frame count"
	}
	return fmt.Sprintf("failure kind %d", int(k))
}

// A LoadError reports which input failed ingestion, and how.
type LoadError struct {
	Index int
	File  string
	Kind  FailureKind
}

func (e *LoadError)Error() string {
	return fmt.Sprintf("error loading '%s' (image %d): %s", e.File, e.Index, e.Kind)
}
