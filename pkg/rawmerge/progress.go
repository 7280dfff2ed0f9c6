package rawmerge

import(
	"log"
)

// Progress is a synchronous reporting hook, called between coarse
// pipeline phases with a non-decreasing percentage and an optional
// positional argument. It coordinates nothing.
type Progress interface {
	Advance(percent int, message string, args ...string)
}

// LogProgress prints progress lines through the standard logger.
type LogProgress struct{}

func (LogProgress)Advance(percent int, message string, args ...string) {
	if len(args) > 0 {
		log.Printf("[%3d%%] %s %s\n", percent, message, args[0])
	} else {
		log.Printf("[%3d%%] %s\n", percent, message)
	}
}

// NullProgress discards progress reports.
type NullProgress struct{}

func (NullProgress)Advance(percent int, message string, args ...string) {}
