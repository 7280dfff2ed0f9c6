package rawmerge

import(
	"log"
	"sort"
	"time"
)

// A CaptureInterval is the estimated time window of one exposure:
// it ends at the file's timestamp and starts a shutter-duration
// earlier.
type CaptureInterval struct {
	Start, End time.Time
}

// Distance between two intervals, in seconds: zero when they
// overlap, otherwise the gap between the earlier end and the later
// start.
func (ci CaptureInterval)Distance(o CaptureInterval) float64 {
	if ci.Start.After(o.Start) {
		ci, o = o, ci
	}
	if !o.Start.After(ci.End) {
		return 0
	}
	return o.Start.Sub(ci.End).Seconds()
}

func (ci CaptureInterval)Before(o CaptureInterval) bool {
	if !ci.Start.Equal(o.Start) {
		return ci.Start.Before(o.Start)
	}
	return ci.End.Before(o.End)
}

// GroupBrackets clusters an unordered file list into bracketed sets
// by capture time proximity: a new set starts whenever the gap from
// the previous exposure exceeds gapSeconds. Files without a
// timestamp cannot be clustered and become singleton sets, in input
// order, ahead of the clustered ones.
func GroupBrackets(fileNames []string, gapSeconds float64, dec Decoder) [][]string {
	type dateName struct {
		interval CaptureInterval
		name     string
	}

	sets := [][]string{}
	dateNames := []dateName{}
	for _, name := range fileNames {
		if interval, ok := dec.Interval(name); ok {
			dateNames = append(dateNames, dateName{interval, name})
		} else {
			// No time information, process it alone
			sets = append(sets, []string{name})
		}
	}

	sort.Slice(dateNames, func(i, j int) bool {
		a, b := dateNames[i], dateNames[j]
		if a.interval.Before(b.interval) { return true }
		if b.interval.Before(a.interval) { return false }
		return a.name < b.name
	})

	var last CaptureInterval
	haveLast := false
	for _, dn := range dateNames {
		if !haveLast || last.Distance(dn.interval) > gapSeconds {
			sets = append(sets, []string{})
		}
		sets[len(sets)-1] = append(sets[len(sets)-1], dn.name)
		last, haveLast = dn.interval, true
	}

	for i, set := range sets {
		log.Printf("Set %d: %v\n", i, set)
	}
	return sets
}
