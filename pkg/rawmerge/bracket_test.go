package rawmerge

import(
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interval(startSec, endSec int) CaptureInterval {
	base := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)
	return CaptureInterval{
		Start: base.Add(time.Duration(startSec) * time.Second),
		End:   base.Add(time.Duration(endSec) * time.Second),
	}
}

func TestIntervalDistance(t *testing.T) {
	a := interval(0, 10)
	b := interval(5, 15)
	c := interval(100, 110)

	assert.Equal(t, 0.0, a.Distance(b), "overlapping intervals have zero distance")
	assert.Equal(t, 0.0, b.Distance(a), "distance is symmetric")
	assert.Equal(t, 85.0, b.Distance(c), "gap runs from earlier end to later start")
	assert.Equal(t, 85.0, c.Distance(b))
	assert.Equal(t, 0.0, a.Distance(a))
}

func TestGroupBrackets(t *testing.T) {
	dec := newFakeDecoder()
	dec.addFile("a.tif", fakeFile{hasTime: true, interval: interval(0, 10)})
	dec.addFile("b.tif", fakeFile{hasTime: true, interval: interval(5, 15)})
	dec.addFile("c.tif", fakeFile{hasTime: true, interval: interval(100, 110)})

	sets := GroupBrackets([]string{"c.tif", "a.tif", "b.tif"}, 20, dec)
	require.Len(t, sets, 2)
	assert.Equal(t, []string{"a.tif", "b.tif"}, sets[0])
	assert.Equal(t, []string{"c.tif"}, sets[1])
}

func TestGroupBracketsSingletonsForMissingTimestamps(t *testing.T) {
	dec := newFakeDecoder()
	dec.addFile("scan1.tif", fakeFile{}) // no capture time
	dec.addFile("a.tif", fakeFile{hasTime: true, interval: interval(0, 1)})
	dec.addFile("b.tif", fakeFile{hasTime: true, interval: interval(1, 2)})
	dec.addFile("scan2.tif", fakeFile{}) // no capture time

	sets := GroupBrackets([]string{"a.tif", "scan1.tif", "b.tif", "scan2.tif"}, 5, dec)
	require.Len(t, sets, 3)
	// Unclusterable files come first, in input order, each alone
	assert.Equal(t, []string{"scan1.tif"}, sets[0])
	assert.Equal(t, []string{"scan2.tif"}, sets[1])
	assert.Equal(t, []string{"a.tif", "b.tif"}, sets[2])
}

func TestGroupBracketsSplitsOnGap(t *testing.T) {
	dec := newFakeDecoder()
	names := []string{}
	// Three brackets of three, 2s apart inside a bracket, 60s between
	for set := 0; set < 3; set++ {
		for shot := 0; shot < 3; shot++ {
			name := string(rune('a'+set)) + string(rune('0'+shot)) + ".tif"
			at := set*60 + shot*2
			dec.addFile(name, fakeFile{hasTime: true, interval: interval(at, at+1)})
			names = append(names, name)
		}
	}

	sets := GroupBrackets(names, 5, dec)
	require.Len(t, sets, 3)
	for i, set := range sets {
		assert.Len(t, set, 3, "set %d", i)
	}
	assert.Equal(t, []string{"a0.tif", "a1.tif", "a2.tif"}, sets[0])
}

func TestGroupBracketsMembersAscendByStartTime(t *testing.T) {
	dec := newFakeDecoder()
	dec.addFile("late.tif", fakeFile{hasTime: true, interval: interval(4, 5)})
	dec.addFile("early.tif", fakeFile{hasTime: true, interval: interval(0, 1)})
	dec.addFile("mid.tif", fakeFile{hasTime: true, interval: interval(2, 3)})

	sets := GroupBrackets([]string{"late.tif", "early.tif", "mid.tif"}, 10, dec)
	require.Len(t, sets, 1)
	assert.Equal(t, []string{"early.tif", "mid.tif", "late.tif"}, sets[0])
}
