package rawmerge

import(
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Resolve expands the file name tokens in pattern:
//
//	%%        a literal %
//	%if[n]    base file name of input n
//	%iF[n]    base file name of input n, without extension
//	%id[n]    directory of input n
//	%in[n]    trailing digit run of input n's base name
//	%of, %od  base name / directory of the output file
//
// Inputs are sorted lexicographically for the duration of the call;
// n may be negative to count from the end, and an out-of-range n
// resolves to the empty string. The %o tokens are only live when an
// output file name is supplied; otherwise they pass through verbatim.
//
// The scan runs left to right into a fresh buffer, so replacement
// text is never reinterpreted as further tokens.
func Resolve(pattern, outFileName string, inputs []string) string {
	names := append([]string(nil), inputs...)
	sort.Strings(names)

	var out strings.Builder
	i := 0
	for i < len(pattern) {
		if pattern[i] != '%' {
			out.WriteByte(pattern[i])
			i++
			continue
		}

		switch {
		case i+1 < len(pattern) && pattern[i+1] == '%':
			out.WriteByte('%')
			i += 2

		case i+2 < len(pattern) && pattern[i+1] == 'o' && outFileName != "" &&
			(pattern[i+2] == 'f' || pattern[i+2] == 'd'):
			if pattern[i+2] == 'f' {
				out.WriteString(filepath.Base(outFileName))
			} else {
				out.WriteString(filepath.Dir(outFileName))
			}
			i += 3

		case i+3 < len(pattern) && pattern[i+1] == 'i' &&
			strings.IndexByte("fFdn", pattern[i+2]) >= 0 && pattern[i+3] == '[':
			idx, next, ok := parseTokenIndex(pattern, i+4)
			if !ok {
				out.WriteByte('%')
				i++
				break
			}
			out.WriteString(inputToken(names, pattern[i+2], idx))
			i = next

		default:
			// Not a token; the % goes through untouched.
			out.WriteByte('%')
			i++
		}
	}
	return out.String()
}

// parseTokenIndex reads an optionally negative integer up to a
// closing ] starting at i, returning the index and the scan position
// just past the bracket.
func parseTokenIndex(pattern string, i int) (int, int, bool) {
	j := i
	if j < len(pattern) && pattern[j] == '-' {
		j++
	}
	digits := j
	for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
		j++
	}
	if j == digits || j >= len(pattern) || pattern[j] != ']' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(pattern[i:j])
	if err != nil {
		return 0, 0, false
	}
	return n, j + 1, true
}

func inputToken(names []string, kind byte, idx int) string {
	if idx < 0 {
		idx = len(names) + idx
	}
	if idx < 0 || idx >= len(names) {
		return ""
	}
	switch kind {
	case 'f':
		return filepath.Base(names[idx])
	case 'F':
		return baseNameNoExt(names[idx])
	case 'd':
		return filepath.Dir(names[idx])
	case 'n':
		return numberSuffix(names[idx])
	}
	return ""
}

func baseNameNoExt(name string) string {
	base := filepath.Base(name)
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		return base[:dot]
	}
	return base
}

// numberSuffix returns the trailing run of digits in the base name
// before its extension; for IMG_1234.CR2 that is "1234".
func numberSuffix(name string) string {
	base := baseNameNoExt(name)
	pos := len(base) - 1
	for pos >= 0 && base[pos] >= '0' && base[pos] <= '9' {
		pos--
	}
	return base[pos+1:]
}
