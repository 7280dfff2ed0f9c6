// Package exifcopy propagates metadata from a source exposure to the
// rendered output. The inclusion and exclusion rules are fixed:
// thumbnail and sub-image preview tags never travel, camera identity
// and rights tags always do, and when no donor metadata exists the
// output is still marked as carrying a primary image.
package exifcopy

import(
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Vendor preview/thumbnail payload tags that must never be copied:
// they describe the source file's embedded previews, not the merge.
var previewKeys = map[string]bool{
	"PreviewImageStart":           true,
	"PreviewImageLength":          true,
	"PreviewOffset":               true,
	"PreviewLength":               true,
	"JPEGInterchangeFormat":       true,
	"JPEGInterchangeFormatLength": true,
	"ThumbnailOffset":             true,
	"ThumbnailLength":             true,
	"ThumbnailImage":              true,
	"ThumbJPEGInterchangeFormat":  true,
}

// Tags copied unconditionally, even though their groups are
// otherwise excluded: camera identity is needed for maker-note
// interpretation, rights tags must survive, and the DNG private data
// and opcode lists keep converter output developable.
var includedImageKeys = []string{
	"Make",
	"Model",
	"Artist",
	"Copyright",
	"DNGPrivateData",
	"OpcodeList1",
	"OpcodeList2",
	"OpcodeList3",
}

// Excluded reports whether a tag stays behind: preview payloads and
// the structural Image/SubImage/Thumb groups, whose geometry belongs
// to the source file, not the merged output.
func Excluded(field string) bool {
	if previewKeys[field] {
		return true
	}
	return strings.HasPrefix(field, "Thumb") ||
		strings.HasPrefix(field, "SubThumb") ||
		strings.HasPrefix(field, "Image") ||
		strings.HasPrefix(field, "SubImage")
}

// Included reports whether a tag is copied despite Excluded.
func Included(field string) bool {
	for _, k := range includedImageKeys {
		if field == k {
			return true
		}
	}
	return false
}

// A Copier transfers tags from a source file to a rendered output.
type Copier interface {
	Copy(dstFile, srcFile string) error
}

// Null discards all metadata.
type Null struct{}

func (Null)Copy(dstFile, srcFile string) error { return nil }

// Sidecar reads the source file's EXIF, filters it through the
// include/exclude rules, and writes the survivors as an XMP sidecar
// next to the output file. Rewriting EXIF blocks inside the rendered
// file itself is out of scope here.
type Sidecar struct{}

type fieldCollector struct {
	fields map[string]string
}

func (fc *fieldCollector)Walk(name exif.FieldName, tag *tiff.Tag) error {
	field := string(name)
	if Included(field) || !Excluded(field) {
		fc.fields[field] = tag.String()
	}
	return nil
}

func (Sidecar)Copy(dstFile, srcFile string) error {
	fields := map[string]string{}

	reader, err := os.Open(srcFile)
	if err == nil {
		defer reader.Close()
		if ex, err := exif.Decode(reader); err == nil {
			fc := &fieldCollector{fields: fields}
			ex.Walk(fc)
		}
	}
	if len(fields) == 0 {
		// No donor metadata; at least mark the primary sub-image
		fields["NewSubfileType"] = "0"
	}

	return writeSidecar(dstFile+".xmp", fields)
}

func writeSidecar(name string, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	b.WriteString(" <rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n")
	b.WriteString("  <rdf:Description xmlns:exif=\"http://ns.adobe.com/exif/1.0/\"\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "   exif:%s=\"%s\"\n", k, xmlEscape(fields[k]))
	}
	b.WriteString("  />\n </rdf:RDF>\n</x:xmpmeta>\n")

	if err := os.WriteFile(name, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("sidecar write '%s': %v", name, err)
	}
	return nil
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")

func xmlEscape(s string) string { return xmlEscaper.Replace(strings.Trim(s, "\"")) }
