package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ppiankov/lifestory/internal/model"
)

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// FileName returns the download name for a country's story,
// Life-Expectancy-<country>.html
func FileName(country string) string {
	return "Life-Expectancy-" + sanitizeFilename(country) + ".html"
}

// SelectionFileName names a batch output file by the whole selection,
// Life-Expectancy-<country>-<gender>-<year>.html
func SelectionFileName(sel model.Selection) string {
	return fmt.Sprintf("Life-Expectancy-%s-%s-%d.html", sanitizeFilename(sel.Country), sanitizeFilename(sel.Gender), sel.Year)
}

// SnapshotName returns the PNG name for one slide preview
func SnapshotName(country string, slide int, name string) string {
	return fmt.Sprintf("Life-Expectancy-%s-%d-%s.png", sanitizeFilename(country), slide, name)
}

// sanitizeFilename keeps the name readable (spaces, accents, apostrophes)
// but removes path separators, reserved characters and control characters
func sanitizeFilename(s string) string {
	s = unsafeFilenameChars.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimLeft(strings.TrimSpace(s), ".")
	if s == "" {
		return "unknown"
	}

	if len(s) > 100 {
		cut := 100
		for cut > 0 && !utf8Start(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
