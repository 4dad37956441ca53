package storagegcs

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	maxNameLength = 50
	proofPrefix   = "proofs/"
)

// objectName builds proofs/YYYY/MM/DD/<id>-<slug><ext>. The extension
// always matches format so the URL passes image URL validation.
func objectName(now time.Time, id, original, format string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return proofPrefix + now.UTC().Format("2006/01/02") + "/" + id + "-" + slugify(base) + extensions[format]
}

// slugify lowercases name and keeps ASCII letters and digits, joining
// everything else into single hyphens.
func slugify(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			if b.Len() >= maxNameLength {
				break
			}
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "proof"
	}
	return b.String()
}
