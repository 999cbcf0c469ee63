package einvoice

import (
	"regexp"
	"strings"
)

// Company-name labels for the two parties. Captures run to end of line.
var (
	sellerNameLabels = []string{"賣方名稱", "賣方公司", "賣方", "營業人名稱"}
	buyerNameLabels  = []string{"買方名稱", "買方公司", "買方"}
)

// locatePartyName captures the free text following a party label, trimmed
// of label punctuation and surrounding whitespace. A capture that is empty
// after trimming counts as not found.
func locatePartyName(c RawContent, labels []string) (string, string, bool) {
	for _, line := range c.Lines() {
		// Longest label first; once a label matches, that match decides
		// the line. Falling through to a shorter label would re-capture
		// the longer label's own tail (賣方名稱: yields 名稱:).
		for _, label := range labels {
			pattern := regexp.MustCompile(regexp.QuoteMeta(label) + `\s*[：:]?\s*(.+)$`)
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			// On a value-less label line the optional colon matches
			// empty and the capture starts at the colon itself.
			name := strings.TrimSpace(strings.TrimLeft(m[1], "：: \t"))
			if name == "" {
				break
			}
			// The bare 賣方/買方 labels also prefix the tax-id lines;
			// a capture that is a uniform-number field belongs to the
			// tax-id locator, not here.
			if strings.HasPrefix(name, "統") || digitsOnly(name) {
				break
			}
			return name, m[0], true
		}
	}
	return "", "", false
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
