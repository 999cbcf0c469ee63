package einvoice

import "regexp"

// TaxID is an 8-digit Taiwanese uniform business number (統一編號).
type TaxID string

var taxIDDigits = regexp.MustCompile(`^\d{8}$`)

// taxIDWeights is the checksum weight vector of the uniform-number scheme.
var taxIDWeights = [8]int{1, 2, 1, 2, 1, 2, 4, 1}

// ValidTaxID reports whether s passes the uniform-number checksum: each
// digit is multiplied by its weight, the decimal digits of every product
// are summed, and the total must divide by 10. When the seventh digit is 7,
// a total one short of a multiple of 10 is also accepted.
func ValidTaxID(s string) bool {
	if !taxIDDigits.MatchString(s) {
		return false
	}
	total := 0
	for i := 0; i < 8; i++ {
		product := int(s[i]-'0') * taxIDWeights[i]
		total += product/10 + product%10
	}
	if total%10 == 0 {
		return true
	}
	return s[6] == '7' && (total+1)%10 == 0
}

// Role labels for the two tax-id fields. Long forms are listed before their
// abbreviations so the raw match keeps the fullest label.
var (
	sellerTaxIDLabels = []string{"賣方統一編號", "賣方統編", "營業人統一編號", "營業人統編"}
	buyerTaxIDLabels  = []string{"買方統一編號", "買方統編"}
)

// locateTaxID finds an 8-digit sequence adjacent to one of the given role
// labels. Roles are only ever assigned from labels; an unlabeled 8-digit
// number is never attributed to a party by position.
func locateTaxID(c RawContent, labels []string) (TaxID, string, bool) {
	text := c.Text()
	for _, label := range labels {
		pattern := regexp.MustCompile(regexp.QuoteMeta(label) + `[^0-9]{0,8}(\d{8})`)
		if m := pattern.FindStringSubmatch(text); m != nil {
			return TaxID(m[1]), m[0], true
		}
	}
	return "", "", false
}

// ScanTaxIDs returns every checksum-valid 8-digit sequence in document
// order, deduplicated. It feeds diagnostics only; role assignment stays
// label-driven.
func ScanTaxIDs(c RawContent) []TaxID {
	seen := make(map[string]struct{})
	var ids []TaxID
	for _, m := range eightDigitRun.FindAllString(c.Text(), -1) {
		if _, dup := seen[m]; dup || !ValidTaxID(m) {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, TaxID(m))
	}
	return ids
}

var eightDigitRun = regexp.MustCompile(`\b\d{8}\b`)
