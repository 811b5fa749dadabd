package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ticketcheck/backend/internal/domain"
)

var (
	woProductCodePattern = regexp.MustCompile(`Product Code[:\s]*([\w\s\-]+(?:\s*/\s*[\w\s\-]+)*)`)
	poLBCodePattern      = regexp.MustCompile(`LB\s*\d+`)
	supRefPattern        = regexp.MustCompile(`(?i)Sup\.?\s*Ref\.?\s*[:\-]?\s*([A-Z]+[-\s]?\d+)`)
	tagCodePattern       = regexp.MustCompile(`TAG\.PRC\.TKT_(.*?)_REG`)

	poNumberCandidatePattern = regexp.MustCompile(`\b\d{7,8}\b`)
	poNumberWordPattern      = regexp.MustCompile(`^\d{7,8}$`)
	styleSectionPattern      = regexp.MustCompile(`(?i)Extracted Style Numbers:\s*(.+)`)
	styleNumberPattern       = regexp.MustCompile(`\b\d{8}\b`)
)

// poNumberPatterns are the labelled PO number forms, highest precedence first
var poNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`PO Number:\s*(\d+)`),
	regexp.MustCompile(`(?i)P\.O\.\s*Number:\s*(\d+)`),
	regexp.MustCompile(`(?i)Purchase Order Number:\s*(\d+)`),
	regexp.MustCompile(`(?i)PO\s*#:\s*(\d+)`),
	regexp.MustCompile(`(?i)PO\s*No:\s*(\d+)`),
	regexp.MustCompile(`(?i)PO\s*Number:\s*(\d+)`),
}

// poNumberStrategy finds a PO number in a document, "" when it cannot
type poNumberStrategy func(doc *domain.Document) string

// poNumberStrategies are tried in order; the first non-empty result wins
var poNumberStrategies = []poNumberStrategy{
	func(doc *domain.Document) string { return findLabelledPONumber(doc.FirstPageText()) },
	func(doc *domain.Document) string { return findPositionalPONumber(doc.FirstPageText()) },
	func(doc *domain.Document) string {
		for _, p := range doc.Pages {
			if n := findLabelledPONumber(p.Text); n != "" {
				return n
			}
		}
		return ""
	},
	func(doc *domain.Document) string { return poNumberCandidatePattern.FindString(doc.Text()) },
}

// ExtractPONumber returns the purchase order number of a PO document
func ExtractPONumber(doc *domain.Document) string {
	if doc == nil || len(doc.Pages) == 0 {
		return ""
	}
	for _, strategy := range poNumberStrategies {
		if n := strategy(doc); n != "" {
			return n
		}
	}
	return ""
}

func findLabelledPONumber(text string) string {
	for _, p := range poNumberPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// findPositionalPONumber returns the first 7-8 digit word in the second half
// of the page, where the PO header block sits.
func findPositionalPONumber(text string) string {
	words := strings.Fields(text)
	half := float64(len(words)) / 2
	for i, w := range words {
		if float64(i) > half && poNumberWordPattern.MatchString(w) {
			return w
		}
	}
	return ""
}

// ExtractStyleNumbers returns the 8-digit styles listed in the first page's
// "Extracted Style Numbers:" section, or any 8-digit numbers on the first page
// when the section is absent.
func ExtractStyleNumbers(doc *domain.Document) []string {
	first := doc.FirstPageText()
	if m := styleSectionPattern.FindStringSubmatch(first); m != nil {
		return styleNumberPattern.FindAllString(m[1], -1)
	}
	return styleNumberPattern.FindAllString(first, -1)
}

// normalizeProductCode upper-cases a code, strips punctuation artifacts and
// collapses whitespace.
func normalizeProductCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", " ")
	return NormalizeText(code)
}

// extractWOProductCodes reads the codes from the first "Product Code" line.
// Composite codes are split on "/" and the VSBA prefix is dropped.
func extractWOProductCodes(lines []string) []string {
	var codes []string
	for _, ln := range lines {
		if !strings.Contains(ln, "Product Code") {
			continue
		}
		for _, m := range woProductCodePattern.FindAllStringSubmatch(ln, -1) {
			for _, part := range strings.Split(m[1], "/") {
				code := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(part)), "VSBA", "")
				if code = normalizeProductCode(code); code != "" {
					codes = append(codes, code)
				}
			}
		}
		break
	}
	return uniqueStrings(codes)
}

// extractPOProductCodes collects LB codes plus the supplier-reference and
// ticket codes declared anywhere in the PO text.
func extractPOProductCodes(text string) []string {
	codes := poLBCodePattern.FindAllString(text, -1)
	var declared []string
	for _, m := range supRefPattern.FindAllStringSubmatch(text, -1) {
		declared = append(declared, strings.ToUpper(strings.TrimSpace(m[1])))
	}
	for _, m := range tagCodePattern.FindAllStringSubmatch(text, -1) {
		declared = append(declared, strings.ToUpper(strings.TrimSpace(m[1])))
	}
	return append(codes, uniqueStrings(declared)...)
}

// ExtractWOFields pulls the header fields out of a work order
func ExtractWOFields(doc *domain.Document) domain.WOFields {
	text := doc.Text()
	lines := NormalizeLines(text)

	fields := domain.WOFields{}
	fields.DeliveryAddress, fields.CustomerName = extractWOAddress(lines)
	fields.ProductCodes = extractWOProductCodes(lines)
	fields.PONumbers = uniqueStrings(poNumberCandidatePattern.FindAllString(text, -1))
	sort.Strings(fields.PONumbers)

	if fields.DeliveryAddress == "" {
		fields.Warnings = append(fields.Warnings, "delivery address not found")
	}
	if len(fields.ProductCodes) == 0 {
		fields.Warnings = append(fields.Warnings, "product code not found")
	}
	return fields
}

// ExtractPOFields pulls the header fields out of a purchase order
func ExtractPOFields(doc *domain.Document) domain.POFields {
	text := doc.Text()

	fields := domain.POFields{
		DeliveryLocation: extractPOAddress(NormalizeLines(text)),
		ProductCodes:     extractPOProductCodes(text),
		PONumber:         ExtractPONumber(doc),
		StyleNumbers:     ExtractStyleNumbers(doc),
	}

	if fields.DeliveryLocation == "" {
		fields.Warnings = append(fields.Warnings, "delivery location not found")
	}
	if fields.PONumber == "" {
		fields.Warnings = append(fields.Warnings, "PO number not found")
	}
	if len(fields.StyleNumbers) == 0 {
		fields.Warnings = append(fields.Warnings, "style numbers not found")
	}
	return fields
}

// uniqueStrings removes duplicates, keeping first-seen order
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
