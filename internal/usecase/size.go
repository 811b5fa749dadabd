package usecase

import (
	"regexp"
	"strings"
)

// sizeRank orders canonical sizes for display. Unknown sizes sort last.
var sizeRank = map[string]int{
	"XS":  0,
	"S":   1,
	"M":   2,
	"L":   3,
	"XL":  4,
	"XXL": 5,
}

const unknownSizeRank = 99

// sizeKeywords are the size tokens recognised on PO colour/size lines
var sizeKeywords = map[string]bool{
	"XS": true, "S": true, "M": true, "L": true, "XL": true,
	"XXL": true, "XXXL": true, "XXG": true, "P": true, "G": true,
}

// cellSizePatterns are tried in order; longer tokens come first so that a
// short token never matches inside a longer one.
var cellSizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(XXXL)\b`),
	regexp.MustCompile(`\b(XXL)\b`),
	regexp.MustCompile(`\b(XL/XG|XL)\b`),
	regexp.MustCompile(`\b(XS/XP|XS)\b`),
	regexp.MustCompile(`\b(S/P|S)\b`),
	regexp.MustCompile(`\b(M/M|M)\b`),
	regexp.MustCompile(`\b(L/G|L)\b`),
	regexp.MustCompile(`\b(XXG|XG|XP|P|G)\b`),
}

// CleanSize reduces a size string to its primary token: upper-cased, all
// whitespace removed, and only the part before the first "|" or "/" kept.
// Idempotent and case-insensitive.
func CleanSize(size string) string {
	if size == "" {
		return ""
	}
	size = multiSpacePattern.ReplaceAllString(strings.ToUpper(size), "")
	if i := strings.Index(size, "|"); i >= 0 {
		return size[:i]
	}
	if i := strings.Index(size, "/"); i >= 0 {
		return size[:i]
	}
	return size
}

// ExtractSizeFromCell finds a size token anywhere in a table cell. Returns ""
// when the cell holds no recognised size.
func ExtractSizeFromCell(cell string) string {
	if cell == "" {
		return ""
	}
	cell = NormalizeCell(strings.ToUpper(cell))
	for _, p := range cellSizePatterns {
		if m := p.FindStringSubmatch(cell); m != nil {
			return CleanSize(m[1])
		}
	}
	return ""
}

// hasSizeToken reports whether any size pattern occurs in the cell
func hasSizeToken(cell string) bool {
	return ExtractSizeFromCell(cell) != ""
}

// isSizeKeyword reports whether token is one of the PO size keywords
func isSizeKeyword(token string) bool {
	return sizeKeywords[strings.ToUpper(strings.TrimSpace(token))]
}

// SizeRank returns the display rank of a size after normalization
func SizeRank(size string) int {
	if r, ok := sizeRank[CleanSize(size)]; ok {
		return r
	}
	return unknownSizeRank
}
