package usecase

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Compiled patterns shared by the extractors
var (
	multiSpacePattern  = regexp.MustCompile(`\s+`)
	inlineSpacePattern = regexp.MustCompile(`[ \t\f\v]+`)
)

// punctuationFolder maps the non-ASCII punctuation seen in extracted PDF text
// onto ASCII. NFKC already folds the non-breaking space.
var punctuationFolder = strings.NewReplacer(
	"\u00a0", " ",
	"\u2013", "-",
	"\u2014", "-",
	"\u2010", "-",
	"\u2011", "-",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\r\n", "\n",
	"\r", "\n",
)

// foldPunctuation applies NFKC and the ASCII punctuation fold without touching
// whitespace structure.
func foldPunctuation(s string) string {
	if s == "" {
		return s
	}
	return punctuationFolder.Replace(norm.NFKC.String(s))
}

// NormalizeText folds punctuation and collapses all whitespace, including line
// breaks, into single spaces. Idempotent.
func NormalizeText(s string) string {
	s = foldPunctuation(s)
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeLines folds punctuation and collapses whitespace within each line
// while keeping the line structure. Lines are trimmed; blank lines are kept
// because some extractors count them.
func NormalizeLines(s string) []string {
	s = foldPunctuation(s)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(inlineSpacePattern.ReplaceAllString(ln, " "))
	}
	return lines
}

// NormalizeCell flattens one table cell: line breaks become spaces and runs of
// whitespace collapse.
func NormalizeCell(cell string) string {
	return NormalizeText(cell)
}

// normalizeTable returns a copy of the table with every cell flattened.
// Empty rows are dropped.
func normalizeTable(table [][]string) [][]string {
	out := make([][]string, 0, len(table))
	for _, row := range table {
		if len(row) == 0 {
			continue
		}
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = NormalizeCell(c)
		}
		out = append(out, cells)
	}
	return out
}

// nonEmptyLines returns the normalized lines of s without blank ones
func nonEmptyLines(s string) []string {
	var out []string
	for _, ln := range NormalizeLines(s) {
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}
