package domain

import "strings"

// Side identifies which of the two documents a record came from
type Side string

const (
	SideWO Side = "WO"
	SidePO Side = "PO"
)

// TableStrategy names one table-detection strategy of the document reader
type TableStrategy string

const (
	// StrategyLines detects tables from ruled lines (cell rectangles)
	StrategyLines TableStrategy = "lines"
	// StrategyText detects tables from text alignment
	StrategyText TableStrategy = "text"
	// StrategyExplicit uses explicit graphic edges as column separators
	StrategyExplicit TableStrategy = "explicit"
)

// TableStrategies is the order in which table strategies are attempted
var TableStrategies = []TableStrategy{StrategyLines, StrategyText, StrategyExplicit}

// Table is a candidate table as rows of cells. Empty cells are "".
type Table [][]string

// Page is one page of a document as produced by the reader
type Page struct {
	Number int                       `json:"number"`
	Text   string                    `json:"text"`
	Tables map[TableStrategy][]Table `json:"tables,omitempty"`
}

// Document is the reader's view of a source file: plain text and candidate
// tables per page, in page order.
type Document struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// Text returns the concatenated text of all pages in page order
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	texts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// FirstPageText returns the text of the first page, or "" for an empty document
func (d *Document) FirstPageText() string {
	if d == nil || len(d.Pages) == 0 {
		return ""
	}
	return d.Pages[0].Text
}
