package pdfreader

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/ticketcheck/backend/internal/domain"
)

// Layout tolerances, in PDF points
const (
	lineTolerance   = 2.0  // glyphs within this vertical distance share a line
	snapTolerance   = 3.0  // rule and column positions are snapped to this grid
	ruleThickness   = 2.0  // rectangles thinner than this are ruled lines
	wordGapFactor   = 0.25 // horizontal gap, in font sizes, that starts a new word
	cellGapFactor   = 1.5  // horizontal gap, in font sizes, that starts a new cell
	defaultFontSize = 10.0
)

// word is a run of glyphs on one line without a word gap
type word struct {
	x0, x1 float64
	y      float64
	size   float64
	text   string
}

func (w word) centerX() float64 { return (w.x0 + w.x1) / 2 }

// textLine is one visual line of a page, words ordered left to right
type textLine struct {
	y     float64
	words []word
}

func (l textLine) String() string {
	parts := make([]string, len(l.words))
	for i, w := range l.words {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// cell is a run of words on one line without a cell gap
type cell struct {
	x0, x1 float64
	text   string
}

// groupLines buckets glyphs into lines, top of the page first
func groupLines(texts []pdf.Text) []textLine {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			glyphs = append(glyphs, t)
		}
	}
	// Exact ordering here; the tolerance only applies while grouping below
	sort.SliceStable(glyphs, func(i, j int) bool {
		if glyphs[i].Y != glyphs[j].Y {
			return glyphs[i].Y > glyphs[j].Y
		}
		return glyphs[i].X < glyphs[j].X
	})

	var lines []textLine
	var current []pdf.Text
	var currentY float64
	flush := func() {
		if len(current) == 0 {
			return
		}
		if words := buildWords(current); len(words) > 0 {
			lines = append(lines, textLine{y: currentY, words: words})
		}
		current = nil
	}

	for _, g := range glyphs {
		if len(current) > 0 && math.Abs(g.Y-currentY) > lineTolerance {
			flush()
		}
		if len(current) == 0 {
			currentY = g.Y
		}
		current = append(current, g)
	}
	flush()
	return lines
}

// buildWords merges the glyphs of one line into words
func buildWords(glyphs []pdf.Text) []word {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var words []word
	var cur *word
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text) != "" {
			cur.text = strings.TrimSpace(cur.text)
			words = append(words, *cur)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		size := fontSize(g)
		if cur != nil && g.X-cur.x1 > size*wordGapFactor {
			flush()
		}
		end := g.X + glyphWidth(g)
		if cur == nil {
			cur = &word{x0: g.X, x1: end, y: g.Y, size: size, text: g.S}
			continue
		}
		cur.text += g.S
		cur.x1 = math.Max(cur.x1, end)
	}
	flush()
	return words
}

func fontSize(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize
	}
	return defaultFontSize
}

// glyphWidth falls back to half an em per rune when the font gives no width
func glyphWidth(g pdf.Text) float64 {
	if g.W > 0 {
		return g.W
	}
	return fontSize(g) * 0.5 * float64(utf8.RuneCountInString(g.S))
}

// splitCells groups the words of a line into cells separated by wide gaps
func splitCells(l textLine) []cell {
	var cells []cell
	for _, w := range l.words {
		if n := len(cells); n > 0 && w.x0-cells[n-1].x1 <= w.size*cellGapFactor {
			cells[n-1].text += " " + w.text
			cells[n-1].x1 = w.x1
			continue
		}
		cells = append(cells, cell{x0: w.x0, x1: w.x1, text: w.text})
	}
	return cells
}

// pageText renders the lines of a page as newline-separated text
func pageText(lines []textLine) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

// textTables finds tables from text alignment: runs of consecutive lines
// with two or more cells whose cell starts line up.
func textTables(lines []textLine) []domain.Table {
	var tables []domain.Table
	var run [][]cell

	emit := func() {
		if len(run) >= 2 {
			if t := alignCells(run); t != nil {
				tables = append(tables, t)
			}
		}
		run = nil
	}

	for _, l := range lines {
		cells := splitCells(l)
		if len(cells) < 2 {
			emit()
			continue
		}
		run = append(run, cells)
	}
	emit()
	return tables
}

// alignCells places every cell of the run into the column whose start it
// follows. Columns are cell starts shared by at least half of the rows.
func alignCells(rows [][]cell) domain.Table {
	counts := make(map[float64]int)
	for _, row := range rows {
		seen := make(map[float64]bool)
		for _, c := range row {
			x := snap(c.x0)
			if !seen[x] {
				seen[x] = true
				counts[x]++
			}
		}
	}

	minCount := max(2, len(rows)/2)
	var columns []float64
	for x, n := range counts {
		if n >= minCount {
			columns = append(columns, x)
		}
	}
	if len(columns) < 2 {
		return nil
	}
	sort.Float64s(columns)

	table := make(domain.Table, len(rows))
	for i, row := range rows {
		table[i] = make([]string, len(columns))
		for _, c := range row {
			j := columnIndex(c.x0, columns)
			table[i][j] = joinCell(table[i][j], c.text, " ")
		}
	}
	return table
}

// columnIndex returns the last column starting at or before x, or 0
func columnIndex(x float64, columns []float64) int {
	idx := 0
	for i, c := range columns {
		if x+snapTolerance >= c {
			idx = i
		}
	}
	return idx
}

// rules are the snapped positions of ruled lines and rectangle edges
type rules struct {
	horizontal []float64 // y positions, top first
	vertical   []float64 // x positions, left first
	top        float64
	bottom     float64
}

func collectRules(rects []pdf.Rect) rules {
	var hs, vs []float64
	r := rules{top: math.Inf(-1), bottom: math.Inf(1)}

	for _, rect := range rects {
		x0, x1 := math.Min(rect.Min.X, rect.Max.X), math.Max(rect.Min.X, rect.Max.X)
		y0, y1 := math.Min(rect.Min.Y, rect.Max.Y), math.Max(rect.Min.Y, rect.Max.Y)
		w, h := x1-x0, y1-y0

		switch {
		case h <= ruleThickness && w > ruleThickness:
			hs = append(hs, (y0+y1)/2)
		case w <= ruleThickness && h > ruleThickness:
			vs = append(vs, (x0+x1)/2)
			r.top, r.bottom = math.Max(r.top, y1), math.Min(r.bottom, y0)
		case w > ruleThickness && h > ruleThickness:
			hs = append(hs, y0, y1)
			vs = append(vs, x0, x1)
			r.top, r.bottom = math.Max(r.top, y1), math.Min(r.bottom, y0)
		}
	}

	r.horizontal = uniqueSnapped(hs)
	sort.Sort(sort.Reverse(sort.Float64Slice(r.horizontal)))
	r.vertical = uniqueSnapped(vs)
	sort.Float64s(r.vertical)
	return r
}

// lineTables builds a grid from ruled lines and cell rectangles and fills
// each cell with the words whose centre falls inside it.
func lineTables(lines []textLine, r rules) []domain.Table {
	if len(r.horizontal) < 2 || len(r.vertical) < 2 {
		return nil
	}

	nRows, nCols := len(r.horizontal)-1, len(r.vertical)-1
	grid := make(domain.Table, nRows)
	lastY := make([][]float64, nRows)
	for i := range grid {
		grid[i] = make([]string, nCols)
		lastY[i] = make([]float64, nCols)
	}

	for _, l := range lines {
		row := bandIndex(l.y, r.horizontal)
		if row < 0 {
			continue
		}
		for _, w := range l.words {
			col := spanIndex(w.centerX(), r.vertical)
			if col < 0 {
				continue
			}
			sep := " "
			if grid[row][col] != "" && lastY[row][col] != l.y {
				sep = "\n"
			}
			grid[row][col] = joinCell(grid[row][col], w.text, sep)
			lastY[row][col] = l.y
		}
	}
	return []domain.Table{grid}
}

// explicitTables uses only vertical edges as column separators; rows come
// from the text lines inside the vertical extent of those edges.
func explicitTables(lines []textLine, r rules) []domain.Table {
	if len(r.vertical) < 2 || math.IsInf(r.top, 0) {
		return nil
	}

	var table domain.Table
	for _, l := range lines {
		if l.y > r.top+snapTolerance || l.y < r.bottom-snapTolerance {
			continue
		}
		row := make([]string, len(r.vertical)-1)
		filled := false
		for _, w := range l.words {
			if col := spanIndex(w.centerX(), r.vertical); col >= 0 {
				row[col] = joinCell(row[col], w.text, " ")
				filled = true
			}
		}
		if filled {
			table = append(table, row)
		}
	}
	if len(table) == 0 {
		return nil
	}
	return []domain.Table{table}
}

// bandIndex returns i such that edges[i] >= y >= edges[i+1] (edges descending)
func bandIndex(y float64, edges []float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if y <= edges[i]+snapTolerance && y >= edges[i+1]-snapTolerance/2 {
			return i
		}
	}
	return -1
}

// spanIndex returns i such that edges[i] <= x <= edges[i+1] (edges ascending)
func spanIndex(x float64, edges []float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if x >= edges[i] && x <= edges[i+1] {
			return i
		}
	}
	return -1
}

func snap(v float64) float64 {
	return math.Round(v/snapTolerance) * snapTolerance
}

func uniqueSnapped(values []float64) []float64 {
	seen := make(map[float64]bool, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		s := snap(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func joinCell(existing, text, sep string) string {
	if existing == "" {
		return text
	}
	return existing + sep + text
}

// buildPage lays out one page's text and runs every table strategy
func buildPage(number int, texts []pdf.Text, rects []pdf.Rect) domain.Page {
	lines := groupLines(texts)
	r := collectRules(rects)

	tables := make(map[domain.TableStrategy][]domain.Table)
	if t := lineTables(lines, r); len(t) > 0 {
		tables[domain.StrategyLines] = t
	}
	if t := textTables(lines); len(t) > 0 {
		tables[domain.StrategyText] = t
	}
	if t := explicitTables(lines, r); len(t) > 0 {
		tables[domain.StrategyExplicit] = t
	}

	return domain.Page{
		Number: number,
		Text:   pageText(lines),
		Tables: tables,
	}
}
