package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/internal/domain"
)

var (
	styleCodePattern   = regexp.MustCompile(`^\d{8}$`)
	smallIntPattern    = regexp.MustCompile(`^\d{1,4}$`)
	quantityPattern    = regexp.MustCompile(`\b(\d{1,4})\b`)
	woTextItemPattern  = regexp.MustCompile(`(\d{8})\s+([A-Z0-9]+)\s+(XXL|XXXL|XL|XS|S|M|L|P|G|XG|XXG)\s+.*?(\d{1,4})\s*$`)
	headerSizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(XXL|XXXL)\b`),
		regexp.MustCompile(`\b(XL|XG)\b`),
		regexp.MustCompile(`\b(XS|XP)\b`),
		regexp.MustCompile(`\b(S|M|L|P|G)\b`),
	}
)

// headerKeywords are counted across a row to recognise the header row
var headerKeywords = []string{"style", "colour", "color", "size", "quantity", "qty", "retail", "sku", "article"}

const (
	minHeaderKeywords  = 3
	minPatternRowCells = 6
	minQuantity        = 1
	maxQuantity        = 9999
)

// Column roles of a WO ticket table
const (
	colStyle       = "style"
	colColorCode   = "color_code"
	colSize1       = "size1"
	colSize2       = "size2"
	colPantyLength = "panty_length"
	colRetailUS    = "retail_us"
	colRetailCA    = "retail_ca"
	colMultiPrice  = "multi_price"
	colSKU         = "sku"
	colArticle     = "article"
	colQuantity    = "quantity"
)

// columnLayout maps column roles to cell indexes
type columnLayout map[string]int

func (l columnLayout) index(role string, fallback int) int {
	if i, ok := l[role]; ok {
		return i
	}
	return fallback
}

func (l columnLayout) maxIndex() int {
	highest := 0
	for _, i := range l {
		if i > highest {
			highest = i
		}
	}
	return highest
}

// WOItemExtractor recovers line items from the ticket tables of a work order
type WOItemExtractor struct {
	logger logrus.FieldLogger
	debug  bool
}

// NewWOItemExtractor creates a WO line-item extractor
func NewWOItemExtractor(logger logrus.FieldLogger, debug bool) *WOItemExtractor {
	if logger == nil {
		logger = discardLogger()
	}
	return &WOItemExtractor{logger: logger.WithField("component", "wo_items"), debug: debug}
}

// Extract returns the aggregated WO line items. Each page's tables are read
// with the first table strategy that finds anything; a page whose tables
// yield no items is scanned line by line instead.
func (e *WOItemExtractor) Extract(doc *domain.Document, productCodes []string) []domain.LineItem {
	if doc == nil {
		return nil
	}
	productCode := strings.Join(productCodes, " / ")

	var items []domain.LineItem
	for _, page := range doc.Pages {
		strategy, tables := selectTables(page)
		if e.debug && strategy != "" {
			e.logger.WithFields(logrus.Fields{
				"page":     page.Number,
				"strategy": strategy,
				"tables":   len(tables),
			}).Debug("tables selected")
		}

		var pageItems []domain.LineItem
		for _, table := range tables {
			pageItems = append(pageItems, e.itemsFromTable(normalizeTable(table), productCode)...)
		}
		if len(pageItems) == 0 && page.Text != "" {
			pageItems = e.itemsFromText(page.Text, productCode)
			if e.debug {
				e.logger.WithFields(logrus.Fields{
					"page":  page.Number,
					"items": len(pageItems),
				}).Debug("text fallback used")
			}
		}
		items = append(items, pageItems...)
	}
	return AggregateItems(items)
}

// selectTables returns the tables of the first strategy that produced at
// least one non-empty table.
func selectTables(page domain.Page) (domain.TableStrategy, []domain.Table) {
	for _, strategy := range domain.TableStrategies {
		tables := page.Tables[strategy]
		for _, t := range tables {
			if !tableEmpty(t) {
				return strategy, tables
			}
		}
	}
	return "", nil
}

func tableEmpty(t domain.Table) bool {
	for _, row := range t {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

func (e *WOItemExtractor) itemsFromTable(table [][]string, productCode string) []domain.LineItem {
	if len(table) < 2 {
		return nil
	}

	headerIdx, layout := findKeywordHeader(table)
	if headerIdx == -1 {
		headerIdx, layout = findPatternHeader(table)
	}
	if headerIdx == -1 {
		if e.debug {
			e.logger.Debug("no header row, table skipped")
		}
		return nil
	}

	start := headerIdx
	if strings.Contains(strings.ToLower(strings.Join(table[headerIdx], " ")), "style") {
		start = headerIdx + 1
	}

	var items []domain.LineItem
	for _, row := range table[start:] {
		if item, ok := e.parseRow(row, layout, productCode); ok {
			items = append(items, item)
		}
	}
	return items
}

// findKeywordHeader locates the first row carrying at least three header
// keywords and maps its columns by keyword.
func findKeywordHeader(table [][]string) (int, columnLayout) {
	for i, row := range table {
		rowText := strings.ToLower(strings.Join(nonEmptyCells(row), " "))
		found := 0
		for _, kw := range headerKeywords {
			if strings.Contains(rowText, kw) {
				found++
			}
		}
		if found >= minHeaderKeywords {
			return i, mapHeaderColumns(row)
		}
	}
	return -1, nil
}

func mapHeaderColumns(row []string) columnLayout {
	layout := columnLayout{}
	for j, cell := range row {
		c := strings.ToLower(strings.TrimSpace(cell))
		if c == "" {
			continue
		}
		_, hasSize1 := layout[colSize1]
		switch {
		case strings.Contains(c, "style"):
			layout[colStyle] = j
		case strings.Contains(c, "colour") || strings.Contains(c, "color"):
			layout[colColorCode] = j
		case strings.Contains(c, "size 1"):
			layout[colSize1] = j
		case strings.Contains(c, "size 2"):
			layout[colSize2] = j
		case strings.Contains(c, "size") && !hasSize1:
			layout[colSize1] = j
		case strings.Contains(c, "panty"):
			layout[colPantyLength] = j
		case strings.Contains(c, "retail") && strings.Contains(c, "us"):
			layout[colRetailUS] = j
		case strings.Contains(c, "retail") && strings.Contains(c, "ca"):
			layout[colRetailCA] = j
		case strings.Contains(c, "multi"):
			layout[colMultiPrice] = j
		case strings.Contains(c, "sku"):
			layout[colSKU] = j
		case strings.Contains(c, "article"):
			layout[colArticle] = j
		case strings.Contains(c, "quantity") || strings.Contains(c, "qty"):
			layout[colQuantity] = j
		}
	}
	return layout
}

// findPatternHeader treats the first row that looks like data (8-digit style
// first, a size token and a plausible quantity somewhere) as the start of
// the table, with the default ticket layout.
func findPatternHeader(table [][]string) (int, columnLayout) {
	for i, row := range table {
		if len(row) < minPatternRowCells {
			continue
		}
		if !styleCodePattern.MatchString(strings.TrimSpace(row[0])) {
			continue
		}
		hasSize, hasQty := false, false
		for _, cell := range row {
			c := strings.ToUpper(strings.TrimSpace(cell))
			for _, p := range headerSizePatterns {
				if p.MatchString(c) {
					hasSize = true
					break
				}
			}
			if smallIntPattern.MatchString(c) {
				if n, err := strconv.Atoi(c); err == nil && n >= minQuantity && n <= maxQuantity {
					hasQty = true
				}
			}
		}
		if hasSize && hasQty {
			return i, columnLayout{
				colStyle:       0,
				colColorCode:   1,
				colSize1:       2,
				colSize2:       3,
				colPantyLength: 4,
				colRetailUS:    5,
				colRetailCA:    6,
				colMultiPrice:  7,
				colSKU:         8,
				colArticle:     9,
				colQuantity:    len(row) - 1,
			}
		}
	}
	return -1, nil
}

func (e *WOItemExtractor) parseRow(row []string, layout columnLayout, productCode string) (domain.LineItem, bool) {
	if len(row) == 0 || len(row) < layout.maxIndex()+1 {
		return domain.LineItem{}, false
	}

	style := strings.TrimSpace(cellAt(row, layout.index(colStyle, 0)))
	if !styleCodePattern.MatchString(style) {
		return domain.LineItem{}, false
	}
	color := strings.ToUpper(strings.TrimSpace(cellAt(row, layout.index(colColorCode, 1))))

	size := ExtractSizeFromCell(cellAt(row, layout.index(colSize1, 2)))
	if size == "" {
		for _, cell := range row {
			if size = ExtractSizeFromCell(cell); size != "" {
				break
			}
		}
	}

	qty := extractQuantityFromCell(cellAt(row, layout.index(colQuantity, len(row)-1)))
	if qty == 0 {
		for _, cell := range row {
			if qty = extractQuantityFromCell(cell); qty > 0 {
				break
			}
		}
	}
	if style == "" || qty <= 0 {
		return domain.LineItem{}, false
	}

	item := domain.LineItem{
		Style:       style,
		ColorCode:   color,
		Size:        size,
		Quantity:    decimal.NewFromInt(int64(qty)),
		ProductCode: productCode,
	}
	if i, ok := layout[colSize2]; ok {
		item.Size2 = ExtractSizeFromCell(cellAt(row, i))
	}
	if e.debug {
		e.logger.WithFields(logrus.Fields{
			"style": item.Style,
			"color": item.ColorCode,
			"size":  item.Size,
			"qty":   qty,
		}).Debug("row extracted")
	}
	return item, true
}

// itemsFromText scans raw page text for single-line ticket rows
func (e *WOItemExtractor) itemsFromText(text, productCode string) []domain.LineItem {
	var items []domain.LineItem
	for _, line := range nonEmptyLines(text) {
		m := woTextItemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[4])
		if err != nil || qty < minQuantity || qty > maxQuantity {
			continue
		}
		items = append(items, domain.LineItem{
			Style:       m[1],
			ColorCode:   m[2],
			Size:        m[3],
			Quantity:    decimal.NewFromInt(int64(qty)),
			ProductCode: productCode,
		})
	}
	return items
}

// extractQuantityFromCell returns the first integer token in [1, 9999], or 0
func extractQuantityFromCell(cell string) int {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0
	}
	for _, m := range quantityPattern.FindAllStringSubmatch(cell, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= minQuantity && n <= maxQuantity {
			return n
		}
	}
	return 0
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func nonEmptyCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
