package usecase

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/internal/domain"
)

const (
	ticketMarker        = "TAG.PRC.TKT_"
	ticketColorLabel    = "Color/Size/Destination :"
	originalColorLabel  = "Colour/Size/Destination:"
	itemDescriptionMark = "Item Description"

	ticketLookahead   = 4
	originalLookahead = 9
)

var (
	ticketItemPattern          = regexp.MustCompile(`^(\d+)\s+TAG\.PRC\.TKT_.*?([\d,]+\.\d+)\s+PCS`)
	originalStrictItemPattern  = regexp.MustCompile(`^(\d+)\s+([A-Z0-9]+)\s+(\d+)\s+([\d,]+\.\d+)\s+PCS`)
	originalRelaxedItemPattern = regexp.MustCompile(`^(\d+)\s+([A-Z0-9]+)\b.*?([\d,]+(?:\.\d+)?)\s+PCS`)
	firstTokenPattern          = regexp.MustCompile(`^(\S+)`)
	slashSegmentPattern        = regexp.MustCompile(`/\s*([^/]+)\s*/`)
)

// DetectPOFormat picks the extraction path for a purchase order. The ticket
// path runs only when the ticket fingerprint holds and the original one does
// not.
func DetectPOFormat(text string) domain.POFormat {
	hasTicket := strings.Contains(text, ticketMarker) && strings.Contains(text, ticketColorLabel)
	hasOriginal := strings.Contains(text, originalColorLabel) || supRefPattern.MatchString(text)
	if hasTicket && !hasOriginal {
		return domain.POFormatTicket
	}
	return domain.POFormatOriginal
}

// poFormatExtractor reads the raw (pre-aggregation) items of one PO format
type poFormatExtractor func(lines []string, text, style string) []domain.LineItem

var poFormatExtractors = map[domain.POFormat]poFormatExtractor{
	domain.POFormatTicket:   extractTicketItems,
	domain.POFormatOriginal: extractOriginalItems,
}

// POItemExtractor recovers line items from a purchase order
type POItemExtractor struct {
	logger logrus.FieldLogger
	debug  bool
}

// NewPOItemExtractor creates a PO line-item extractor
func NewPOItemExtractor(logger logrus.FieldLogger, debug bool) *POItemExtractor {
	if logger == nil {
		logger = discardLogger()
	}
	return &POItemExtractor{logger: logger.WithField("component", "po_items"), debug: debug}
}

// Extract returns the detected format and the aggregated PO items. Every item
// carries the same style: styleOverride when set, otherwise the first number
// of the document's style annotation.
func (e *POItemExtractor) Extract(doc *domain.Document, styleOverride string) (domain.POFormat, []domain.LineItem) {
	if doc == nil {
		return domain.POFormatOriginal, nil
	}
	lines := nonEmptyLines(doc.Text())
	text := strings.Join(lines, "\n")

	style := strings.TrimSpace(styleOverride)
	if style == "" {
		if styles := ExtractStyleNumbers(doc); len(styles) > 0 {
			style = styles[0]
		}
	}

	format := DetectPOFormat(text)
	items := poFormatExtractors[format](lines, text, style)
	if e.debug {
		e.logger.WithFields(logrus.Fields{
			"format": format,
			"style":  style,
			"raw":    len(items),
		}).Debug("po items extracted")
	}
	return format, AggregateItems(items)
}

func extractTicketItems(lines []string, text, style string) []domain.LineItem {
	productCode := ""
	if m := tagCodePattern.FindStringSubmatch(text); m != nil {
		productCode = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(m[1])), "-", " ")
	}

	var items []domain.LineItem
	for i, line := range lines {
		m := ticketItemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, ok := parsePOQuantity(m[2])
		if !ok {
			continue
		}

		var color, size string
		for j := i + 1; j < len(lines) && j <= i+ticketLookahead; j++ {
			if !strings.Contains(lines[j], ticketColorLabel) {
				continue
			}
			color, size = parseTicketColorSize(labelRemainder(lines[j]))
			break
		}

		items = append(items, domain.LineItem{
			Style:       style,
			ColorCode:   strings.ToUpper(color),
			Size:        size,
			Quantity:    qty,
			ProductCode: productCode,
			ItemNumber:  m[1],
			ItemCode:    "TAG_" + productCode,
		})
	}
	return items
}

// parseTicketColorSize reads "COLOUR desc / SIZE / DEST" or "SIZE / COLOUR desc / DEST"
func parseTicketColorSize(value string) (color, size string) {
	var parts []string
	for _, p := range strings.Split(value, " / ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) >= 2 {
		if isSizeKeyword(parts[0]) {
			size = strings.ToUpper(parts[0])
			color = firstWord(parts[1])
		} else {
			color = firstWord(parts[0])
			size = strings.ToUpper(parts[1])
		}
	}
	if s := sizeBeforeLastSlash(value); s != "" {
		size = s
	}
	return color, size
}

func extractOriginalItems(lines []string, text, style string) []domain.LineItem {
	productCode := ""
	if m := supRefPattern.FindStringSubmatch(text); m != nil {
		productCode = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(m[1])), "-", " ")
	}
	if productCode == "" {
		productCode = descriptionTagCode(lines)
	}

	var items []domain.LineItem
	for i, line := range lines {
		var itemNo, itemCode, qtyToken string
		if m := originalStrictItemPattern.FindStringSubmatch(line); m != nil {
			itemNo, itemCode, qtyToken = m[1], m[2], m[4]
		} else if m := originalRelaxedItemPattern.FindStringSubmatch(line); m != nil {
			itemNo, itemCode, qtyToken = m[1], m[2], m[3]
		} else {
			continue
		}
		qty, ok := parsePOQuantity(qtyToken)
		if !ok {
			continue
		}

		var color, size string
		for j := i + 1; j < len(lines) && j <= i+originalLookahead; j++ {
			ln := lines[j]
			if color != "" || !(strings.Contains(ln, originalColorLabel) || strings.Contains(ln, ticketColorLabel)) {
				continue
			}
			color, size = parseOriginalColorSize(labelRemainder(ln))
		}

		items = append(items, domain.LineItem{
			Style:       style,
			ColorCode:   strings.ToUpper(strings.TrimSpace(color)),
			Size:        strings.ToUpper(strings.TrimSpace(size)),
			Quantity:    qty,
			ProductCode: productCode,
			ItemNumber:  itemNo,
			ItemCode:    itemCode,
		})
	}
	return items
}

// parseOriginalColorSize handles "SIZE|x / COLOUR ... / DEST" and
// "COLOUR ... / SIZE / DEST"
func parseOriginalColorSize(value string) (color, size string) {
	var parts []string
	for _, p := range strings.Split(value, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		sizePart := strings.ToUpper(strings.TrimSpace(strings.SplitN(parts[0], "|", 2)[0]))
		if isSizeKeyword(sizePart) {
			size = sizePart
			if len(parts) > 1 {
				color = strings.ToUpper(firstWord(parts[1]))
			}
		} else {
			if m := firstTokenPattern.FindStringSubmatch(value); m != nil {
				color = m[1]
			}
			if m := slashSegmentPattern.FindStringSubmatch(value); m != nil {
				size = strings.TrimSpace(m[1])
			}
		}
	}
	if s := sizeBeforeLastSlash(value); s != "" {
		size = s
	}
	return color, size
}

// sizeBeforeLastSlash returns the last size keyword among the tokens before
// the final "/", or "".
func sizeBeforeLastSlash(value string) string {
	i := strings.LastIndex(value, "/")
	if i == -1 {
		return ""
	}
	tokens := strings.Fields(value[:i])
	for k := len(tokens) - 1; k >= 0; k-- {
		if isSizeKeyword(tokens[k]) {
			return strings.ToUpper(tokens[k])
		}
	}
	return ""
}

// descriptionTagCode returns the TAG code two lines below "Item Description"
func descriptionTagCode(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(line, itemDescriptionMark) {
			continue
		}
		if i+2 < len(lines) {
			if m := tagCodePattern.FindStringSubmatch(lines[i+2]); m != nil {
				return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(m[1])), "-", " ")
			}
		}
		return ""
	}
	return ""
}

// parsePOQuantity parses "1,148.0000" style tokens rounded to four places.
// A token that does not parse skips the item.
func parsePOQuantity(token string) (decimal.Decimal, bool) {
	token = strings.ReplaceAll(strings.TrimSpace(token), ",", "")
	if token == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(domain.QuantityPrecision), true
}

// labelRemainder returns the text after the first ":" of a labelled line
func labelRemainder(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
