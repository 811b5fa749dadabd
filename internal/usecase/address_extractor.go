package usecase

import (
	"regexp"
	"strings"
)

// Address markers and boilerplate
const (
	woDeliverToMarker     = "Deliver To:"
	woCustomerNameMarker  = "Customer Delivery Name"
	poDeliveryLocationTag = "Delivery Location:"
	poForwarderTag        = "Forwarder:"
)

var (
	deliverToPrefix      = regexp.MustCompile(`Deliver To:\s*`)
	woBoilerplatePattern = regexp.MustCompile(`(?i)PTK ENTERPRISES,\s*`)
	plotLinePattern      = regexp.MustCompile(`(?i)\b(plot|building)\s*#?\s*\d+`)
	indiaWordPattern     = regexp.MustCompile(`(?i)\bindia\b`)

	trailingIndiaPattern = regexp.MustCompile(`(?i),\s*,\s*India\s*$`)
	doubleCommaPattern   = regexp.MustCompile(`,,\s*`)
	commaSpacingPattern  = regexp.MustCompile(`\s*,\s*`)
	trailingCommaPattern = regexp.MustCompile(`,\s*$`)
)

// streetKeywords mark a line as part of an address rather than a label.
// They match anywhere in the lower-cased line, so "st" also hits "Eastern".
var streetKeywords = []string{
	"street", "st", "road", "rd", "avenue", "ave", "building", "block", "no", "#",
}

// addressStopKeywords end the fallback PO address scan
var addressStopKeywords = []string{"forwarder", "shipping", "invoice", "payment", "terms"}

// TruncateAddress cuts the boilerplate that follows the delivery address.
// Priority: after the first "Sri Lanka"; else after the second "India";
// else after the only "India"; else the whole text. Matching is
// case-insensitive. Applying it to its own output is a no-op.
func TruncateAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if strings.Contains(addr, "Plot#") && strings.Contains(addr, ",,") && strings.Count(addr, "India") >= 2 {
		addr = cleanWOAddress(addr)
	}

	lower := asciiLower(addr)
	if pos := strings.Index(lower, "sri lanka"); pos != -1 {
		return strings.TrimSpace(addr[:pos+len("sri lanka")])
	}

	positions := indexAll(lower, "india")
	switch {
	case len(positions) >= 2:
		return strings.TrimSpace(addr[:positions[1]+len("india")])
	case len(positions) == 1:
		return strings.TrimSpace(addr[:positions[0]+len("india")])
	}
	return strings.TrimSpace(addr)
}

// cleanWOAddress collapses the duplicated-comma artifacts some work orders
// carry and drops a dangling ", , India" suffix.
func cleanWOAddress(addr string) string {
	if addr == "" {
		return ""
	}
	addr = trailingIndiaPattern.ReplaceAllString(addr, "")
	addr = doubleCommaPattern.ReplaceAllString(addr, ", ")
	addr = commaSpacingPattern.ReplaceAllString(addr, ", ")
	addr = trailingCommaPattern.ReplaceAllString(addr, "")
	return strings.TrimSpace(addr)
}

// asciiLower lower-cases ASCII letters only, so byte offsets in the result
// line up with the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// indexAll returns every (possibly overlapping) index of sub in s
func indexAll(s, sub string) []int {
	var out []int
	for from := 0; from <= len(s); {
		i := strings.Index(s[from:], sub)
		if i == -1 {
			break
		}
		out = append(out, from+i)
		from += i + 1
	}
	return out
}

// extractWOAddress finds the "Deliver To:" line and returns the truncated
// delivery address plus the customer name when the preceding line is the
// "Customer Delivery Name" label.
func extractWOAddress(lines []string) (address, customerName string) {
	for i, ln := range lines {
		if !strings.Contains(ln, woDeliverToMarker) {
			continue
		}
		addrLine := strings.TrimSpace(deliverToPrefix.ReplaceAllString(ln, ""))
		if i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			switch {
			case strings.Contains(prev, woCustomerNameMarker):
				customerName = labelValue(prev, woCustomerNameMarker)
			case isAddressContinuation(prev):
				addrLine = prev + " " + addrLine
			}
		}
		address = TruncateAddress(addrLine)
		address = strings.TrimSpace(woBoilerplatePattern.ReplaceAllString(address, ""))
		return address, customerName
	}
	return "", ""
}

// isAddressContinuation reports whether a line before "Deliver To:" is part
// of the address: it has a digit, a street keyword, or more than three words.
func isAddressContinuation(line string) bool {
	if line == "" {
		return false
	}
	if strings.ContainsAny(line, "0123456789") {
		return true
	}
	if len(strings.Fields(line)) > 3 {
		return true
	}
	return containsAny(strings.ToLower(line), streetKeywords)
}

// labelValue returns the text after label on line, without a leading colon
func labelValue(line, label string) string {
	i := strings.Index(line, label)
	if i == -1 {
		return ""
	}
	v := strings.TrimSpace(line[i+len(label):])
	return strings.TrimSpace(strings.TrimPrefix(v, ":"))
}

// extractPOAddress returns the PO delivery location. It accumulates the lines
// after "Delivery Location:" until "Forwarder:" or two blank lines; without
// that marker it falls back to scanning forward from a plot/building line.
func extractPOAddress(lines []string) string {
	captured := captureDeliveryLocation(lines)
	if len(captured) == 0 {
		captured = capturePlotAddress(lines)
	}
	full := NormalizeText(strings.Join(captured, " "))
	return strings.TrimSpace(TruncateAddress(full))
}

func captureDeliveryLocation(lines []string) []string {
	var out []string
	capturing := false
	blanks := 0
	for _, ln := range lines {
		if strings.Contains(ln, poDeliveryLocationTag) {
			capturing = true
			continue
		}
		if !capturing {
			continue
		}
		if strings.Contains(ln, poForwarderTag) {
			break
		}
		if ln == "" {
			blanks++
			if blanks >= 2 {
				break
			}
			continue
		}
		blanks = 0
		out = append(out, ln)
	}
	return out
}

func capturePlotAddress(lines []string) []string {
	for i, ln := range lines {
		if !plotLinePattern.MatchString(ln) {
			continue
		}
		out := []string{ln}
		for _, next := range lines[i+1:] {
			if next == "" {
				continue
			}
			out = append(out, next)
			if indiaWordPattern.MatchString(next) {
				break
			}
			if containsAny(strings.ToLower(next), addressStopKeywords) {
				out = out[:len(out)-1]
				break
			}
		}
		return out
	}
	return nil
}

// containsAny reports whether s contains any of the substrings
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
