package usecase

import (
	"sort"
	"strings"

	"github.com/ticketcheck/backend/internal/domain"
)

// itemCodes returns the trimmed, upper-cased non-empty product codes of the
// items in item order.
func itemCodes(items []domain.LineItem) []string {
	var out []string
	for _, item := range items {
		if c := strings.ToUpper(strings.TrimSpace(item.ProductCode)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// CompareCodeSets classifies every code in the union of both documents'
// item codes. Rows are ordered by code.
func CompareCodeSets(woItems, poItems []domain.LineItem) []domain.CodeComparison {
	woSet := make(map[string]bool)
	for _, c := range itemCodes(woItems) {
		woSet[c] = true
	}
	poSet := make(map[string]bool)
	for _, c := range itemCodes(poItems) {
		poSet[c] = true
	}

	union := make([]string, 0, len(woSet)+len(poSet))
	for c := range poSet {
		union = append(union, c)
	}
	for c := range woSet {
		if !poSet[c] {
			union = append(union, c)
		}
	}
	sort.Strings(union)

	rows := make([]domain.CodeComparison, 0, len(union))
	for _, c := range union {
		row := domain.CodeComparison{}
		inPO, inWO := poSet[c], woSet[c]
		if inPO {
			row.POCode = c
		}
		if inWO {
			row.WOCode = c
		}
		switch {
		case inPO && inWO:
			row.Status = domain.CodeMatch
		case inPO:
			row.Status = domain.CodeMissingInWO
		default:
			row.Status = domain.CodeMissingInPO
		}
		rows = append(rows, row)
	}
	return rows
}

// CompareCodesByPosition pairs the i-th PO item code with the i-th WO item
// code. A slash-separated WO code is an exact match when any alternative
// equals the PO code; a slash-separated PO code is a partial match when any
// alternative equals the WO code.
func CompareCodesByPosition(woItems, poItems []domain.LineItem) []domain.CodeComparison {
	po, wo := itemCodes(poItems), itemCodes(woItems)
	n := max(len(po), len(wo))

	rows := make([]domain.CodeComparison, 0, n)
	for i := 0; i < n; i++ {
		var pc, wc string
		if i < len(po) {
			pc = po[i]
		}
		if i < len(wo) {
			wc = wo[i]
		}
		rows = append(rows, domain.CodeComparison{POCode: pc, WOCode: wc, Status: positionalStatus(pc, wc)})
	}
	return rows
}

func positionalStatus(po, wo string) domain.CodeStatus {
	switch {
	case po == "" || wo == "":
		return domain.CodeEmpty
	case po == wo:
		return domain.CodeExactMatch
	case strings.Contains(wo, "/"):
		if containsCode(splitAlternatives(wo), po) {
			return domain.CodeExactMatch
		}
		return domain.CodeNoMatch
	case strings.Contains(po, "/"):
		if containsCode(splitAlternatives(po), wo) {
			return domain.CodePartialMatch
		}
		return domain.CodeNoMatch
	default:
		return domain.CodeNoMatch
	}
}

func splitAlternatives(code string) []string {
	parts := strings.Split(code, "/")
	for i, p := range parts {
		parts[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return parts
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// codesSatisfied reports whether there is at least one row and every row
// counts as agreement.
func codesSatisfied(rows []domain.CodeComparison) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !r.Satisfied() {
			return false
		}
	}
	return true
}
