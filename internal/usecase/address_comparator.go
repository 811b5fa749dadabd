package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ticketcheck/backend/internal/domain"
)

// DefaultAddressThreshold is the score an address comparison must exceed
const DefaultAddressThreshold = 90.0

// AddressComparator scores the WO identity and address against the PO
// delivery location.
type AddressComparator struct {
	threshold float64
}

// NewAddressComparator creates a comparator; a threshold outside (0, 100]
// falls back to the default.
func NewAddressComparator(threshold float64) *AddressComparator {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultAddressThreshold
	}
	return &AddressComparator{threshold: threshold}
}

// Compare scores name-vs-location and address-vs-location and keeps the
// higher. The verdict requires a score strictly above the threshold.
func (c *AddressComparator) Compare(wo domain.WOFields, po domain.POFields) domain.AddressComparison {
	nameScore := TokenSortRatio(wo.CustomerName, po.DeliveryLocation)
	addrScore := TokenSortRatio(wo.DeliveryAddress, po.DeliveryLocation)
	overall := max(nameScore, addrScore)

	return domain.AddressComparison{
		WOName:       wo.CustomerName,
		WOAddress:    wo.DeliveryAddress,
		POAddress:    po.DeliveryLocation,
		NameScore:    nameScore,
		AddressScore: addrScore,
		OverallScore: overall,
		Threshold:    c.threshold,
		Match:        float64(overall) > c.threshold,
	}
}

// TokenSortRatio returns an order-independent similarity of a and b in
// [0, 100]: both lose non-ASCII runes, are lower-cased and stripped of
// punctuation other than "_", their tokens sorted, and the joined forms
// compared by indel similarity. Empty input scores 0.
func TokenSortRatio(a, b string) int {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if sa == "" || sb == "" {
		return 0
	}
	r1, r2 := []rune(sa), []rune(sb)
	total := len(r1) + len(r2)
	ratio := float64(total-indelDistance(r1, r2)) / float64(total)
	return int(math.RoundToEven(ratio * 100))
}

func sortedTokens(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r > unicode.MaxASCII:
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelDistance is the edit distance allowing insertions and deletions only
// (a substitution costs 2).
func indelDistance(r1, r2 []rune) int {
	m, n := len(r1), len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 2
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
