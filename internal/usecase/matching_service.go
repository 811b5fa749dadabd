package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/internal/domain"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	QuantityTolerance  decimal.Decimal
	EnableDebugLogging bool
}

// MatchingService reconciles WO line items against a pool of PO line items.
// It is a greedy single pass: exact counterparts are taken first, otherwise
// the best partial-credit PO item still available is claimed.
type MatchingService struct {
	quantityTolerance  decimal.Decimal
	enableDebugLogging bool
	logger             logrus.FieldLogger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger logrus.FieldLogger) *MatchingService {
	tolerance := config.QuantityTolerance
	if tolerance.IsNegative() {
		tolerance = decimal.Zero // Default exact quantity comparison
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &MatchingService{
		quantityTolerance:  tolerance,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger.WithField("component", "matcher"),
	}
}

// matchKey is a line item reduced to the form fields are compared in
type matchKey struct {
	size  string
	color string
	style string
	qty   decimal.Decimal
	code  string
}

func newMatchKey(item domain.LineItem) matchKey {
	return matchKey{
		size:  CleanSize(item.Size),
		color: strings.ToUpper(strings.TrimSpace(item.ColorCode)),
		style: strings.TrimSpace(item.Style),
		qty:   item.Quantity,
		code:  item.ItemCode,
	}
}

// Match pairs every WO item with at most one PO item. It returns the matched
// rows (Full and Partial) and the unmatched rows (No PO Match and Extra PO
// Item), each ordered by size rank. Every PO item is used at most once.
func (s *MatchingService) Match(
	ctx context.Context,
	woItems, poItems []domain.LineItem,
) (matched, unmatched []domain.MatchResult, err error) {
	po := make([]matchKey, len(poItems))
	for i, item := range poItems {
		po[i] = newMatchKey(item)
	}
	used := make([]bool, len(po))

	for _, item := range woItems {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		wo := newMatchKey(item)

		if idx := s.findExact(wo, po, used); idx >= 0 {
			used[idx] = true
			matched = append(matched, s.fullMatch(wo, po[idx]))
			continue
		}

		if idx, score := s.findBestPartial(wo, po, used); idx >= 0 {
			used[idx] = true
			matched = append(matched, s.partialMatch(wo, po[idx]))
			if s.enableDebugLogging {
				s.logger.WithFields(logrus.Fields{
					"style": wo.style,
					"size":  wo.size,
					"color": wo.color,
					"score": score,
				}).Debug("partial match")
			}
			continue
		}

		unmatched = append(unmatched, noPOMatch(wo))
	}

	for i, p := range po {
		if !used[i] {
			unmatched = append(unmatched, extraPOItem(p))
		}
	}

	SortResultsBySize(matched)
	SortResultsBySize(unmatched)

	if s.enableDebugLogging {
		s.logger.WithFields(logrus.Fields{
			"matched":   len(matched),
			"unmatched": len(unmatched),
		}).Debug("matching complete")
	}
	return matched, unmatched, nil
}

// findExact returns the first unused PO item agreeing on all four fields
func (s *MatchingService) findExact(wo matchKey, po []matchKey, used []bool) int {
	for i, p := range po {
		if used[i] {
			continue
		}
		if wo.qty.Equal(p.qty) && wo.size == p.size && wo.color == p.color && wo.style == p.style {
			return i
		}
	}
	return -1
}

// findBestPartial scores every unused PO item and returns the strictly
// highest one; ties keep the first scanned. Returns -1 when the pool is empty.
func (s *MatchingService) findBestPartial(wo matchKey, po []matchKey, used []bool) (int, int) {
	best, bestScore := -1, -1
	for i, p := range po {
		if used[i] {
			continue
		}
		if score := s.calculateMatchScore(wo, p); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

// calculateMatchScore counts the agreeing fields, 0 to 4
func (s *MatchingService) calculateMatchScore(wo, po matchKey) int {
	score := 0
	if s.qtyWithinTolerance(wo.qty, po.qty) {
		score++
	}
	if wo.size == po.size {
		score++
	}
	if wo.color == po.color {
		score++
	}
	if wo.style == po.style {
		score++
	}
	return score
}

func (s *MatchingService) qtyWithinTolerance(wo, po decimal.Decimal) bool {
	return po.Sub(wo).Abs().LessThanOrEqual(s.quantityTolerance)
}

func (s *MatchingService) fullMatch(wo, po matchKey) domain.MatchResult {
	return domain.MatchResult{
		Style:       wo.style,
		Style2:      po.style,
		WOSize:      wo.size,
		POSize:      po.size,
		WOColorCode: wo.color,
		POColorCode: po.color,
		WOQty:       decimal.NewNullDecimal(wo.qty),
		POQty:       decimal.NewNullDecimal(po.qty),
		QtyMatch:    true,
		SizeMatch:   true,
		ColorMatch:  true,
		StyleMatch:  true,
		Diff:        decimal.NewNullDecimal(decimal.Zero),
		Status:      domain.StatusFullMatch,
		POItemCode:  po.code,
	}
}

func (s *MatchingService) partialMatch(wo, po matchKey) domain.MatchResult {
	return domain.MatchResult{
		Style:       wo.style,
		Style2:      po.style,
		WOSize:      wo.size,
		POSize:      po.size,
		WOColorCode: wo.color,
		POColorCode: po.color,
		WOQty:       decimal.NewNullDecimal(wo.qty),
		POQty:       decimal.NewNullDecimal(po.qty),
		QtyMatch:    s.qtyWithinTolerance(wo.qty, po.qty),
		SizeMatch:   wo.size == po.size,
		ColorMatch:  wo.color == po.color,
		StyleMatch:  wo.style == po.style,
		Diff:        decimal.NewNullDecimal(po.qty.Sub(wo.qty)),
		Status:      domain.StatusPartialMatch,
		POItemCode:  po.code,
	}
}

func noPOMatch(wo matchKey) domain.MatchResult {
	return domain.MatchResult{
		Style:       wo.style,
		WOSize:      wo.size,
		WOColorCode: wo.color,
		WOQty:       decimal.NewNullDecimal(wo.qty),
		Status:      domain.StatusNoPOMatch,
	}
}

func extraPOItem(po matchKey) domain.MatchResult {
	return domain.MatchResult{
		Style2:      po.style,
		POSize:      po.size,
		POColorCode: po.color,
		POQty:       decimal.NewNullDecimal(po.qty),
		Status:      domain.StatusExtraPOItem,
		POItemCode:  po.code,
	}
}

// SortResultsBySize orders rows by the rank of their WO size, or the PO size
// for rows without a WO side. The sort is stable.
func SortResultsBySize(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return resultSizeRank(results[i]) < resultSizeRank(results[j])
	})
}

func resultSizeRank(r domain.MatchResult) int {
	if r.WOSize != "" {
		return SizeRank(r.WOSize)
	}
	return SizeRank(r.POSize)
}

// SortItemsBySize stably orders line items by size rank
func SortItemsBySize(items []domain.LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return SizeRank(items[i].Size) < SizeRank(items[j].Size)
	})
}
