package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus is the reconciliation verdict of one MatchResult
type MatchStatus string

const (
	StatusFullMatch    MatchStatus = "Full Match"
	StatusPartialMatch MatchStatus = "Partial Match"
	StatusNoPOMatch    MatchStatus = "No PO Match"
	StatusExtraPOItem  MatchStatus = "Extra PO Item"
)

// MatchResult relates zero-or-one WO item to zero-or-one PO item
type MatchResult struct {
	Style       string              `json:"style"`
	Style2      string              `json:"style2"`
	WOSize      string              `json:"woSize"`
	POSize      string              `json:"poSize"`
	WOColorCode string              `json:"woColorCode"`
	POColorCode string              `json:"poColorCode"`
	WOQty       decimal.NullDecimal `json:"woQty"`
	POQty       decimal.NullDecimal `json:"poQty"`
	QtyMatch    bool                `json:"qtyMatch"`
	SizeMatch   bool                `json:"sizeMatch"`
	ColorMatch  bool                `json:"colorMatch"`
	StyleMatch  bool                `json:"styleMatch"`
	Diff        decimal.NullDecimal `json:"diff"`
	Status      MatchStatus         `json:"status"`
	POItemCode  string              `json:"poItemCode"`
}

// AddressComparison is the fuzzy comparison of the delivery addresses
type AddressComparison struct {
	WOName       string  `json:"woName"`
	WOAddress    string  `json:"woAddress"`
	POAddress    string  `json:"poAddress"`
	NameScore    int     `json:"nameScore"`
	AddressScore int     `json:"addressScore"`
	OverallScore int     `json:"overallScore"`
	Threshold    float64 `json:"threshold"`
	Match        bool    `json:"match"`
}

// CodeStatus classifies a product code across both documents
type CodeStatus string

const (
	CodeMatch        CodeStatus = "Match"
	CodeMissingInWO  CodeStatus = "Missing in WO"
	CodeMissingInPO  CodeStatus = "Missing in PO"
	CodeExactMatch   CodeStatus = "Exact Match"
	CodePartialMatch CodeStatus = "Partial Match"
	CodeNoMatch      CodeStatus = "No Match"
	CodeEmpty        CodeStatus = "Empty"
)

// CodeComparison is one row of the product code reconciliation
type CodeComparison struct {
	POCode string     `json:"poCode"`
	WOCode string     `json:"woCode"`
	Status CodeStatus `json:"status"`
}

// Satisfied reports whether the row counts as agreement
func (c CodeComparison) Satisfied() bool {
	switch c.Status {
	case CodeMatch, CodeExactMatch, CodePartialMatch:
		return true
	}
	return false
}

// Summary holds the scalar counts shown with a report
type Summary struct {
	WOItemCount    int `json:"woItemCount"`
	POItemCount    int `json:"poItemCount"`
	FullMatchCount int `json:"fullMatchCount"`
	MismatchCount  int `json:"mismatchCount"`
}

// Overall verdicts
const (
	VerdictPerfect    = "PERFECT MATCH!"
	VerdictNotPerfect = "NOT PERFECT"
)

// References are the identifying values a run is logged under
type References struct {
	ProductCode string `json:"productCode"`
	Reference   string `json:"reference"`
	PONumber    string `json:"poNumber"`
}

// Report is the assembled output of one reconciliation run
type Report struct {
	ID              string            `json:"id"`
	CreatedAt       time.Time         `json:"createdAt"`
	WODocument      string            `json:"woDocument"`
	PODocument      string            `json:"poDocument"`
	POFormat        POFormat          `json:"poFormat"`
	WOFields        WOFields          `json:"woFields"`
	POFields        POFields          `json:"poFields"`
	WOItems         []LineItem        `json:"woItems"`
	POItems         []LineItem        `json:"poItems"`
	Matched         []MatchResult     `json:"matched"`
	Unmatched       []MatchResult     `json:"unmatched"`
	Address         AddressComparison `json:"address"`
	Codes           []CodeComparison  `json:"codes"`
	PositionalCodes []CodeComparison  `json:"positionalCodes"`
	Summary         Summary           `json:"summary"`
	Verdict         string            `json:"verdict"`
	References      References        `json:"references"`
}

// Results returns matched rows followed by unmatched rows
func (r *Report) Results() []MatchResult {
	out := make([]MatchResult, 0, len(r.Matched)+len(r.Unmatched))
	out = append(out, r.Matched...)
	return append(out, r.Unmatched...)
}
