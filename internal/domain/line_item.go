package domain

import "github.com/shopspring/decimal"

// QuantityPrecision is the number of decimal places quantities are kept at
const QuantityPrecision = 4

// LineItem is one style/color/size/quantity row extracted from a document.
// On the PO side Style carries the supplier reference ("Style 2").
type LineItem struct {
	Style       string          `json:"style"`
	ColorCode   string          `json:"colorCode"`
	Size        string          `json:"size"`
	Size2       string          `json:"size2,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	ProductCode string          `json:"productCode"`
	ItemNumber  string          `json:"itemNumber,omitempty"`
	ItemCode    string          `json:"itemCode,omitempty"`
}

// ItemKey is the identity of a line item within one document
type ItemKey struct {
	Size      string
	ColorCode string
	Style     string
}

// Key returns the aggregation identity of the item
func (i LineItem) Key() ItemKey {
	return ItemKey{Size: i.Size, ColorCode: i.ColorCode, Style: i.Style}
}

// WOFields are the header fields extracted from a work order
type WOFields struct {
	CustomerName    string   `json:"customerName"`
	DeliveryAddress string   `json:"deliveryAddress"`
	ProductCodes    []string `json:"productCodes"`
	PONumbers       []string `json:"poNumbers"`
	Warnings        []string `json:"warnings,omitempty"`
}

// POFields are the header fields extracted from a purchase order
type POFields struct {
	DeliveryLocation string   `json:"deliveryLocation"`
	ProductCodes     []string `json:"productCodes"`
	PONumber         string   `json:"poNumber"`
	StyleNumbers     []string `json:"styleNumbers"`
	Warnings         []string `json:"warnings,omitempty"`
}

// POFormat is the detected sub-format of a purchase order
type POFormat string

const (
	POFormatTicket   POFormat = "ticket"
	POFormatOriginal POFormat = "original"
)
