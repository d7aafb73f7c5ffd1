package gst

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// Breakdown is the tax split of one amount or of a whole sale.
type Breakdown struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	CGST        decimal.Decimal `json:"cgst"`
	SGST        decimal.Decimal `json:"sgst"`
	IGST        decimal.Decimal `json:"igst"`
	TotalGST    decimal.Decimal `json:"total_gst"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Rate        decimal.Decimal `json:"gst_rate"`
	Interstate  bool            `json:"interstate"`
}

// Applicable returns the tax components that apply to the place of supply:
// IGST for interstate supply, CGST plus SGST otherwise.
func (b Breakdown) Applicable() map[string]decimal.Decimal {
	if b.Interstate {
		return map[string]decimal.Decimal{"igst": b.IGST}
	}
	return map[string]decimal.Decimal{"cgst": b.CGST, "sgst": b.SGST}
}

// Value implements driver.Valuer
func (b Breakdown) Value() (driver.Value, error) {
	return jsonValue(b)
}

// Scan implements sql.Scanner
func (b *Breakdown) Scan(value interface{}) error {
	return jsonScan(value, b)
}

// LineBreakdown is the tax split of one sale line.
type LineBreakdown struct {
	Breakdown
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Value implements driver.Valuer
func (l LineBreakdown) Value() (driver.Value, error) {
	return jsonValue(l)
}

// Scan implements sql.Scanner
func (l *LineBreakdown) Scan(value interface{}) error {
	return jsonScan(value, l)
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("gst: unsupported type for breakdown column")
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}
