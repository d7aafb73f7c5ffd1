// Package gst computes Indian Goods and Services Tax breakdowns.
//
// Every function here is pure. Amounts are shopspring decimals and every
// monetary output is rounded to two places, half away from zero.
package gst

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept on monetary outputs.
const MoneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
	one     = decimal.NewFromInt(1)
)

// DefaultRate is the rate applied when a caller does not supply one.
var DefaultRate = decimal.NewFromInt(18)

// Slabs are the standard GST rates.
var Slabs = []decimal.Decimal{
	decimal.Zero,
	decimal.NewFromInt(5),
	decimal.NewFromInt(12),
	decimal.NewFromInt(18),
	decimal.NewFromInt(28),
}

// Round rounds a monetary value to MoneyPlaces.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Calculate returns the breakdown for amount at rate percent.
// When inclusive is true, amount already contains the tax.
func Calculate(amount, rate decimal.Decimal, inclusive bool) Breakdown {
	return CalculateWithSupply(amount, rate, inclusive, false)
}

// CalculateWithSupply is Calculate with the place-of-supply recorded.
// CGST, SGST and IGST are populated either way.
func CalculateWithSupply(amount, rate decimal.Decimal, inclusive, interstate bool) Breakdown {
	rateFraction := rate.Div(hundred)

	var base, totalGST decimal.Decimal
	if inclusive {
		base = amount.Div(one.Add(rateFraction))
		totalGST = amount.Sub(base)
	} else {
		base = amount
		totalGST = base.Mul(rateFraction)
	}

	half := totalGST.Div(two)

	return Breakdown{
		BaseAmount:  Round(base),
		CGST:        Round(half),
		SGST:        Round(half),
		IGST:        Round(totalGST),
		TotalGST:    Round(totalGST),
		TotalAmount: Round(base.Add(totalGST)),
		Rate:        rate,
		Interstate:  interstate,
	}
}

// CalculateLineItem computes the tax for qty units at unitPrice less discount.
// Tax is always added on top of the discounted amount.
func CalculateLineItem(qty int64, unitPrice, discount, rate decimal.Decimal) LineBreakdown {
	subtotal := decimal.NewFromInt(qty).Mul(unitPrice)
	taxable := subtotal.Sub(discount)

	b := Calculate(taxable, rate, false)

	return LineBreakdown{
		Breakdown: b,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Subtotal:  Round(subtotal),
		Discount:  discount,
		LineTotal: b.TotalAmount,
	}
}

// Aggregate sums the breakdowns field by field and rounds the sums.
// The aggregate keeps a rate only when every line shares it.
func Aggregate(lines []Breakdown) Breakdown {
	agg := Breakdown{
		BaseAmount:  decimal.Zero,
		CGST:        decimal.Zero,
		SGST:        decimal.Zero,
		IGST:        decimal.Zero,
		TotalGST:    decimal.Zero,
		TotalAmount: decimal.Zero,
		Rate:        decimal.Zero,
	}

	for i, l := range lines {
		agg.BaseAmount = agg.BaseAmount.Add(l.BaseAmount)
		agg.CGST = agg.CGST.Add(l.CGST)
		agg.SGST = agg.SGST.Add(l.SGST)
		agg.IGST = agg.IGST.Add(l.IGST)
		agg.TotalGST = agg.TotalGST.Add(l.TotalGST)
		agg.TotalAmount = agg.TotalAmount.Add(l.TotalAmount)

		switch {
		case i == 0:
			agg.Rate = l.Rate
			agg.Interstate = l.Interstate
		case !agg.Rate.Equal(l.Rate):
			agg.Rate = decimal.Zero
		}
		if l.Interstate != agg.Interstate {
			agg.Interstate = false
		}
	}

	agg.BaseAmount = Round(agg.BaseAmount)
	agg.CGST = Round(agg.CGST)
	agg.SGST = Round(agg.SGST)
	agg.IGST = Round(agg.IGST)
	agg.TotalGST = Round(agg.TotalGST)
	agg.TotalAmount = Round(agg.TotalAmount)
	return agg
}

// AggregateLines aggregates line breakdowns.
func AggregateLines(lines []LineBreakdown) Breakdown {
	bs := make([]Breakdown, len(lines))
	for i, l := range lines {
		bs[i] = l.Breakdown
	}
	return Aggregate(bs)
}

// IsValidRate reports whether rate is a usable percentage.
func IsValidRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// IsSlab reports whether rate is one of the standard slabs.
func IsSlab(rate decimal.Decimal) bool {
	for _, s := range Slabs {
		if s.Equal(rate) {
			return true
		}
	}
	return false
}
