package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xiumachile/billpro/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// Margin is what is left of a selling price after cost. Amount may be
// negative. Nothing is rounded here.
type Margin struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// MarginOf computes the margin of price over cost. Percent is zero when the
// price is not positive.
func MarginOf(price, cost decimal.Decimal) Margin {
	amount := price.Sub(cost)
	return Margin{Amount: amount, Percent: percentOf(amount, price)}
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// Tier buckets a margin percent for display.
func Tier(percent decimal.Decimal) string {
	switch {
	case percent.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return "excellent"
	case percent.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return "good"
	case percent.GreaterThanOrEqual(decimal.NewFromInt(15)):
		return "fair"
	default:
		return "poor"
	}
}

// ComboItemSummary is one product line of a ComboSummary.
type ComboItemSummary struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Multiplicity int             `json:"multiplicity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Missing      bool            `json:"missing,omitempty"`
}

// ComboSummary compares a combo with buying its products separately.
type ComboSummary struct {
	ComboID        int64              `json:"combo_id"`
	Name           string             `json:"name"`
	SellingPrice   decimal.Decimal    `json:"selling_price"`
	ALaCarte       decimal.Decimal    `json:"a_la_carte"`
	Savings        decimal.Decimal    `json:"savings"`
	SavingsPercent decimal.Decimal    `json:"savings_percent"`
	UnitCost       decimal.Decimal    `json:"unit_cost"`
	Margin         Margin             `json:"margin"`
	Tier           string             `json:"tier"`
	Items          []ComboItemSummary `json:"items"`
	Notes          []Note             `json:"notes,omitempty"`
}

// ComboSummary costs combo from its current items.
func (c *Calculator) ComboSummary(combo *catalog.Combo) ComboSummary {
	s := ComboSummary{
		ALaCarte: decimal.Zero,
		Items:    make([]ComboItemSummary, 0),
	}
	if combo == nil {
		s.SellingPrice, s.UnitCost = decimal.Zero, decimal.Zero
		s.Margin = MarginOf(decimal.Zero, decimal.Zero)
		s.Savings, s.SavingsPercent = decimal.Zero, decimal.Zero
		s.Tier = Tier(decimal.Zero)
		return s
	}

	s.ComboID = combo.ID
	s.Name = combo.Name
	s.SellingPrice = Money(combo.SellingPrice)
	s.UnitCost, s.Notes = c.ItemsCost(combo.Items)

	for _, item := range combo.Items {
		n := Multiplicity(item.Multiplicity)
		row := ComboItemSummary{
			ProductID:    item.ProductID,
			Multiplicity: n,
			UnitCost:     decimal.Zero,
			UnitPrice:    decimal.Zero,
		}
		if p, ok := c.cat.Product(item.ProductID); ok {
			row.Name = p.Name
			row.UnitCost = c.ProductUnitCost(p)
			row.UnitPrice = Money(p.SellingPrice)
			s.ALaCarte = s.ALaCarte.Add(row.UnitPrice.Mul(decimal.NewFromInt(int64(n))))
		} else {
			row.Missing = true
		}
		s.Items = append(s.Items, row)
	}

	s.Savings = s.ALaCarte.Sub(s.SellingPrice)
	s.SavingsPercent = percentOf(s.Savings, s.ALaCarte)
	s.Margin = MarginOf(s.SellingPrice, s.UnitCost)
	s.Tier = Tier(s.Margin.Percent)
	return s
}
