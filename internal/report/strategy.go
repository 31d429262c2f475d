package report

import (
	"github.com/shopspring/decimal"

	"github.com/xiumachile/billpro/internal/pricing"
	"github.com/xiumachile/billpro/internal/sales"
)

// strategy decides where an order's revenue comes from. Cost is always
// built up line by line; only the revenue side differs.
type strategy interface {
	add(a *accumulator, o *sales.Order)
}

// headerStrategy takes revenue, tips and collections from the order header
// and costs every line.
type headerStrategy struct{}

func (headerStrategy) add(a *accumulator, o *sales.Order) {
	net := pricing.Money(o.GrossTotal).Sub(pricing.Money(o.Discount))
	tip := pricing.Money(o.Tip)
	a.order(o, net, tip, collected(o, net, tip))

	for _, li := range o.Items {
		a.item(o, li)
	}
	for _, cl := range o.Combos {
		a.combo(o, cl)
	}
}

// collected is the recorded amount paid, or net plus tip when none was
// recorded.
func collected(o *sales.Order, net, tip decimal.Decimal) decimal.Decimal {
	if o.TotalCollected != nil {
		if v := pricing.Money(*o.TotalCollected); v.IsPositive() {
			return v
		}
	}
	return net.Add(tip)
}

// lineStrategy re-derives revenue from the lines of one category. Header
// totals cannot be split by category, so tips are left out and the amount
// collected equals the matched line revenue. Orders without a matching line
// are skipped.
type lineStrategy struct {
	category int64
}

func (s lineStrategy) add(a *accumulator, o *sales.Order) {
	var items []sales.LineItem
	var combos []sales.ComboLine
	revenue := decimal.Zero

	for _, li := range o.Items {
		p, ok := a.cat.Product(li.ProductID)
		if !ok || !s.matches(p.CategoryID) {
			continue
		}
		items = append(items, li)
		revenue = revenue.Add(lineRevenue(li.UnitPrice, pricing.Quantity(li.Quantity)))
	}
	for _, cl := range o.Combos {
		cb, ok := a.cat.Combo(cl.ComboID)
		if !ok || !s.matches(cb.CategoryID) {
			continue
		}
		combos = append(combos, cl)
		revenue = revenue.Add(lineRevenue(cl.UnitPrice, pricing.Quantity(cl.Quantity)))
	}

	if len(items) == 0 && len(combos) == 0 {
		return
	}

	a.order(o, revenue, decimal.Zero, revenue)
	for _, li := range items {
		a.item(o, li)
	}
	for _, cl := range combos {
		a.combo(o, cl)
	}
}

func (s lineStrategy) matches(category *int64) bool {
	return category != nil && *category == s.category
}
