// Package report rolls settled orders up into sales, cost and margin totals.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xiumachile/billpro/internal/catalog"
	"github.com/xiumachile/billpro/internal/pricing"
	"github.com/xiumachile/billpro/internal/sales"
)

// Filters narrows a report. Nil fields do not filter.
type Filters struct {
	SellerID   *int64
	CategoryID *int64
}

// ProductRank is one row of the units-sold ranking. Combos rank alongside
// products.
type ProductRank struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Combo   bool            `json:"combo"`
	Units   float64         `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
}

// SellerRank is one row of the revenue ranking. ID is zero for orders with
// no seller.
type SellerRank struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// Result is a finished report. Amounts are unrounded.
type Result struct {
	From                     string                     `json:"from"`
	To                       string                     `json:"to"`
	NetSales                 decimal.Decimal            `json:"net_sales"`
	Tips                     decimal.Decimal            `json:"tips"`
	TotalCollected           decimal.Decimal            `json:"total_collected"`
	TotalCost                decimal.Decimal            `json:"total_cost"`
	GrossProfit              decimal.Decimal            `json:"gross_profit"`
	MarginPercent            decimal.Decimal            `json:"margin_percent"`
	CollectedByPaymentMethod map[string]decimal.Decimal `json:"collected_by_payment_method"`
	NetSalesByChannel        map[string]decimal.Decimal `json:"net_sales_by_channel"`
	OrderCount               int                        `json:"order_count"`
	ProductRanking           []ProductRank              `json:"product_ranking"`
	SellerRanking            []SellerRank               `json:"seller_ranking"`
	UnreliableConversions    int                        `json:"unreliable_conversions"`
	Notes                    []pricing.Note             `json:"notes"`
}

// Build filters orders to the range and filters and aggregates them. It
// never fails: lines that reference unknown catalog entries cost zero and
// leave a note.
func Build(cat *catalog.Catalog, orders []sales.Order, rng DateRange, f Filters) Result {
	if cat == nil {
		cat = catalog.New(catalog.Snapshot{})
	}
	acc := newAccumulator(cat)

	var st strategy = headerStrategy{}
	if f.CategoryID != nil {
		st = lineStrategy{category: *f.CategoryID}
	}

	for i := range orders {
		o := &orders[i]
		if !o.Status.Reportable() || !rng.Contains(o.Date) {
			continue
		}
		if f.SellerID != nil && (o.Seller == nil || o.Seller.ID != *f.SellerID) {
			continue
		}
		st.add(acc, o)
	}

	return acc.result(rng)
}

// Sellers lists the distinct sellers of orders in first-seen order.
func Sellers(orders []sales.Order) []sales.Seller {
	seen := make(map[int64]bool)
	out := make([]sales.Seller, 0)
	for _, o := range orders {
		if o.Seller == nil || seen[o.Seller.ID] {
			continue
		}
		seen[o.Seller.ID] = true
		out = append(out, *o.Seller)
	}
	return out
}

type rankKey struct {
	combo bool
	id    int64
}

// accumulator holds the running totals of one Build call.
type accumulator struct {
	cat  *catalog.Catalog
	calc *pricing.Calculator

	netSales, tips, collected, cost decimal.Decimal
	byPayment, byChannel            map[string]decimal.Decimal
	orders                          int
	unreliable                      int

	products   []ProductRank
	productIdx map[rankKey]int
	sellers    []SellerRank
	sellerIdx  map[int64]int
	notes      []pricing.Note
	noteSeen   map[pricing.Note]bool
}

func newAccumulator(cat *catalog.Catalog) *accumulator {
	return &accumulator{
		cat:        cat,
		calc:       pricing.NewCalculator(cat, pricing.NewMemo(cat.Version())),
		netSales:   decimal.Zero,
		tips:       decimal.Zero,
		collected:  decimal.Zero,
		cost:       decimal.Zero,
		byPayment:  make(map[string]decimal.Decimal),
		byChannel:  make(map[string]decimal.Decimal),
		products:   make([]ProductRank, 0),
		productIdx: make(map[rankKey]int),
		sellers:    make([]SellerRank, 0),
		sellerIdx:  make(map[int64]int),
		notes:      make([]pricing.Note, 0),
		noteSeen:   make(map[pricing.Note]bool),
	}
}

// order books the order-level figures of one counted order.
func (a *accumulator) order(o *sales.Order, net, tip, collected decimal.Decimal) {
	a.orders++
	a.netSales = a.netSales.Add(net)
	a.tips = a.tips.Add(tip)
	a.collected = a.collected.Add(collected)
	addTo(a.byPayment, PaymentLabel(o), collected)
	addTo(a.byChannel, ChannelLabel(o), net)

	var id int64
	if o.Seller != nil {
		id = o.Seller.ID
	}
	i, ok := a.sellerIdx[id]
	if !ok {
		i = len(a.sellers)
		a.sellerIdx[id] = i
		a.sellers = append(a.sellers, SellerRank{ID: id, Name: SellerLabel(o), Revenue: decimal.Zero})
	}
	a.sellers[i].Revenue = a.sellers[i].Revenue.Add(net)
	a.sellers[i].Orders++
}

// item costs a product line and ranks it.
func (a *accumulator) item(o *sales.Order, li sales.LineItem) {
	p, ok := a.cat.Product(li.ProductID)
	if !ok {
		a.note(pricing.Note{
			Code:    pricing.NoteMissingProduct,
			Subject: fmt.Sprintf("order %d", o.ID),
			Detail:  fmt.Sprintf("product %d not found", li.ProductID),
		})
		return
	}
	qty := pricing.Quantity(li.Quantity)
	pc := a.calc.ProductCost(p)
	a.lineNotes(pc.Notes)
	a.rank(rankKey{id: p.ID}, p.Name, qty, lineRevenue(li.UnitPrice, qty), pc.UnitCost.Mul(decimal.NewFromFloat(qty)))
}

// combo costs a combo line from its snapshot when it has one.
func (a *accumulator) combo(o *sales.Order, cl sales.ComboLine) {
	qty := pricing.Quantity(cl.Quantity)
	cb, known := a.cat.Combo(cl.ComboID)

	items := cl.Snapshot
	if items == nil && known {
		items = cb.Items
	}
	unitCost, notes := a.calc.ItemsCost(items)
	a.lineNotes(notes)
	cost := unitCost.Mul(decimal.NewFromFloat(qty))

	if !known {
		a.note(pricing.Note{
			Code:    pricing.NoteMissingCombo,
			Subject: fmt.Sprintf("order %d", o.ID),
			Detail:  fmt.Sprintf("combo %d not found", cl.ComboID),
		})
		a.cost = a.cost.Add(cost)
		return
	}
	a.rank(rankKey{combo: true, id: cb.ID}, cb.Name, qty, lineRevenue(cl.UnitPrice, qty), cost)
}

func (a *accumulator) rank(key rankKey, name string, qty float64, revenue, cost decimal.Decimal) {
	a.cost = a.cost.Add(cost)
	i, ok := a.productIdx[key]
	if !ok {
		i = len(a.products)
		a.productIdx[key] = i
		a.products = append(a.products, ProductRank{ID: key.id, Name: name, Combo: key.combo, Revenue: decimal.Zero, Cost: decimal.Zero})
	}
	r := &a.products[i]
	r.Units += qty
	r.Revenue = r.Revenue.Add(revenue)
	r.Cost = r.Cost.Add(cost)
}

// lineNotes records the notes of one costed line and counts the line as
// unreliable when any conversion behind it was a passthrough.
func (a *accumulator) lineNotes(notes []pricing.Note) {
	unreliable := false
	for _, n := range notes {
		if n.Code == pricing.NoteUnreliableConversion {
			unreliable = true
		}
		a.note(n)
	}
	if unreliable {
		a.unreliable++
	}
}

func (a *accumulator) note(n pricing.Note) {
	if a.noteSeen[n] {
		return
	}
	a.noteSeen[n] = true
	a.notes = append(a.notes, n)
}

func (a *accumulator) result(rng DateRange) Result {
	sort.SliceStable(a.products, func(i, j int) bool {
		return a.products[i].Units > a.products[j].Units
	})
	sort.SliceStable(a.sellers, func(i, j int) bool {
		return a.sellers[i].Revenue.GreaterThan(a.sellers[j].Revenue)
	})

	m := pricing.MarginOf(a.netSales, a.cost)
	return Result{
		From:                     rng.From.Format(dayLayout),
		To:                       rng.To.Format(dayLayout),
		NetSales:                 a.netSales,
		Tips:                     a.tips,
		TotalCollected:           a.collected,
		TotalCost:                a.cost,
		GrossProfit:              m.Amount,
		MarginPercent:            m.Percent,
		CollectedByPaymentMethod: a.byPayment,
		NetSalesByChannel:        a.byChannel,
		OrderCount:               a.orders,
		ProductRanking:           a.products,
		SellerRanking:            a.sellers,
		UnreliableConversions:    a.unreliable,
		Notes:                    a.notes,
	}
}

func lineRevenue(unitPrice, qty float64) decimal.Decimal {
	return pricing.Money(unitPrice).Mul(decimal.NewFromFloat(qty))
}

func addTo(m map[string]decimal.Decimal, key string, v decimal.Decimal) {
	cur, ok := m[key]
	if !ok {
		cur = decimal.Zero
	}
	m[key] = cur.Add(v)
}
