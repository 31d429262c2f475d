package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xiumachile/billpro/internal/catalog"
	"github.com/xiumachile/billpro/internal/units"
)

// NoteCode classifies a data-integrity note.
type NoteCode string

const (
	NoteMissingIngredient    NoteCode = "missing_ingredient"
	NoteMissingProduct       NoteCode = "missing_product"
	NoteMissingCombo         NoteCode = "missing_combo"
	NoteUnreliableConversion NoteCode = "unreliable_conversion"
)

// Note flags catalog data that made a cost less trustworthy. Notes never stop
// a calculation; the affected contribution is zero or unconverted instead.
type Note struct {
	Code    NoteCode `json:"code"`
	Subject string   `json:"subject"`
	Detail  string   `json:"detail"`
}

// LineBreakdown shows how one recipe line was costed.
type LineBreakdown struct {
	IngredientID       int64           `json:"ingredient_id"`
	IngredientName     string          `json:"ingredient_name"`
	Quantity           float64         `json:"quantity"`
	RecipeUnit         string          `json:"recipe_unit"`
	PurchaseUnit       string          `json:"purchase_unit"`
	NormalizedQuantity float64         `json:"normalized_quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Cost               decimal.Decimal `json:"cost"`
	Conversion         units.Method    `json:"conversion"`
	Warning            bool            `json:"warning"`
}

// ProductCost is the unit cost of a product with its breakdown.
type ProductCost struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Composite bool            `json:"composite"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Lines     []LineBreakdown `json:"lines"`
	Notes     []Note          `json:"notes,omitempty"`
}

// Memo caches product costs for one price snapshot version. A Calculator
// only consults it while its catalog carries the same version, so a Memo
// never serves costs across snapshots. A Memo is not safe for concurrent use.
type Memo struct {
	version  string
	products map[int64]ProductCost
}

func NewMemo(version string) *Memo {
	return &Memo{version: version, products: make(map[int64]ProductCost)}
}

func (m *Memo) get(id int64, version string) (ProductCost, bool) {
	if m == nil || m.version != version {
		return ProductCost{}, false
	}
	pc, ok := m.products[id]
	return pc, ok
}

func (m *Memo) put(id int64, version string, pc ProductCost) {
	if m == nil || m.version != version {
		return
	}
	m.products[id] = pc
}

// Calculator costs products and combos against one catalog.
type Calculator struct {
	cat  *catalog.Catalog
	memo *Memo
}

// NewCalculator returns a Calculator over cat. memo may be nil, in which case
// every call recomputes.
func NewCalculator(cat *catalog.Catalog, memo *Memo) *Calculator {
	return &Calculator{cat: cat, memo: memo}
}

// IngredientUnitCost is the price per purchase unit: the last purchase price,
// else the generic purchase price, else zero.
func (c *Calculator) IngredientUnitCost(ing *catalog.Ingredient) decimal.Decimal {
	if ing == nil {
		return decimal.Zero
	}
	for _, p := range []*float64{ing.LastPurchasePrice, ing.PurchasePrice} {
		if p != nil && Quantity(*p) > 0 {
			return Money(*p)
		}
	}
	return decimal.Zero
}

// LineCost is the ingredient unit cost times the recipe quantity expressed in
// the ingredient's purchase unit.
func (c *Calculator) LineCost(line catalog.RecipeLine, ing *catalog.Ingredient) (decimal.Decimal, units.Conversion) {
	qty := Quantity(line.Quantity)
	if ing == nil {
		return decimal.Zero, units.Conversion{Quantity: qty, Method: units.MethodUnspecified}
	}
	conv := c.cat.Resolver().Normalize(qty, c.cat.Unit(line.UnitID), c.cat.Unit(ing.UnitID))
	conv.Quantity = Quantity(conv.Quantity)
	cost := c.IngredientUnitCost(ing).Mul(decimal.NewFromFloat(conv.Quantity))
	return cost, conv
}

// ProductUnitCost is ProductCost without the breakdown.
func (c *Calculator) ProductUnitCost(p *catalog.Product) decimal.Decimal {
	return c.ProductCost(p).UnitCost
}

// ProductCost sums the recipe lines of a composite product, or passes through
// the ingredient price of a direct one.
func (c *Calculator) ProductCost(p *catalog.Product) ProductCost {
	if p == nil {
		return ProductCost{UnitCost: decimal.Zero}
	}
	if pc, ok := c.memo.get(p.ID, c.cat.Version()); ok {
		return pc
	}

	var pc ProductCost
	switch comp := p.Composition.(type) {
	case catalog.Composite:
		pc = c.compositeCost(p, comp)
	case catalog.Direct:
		pc = c.directCost(p, comp)
	default:
		pc = c.directCost(p, catalog.Direct{})
	}

	c.memo.put(p.ID, c.cat.Version(), pc)
	return pc
}

func (c *Calculator) compositeCost(p *catalog.Product, comp catalog.Composite) ProductCost {
	pc := ProductCost{
		ProductID: p.ID,
		Name:      p.Name,
		Composite: true,
		UnitCost:  decimal.Zero,
		Lines:     make([]LineBreakdown, 0, len(comp.Lines)),
	}

	for _, line := range comp.Lines {
		row := LineBreakdown{
			IngredientID: line.IngredientID,
			Quantity:     Quantity(line.Quantity),
			RecipeUnit:   symbol(c.cat.Unit(line.UnitID)),
			UnitPrice:    decimal.Zero,
			Cost:         decimal.Zero,
		}

		ing, ok := c.cat.Ingredient(line.IngredientID)
		if !ok {
			row.Warning = true
			row.Conversion = units.MethodUnspecified
			pc.Lines = append(pc.Lines, row)
			pc.Notes = append(pc.Notes, Note{
				Code:    NoteMissingIngredient,
				Subject: p.Name,
				Detail:  fmt.Sprintf("ingredient %d not found", line.IngredientID),
			})
			continue
		}

		cost, conv := c.LineCost(line, ing)
		row.IngredientName = ing.Name
		row.PurchaseUnit = symbol(c.cat.Unit(ing.UnitID))
		row.NormalizedQuantity = conv.Quantity
		row.UnitPrice = c.IngredientUnitCost(ing)
		row.Cost = cost
		row.Conversion = conv.Method
		if !conv.Reliable() {
			row.Warning = true
			pc.Notes = append(pc.Notes, Note{
				Code:    NoteUnreliableConversion,
				Subject: p.Name,
				Detail:  fmt.Sprintf("no conversion from %q to %q for %s", row.RecipeUnit, row.PurchaseUnit, ing.Name),
			})
		}

		pc.Lines = append(pc.Lines, row)
		pc.UnitCost = pc.UnitCost.Add(cost)
	}

	return pc
}

func (c *Calculator) directCost(p *catalog.Product, comp catalog.Direct) ProductCost {
	pc := ProductCost{ProductID: p.ID, Name: p.Name, UnitCost: decimal.Zero, Lines: []LineBreakdown{}}
	if comp.IngredientID == nil {
		return pc
	}

	ing, ok := c.cat.Ingredient(*comp.IngredientID)
	if !ok {
		pc.Notes = append(pc.Notes, Note{
			Code:    NoteMissingIngredient,
			Subject: p.Name,
			Detail:  fmt.Sprintf("ingredient %d not found", *comp.IngredientID),
		})
		return pc
	}

	price := c.IngredientUnitCost(ing)
	unit := symbol(c.cat.Unit(ing.UnitID))
	pc.UnitCost = price
	pc.Lines = append(pc.Lines, LineBreakdown{
		IngredientID:       ing.ID,
		IngredientName:     ing.Name,
		Quantity:           1,
		RecipeUnit:         unit,
		PurchaseUnit:       unit,
		NormalizedQuantity: 1,
		UnitPrice:          price,
		Cost:               price,
		Conversion:         units.MethodIdentity,
	})
	return pc
}

// ItemsCost sums product unit costs times multiplicity. It is used for both
// a combo's live items and the snapshot recorded on a past order.
func (c *Calculator) ItemsCost(items []catalog.ComboItem) (decimal.Decimal, []Note) {
	total := decimal.Zero
	var notes []Note
	for _, item := range items {
		p, ok := c.cat.Product(item.ProductID)
		if !ok {
			notes = append(notes, Note{
				Code:    NoteMissingProduct,
				Subject: fmt.Sprintf("product %d", item.ProductID),
				Detail:  "combo item references an unknown product",
			})
			continue
		}
		pc := c.ProductCost(p)
		notes = append(notes, pc.Notes...)
		total = total.Add(pc.UnitCost.Mul(decimal.NewFromInt(int64(Multiplicity(item.Multiplicity)))))
	}
	return total, notes
}

// ComboUnitCost is the cost of one combo from its current items.
func (c *Calculator) ComboUnitCost(combo *catalog.Combo) decimal.Decimal {
	if combo == nil {
		return decimal.Zero
	}
	total, _ := c.ItemsCost(combo.Items)
	return total
}

// Money converts a raw amount to decimal. NaN, infinities and negatives
// become zero.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(Quantity(v))
}

// Quantity returns v, or zero when v is NaN, infinite or negative.
func Quantity(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Multiplicity treats a missing or non-positive count as one.
func Multiplicity(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func symbol(u *units.Unit) string {
	if u == nil {
		return ""
	}
	return u.Symbol
}
