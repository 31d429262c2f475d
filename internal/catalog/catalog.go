// Package catalog holds the read-only reference data that costing works on:
// units, conversion factors, ingredients, products, combos and categories.
package catalog

import "github.com/xiumachile/billpro/internal/units"

// Ingredient is an inventory item bought from suppliers. Prices are per unit
// of UnitID, the purchase unit; either may be absent on legacy rows.
type Ingredient struct {
	ID                int64
	Name              string
	UnitID            *int64
	LastPurchasePrice *float64
	PurchasePrice     *float64
}

// RecipeLine is one ingredient quantity of a composite product.
type RecipeLine struct {
	IngredientID int64
	Quantity     float64
	UnitID       *int64
}

// Composition tells how a product's cost is made up. It is either Composite
// or Direct.
type Composition interface {
	isComposition()
}

// Composite products are costed from their recipe.
type Composite struct {
	Lines []RecipeLine
}

// Direct products resell a single inventory item. IngredientID may be nil.
type Direct struct {
	IngredientID *int64
}

func (Composite) isComposition() {}
func (Direct) isComposition()    {}

// Product is a menu item.
type Product struct {
	ID           int64
	Name         string
	CategoryID   *int64
	SellingPrice float64
	Composition  Composition
}

// ComboItem is a product inside a combo, Multiplicity times.
type ComboItem struct {
	ProductID    int64 `json:"product_id"`
	Multiplicity int   `json:"multiplicity"`
}

// Combo is a bundle of products sold at one price.
type Combo struct {
	ID           int64
	Name         string
	CategoryID   *int64
	SellingPrice float64
	Items        []ComboItem
}

// Category groups products and combos for reporting filters.
type Category struct {
	ID   int64
	Name string
}

// Snapshot is the raw material a Catalog is built from.
type Snapshot struct {
	Version     string
	Units       []units.Unit
	Factors     []units.Factor
	Ingredients []Ingredient
	Categories  []Category
	Products    []Product
	Combos      []Combo
}

// Catalog indexes a Snapshot for lookups by ID. It is never mutated after
// New returns, so it can be shared between concurrent readers.
type Catalog struct {
	version     string
	resolver    *units.Resolver
	units       map[int64]*units.Unit
	ingredients map[int64]*Ingredient
	categories  map[int64]*Category
	products    map[int64]*Product
	combos      map[int64]*Combo
}

// New builds a Catalog. Later duplicates of an ID replace earlier ones. The
// catalog keeps pointers into the snapshot slices; do not modify them after.
func New(s Snapshot) *Catalog {
	c := &Catalog{
		version:     s.Version,
		resolver:    units.NewResolver(s.Factors),
		units:       make(map[int64]*units.Unit, len(s.Units)),
		ingredients: make(map[int64]*Ingredient, len(s.Ingredients)),
		categories:  make(map[int64]*Category, len(s.Categories)),
		products:    make(map[int64]*Product, len(s.Products)),
		combos:      make(map[int64]*Combo, len(s.Combos)),
	}
	for i := range s.Units {
		c.units[s.Units[i].ID] = &s.Units[i]
	}
	for i := range s.Ingredients {
		c.ingredients[s.Ingredients[i].ID] = &s.Ingredients[i]
	}
	for i := range s.Categories {
		c.categories[s.Categories[i].ID] = &s.Categories[i]
	}
	for i := range s.Products {
		c.products[s.Products[i].ID] = &s.Products[i]
	}
	for i := range s.Combos {
		c.combos[s.Combos[i].ID] = &s.Combos[i]
	}
	return c
}

// Version identifies the price state the snapshot was taken at.
func (c *Catalog) Version() string { return c.version }

// Resolver returns the unit converter built from the snapshot's factors.
func (c *Catalog) Resolver() *units.Resolver { return c.resolver }

// Unit returns the unit for id, or nil when id is nil or unknown.
func (c *Catalog) Unit(id *int64) *units.Unit {
	if id == nil {
		return nil
	}
	return c.units[*id]
}

func (c *Catalog) Ingredient(id int64) (*Ingredient, bool) {
	i, ok := c.ingredients[id]
	return i, ok
}

func (c *Catalog) Product(id int64) (*Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *Catalog) Combo(id int64) (*Combo, bool) {
	cb, ok := c.combos[id]
	return cb, ok
}

func (c *Catalog) Category(id int64) (*Category, bool) {
	cat, ok := c.categories[id]
	return cat, ok
}
