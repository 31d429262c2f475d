package store

import (
	"context"
	"fmt"

	"github.com/xiumachile/billpro/internal/catalog"
)

type ingredientRow struct {
	ID                int64    `db:"id"`
	Name              string   `db:"name"`
	UnitID            *int64   `db:"unit_id"`
	LastPurchasePrice *float64 `db:"last_purchase_price"`
	PurchasePrice     *float64 `db:"purchase_price"`
}

type productRow struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	CategoryID   *int64  `db:"category_id"`
	SellingPrice float64 `db:"selling_price"`
	IsComposite  bool    `db:"is_composite"`
	IngredientID *int64  `db:"ingredient_id"`
}

type recipeLineRow struct {
	ProductID    int64   `db:"product_id"`
	IngredientID int64   `db:"ingredient_id"`
	Quantity     float64 `db:"quantity"`
	UnitID       *int64  `db:"unit_id"`
}

type comboRow struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	CategoryID   *int64  `db:"category_id"`
	SellingPrice float64 `db:"selling_price"`
}

type comboItemRow struct {
	ComboID      int64 `db:"combo_id"`
	ProductID    int64 `db:"product_id"`
	Multiplicity int   `db:"multiplicity"`
}

type categoryRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// LoadCatalog reads a consistent snapshot of the catalog. The returned
// catalog is versioned by the latest price or recipe change, so costs
// memoized against it never outlive an edit.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin catalog read: %w", err)
	}
	defer tx.Rollback()

	var snap catalog.Snapshot

	if err := tx.GetContext(ctx, &snap.Version, `
		SELECT
			(SELECT COALESCE(MAX(updated_at), '') FROM ingredients) || '/' ||
			(SELECT COALESCE(MAX(updated_at), '') FROM products) || '/' ||
			(SELECT COALESCE(MAX(updated_at), '') FROM combos) || '/' ||
			(SELECT COUNT(*) FROM recipe_lines) || '/' ||
			(SELECT COUNT(*) FROM combo_items) || '/' ||
			(SELECT COUNT(*) || ':' || COALESCE(SUM(factor), 0) FROM unit_conversions)
	`); err != nil {
		return nil, fmt.Errorf("query catalog version: %w", err)
	}

	if err := tx.SelectContext(ctx, &snap.Units, `
		SELECT id, symbol, name, dimension, base_factor FROM units ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}

	if err := tx.SelectContext(ctx, &snap.Factors, `
		SELECT origin_unit_id, destination_unit_id, factor FROM unit_conversions ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("query unit conversions: %w", err)
	}

	var ingredients []ingredientRow
	if err := tx.SelectContext(ctx, &ingredients, `
		SELECT id, name, unit_id, last_purchase_price, purchase_price FROM ingredients ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	snap.Ingredients = make([]catalog.Ingredient, 0, len(ingredients))
	for _, r := range ingredients {
		snap.Ingredients = append(snap.Ingredients, catalog.Ingredient(r))
	}

	var categories []categoryRow
	if err := tx.SelectContext(ctx, &categories, `SELECT id, name FROM categories ORDER BY id`); err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	snap.Categories = make([]catalog.Category, 0, len(categories))
	for _, r := range categories {
		snap.Categories = append(snap.Categories, catalog.Category(r))
	}

	var lines []recipeLineRow
	if err := tx.SelectContext(ctx, &lines, `
		SELECT product_id, ingredient_id, quantity, unit_id FROM recipe_lines ORDER BY product_id, id
	`); err != nil {
		return nil, fmt.Errorf("query recipe lines: %w", err)
	}
	recipes := make(map[int64][]catalog.RecipeLine)
	for _, l := range lines {
		recipes[l.ProductID] = append(recipes[l.ProductID], catalog.RecipeLine{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			UnitID:       l.UnitID,
		})
	}

	var products []productRow
	if err := tx.SelectContext(ctx, &products, `
		SELECT id, name, category_id, selling_price, is_composite, ingredient_id FROM products ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	snap.Products = make([]catalog.Product, 0, len(products))
	for _, r := range products {
		p := catalog.Product{ID: r.ID, Name: r.Name, CategoryID: r.CategoryID, SellingPrice: r.SellingPrice}
		if r.IsComposite {
			p.Composition = catalog.Composite{Lines: recipes[r.ID]}
		} else {
			p.Composition = catalog.Direct{IngredientID: r.IngredientID}
		}
		snap.Products = append(snap.Products, p)
	}

	var items []comboItemRow
	if err := tx.SelectContext(ctx, &items, `
		SELECT combo_id, product_id, multiplicity FROM combo_items ORDER BY combo_id, id
	`); err != nil {
		return nil, fmt.Errorf("query combo items: %w", err)
	}
	comboItems := make(map[int64][]catalog.ComboItem)
	for _, it := range items {
		comboItems[it.ComboID] = append(comboItems[it.ComboID], catalog.ComboItem{
			ProductID:    it.ProductID,
			Multiplicity: it.Multiplicity,
		})
	}

	var combos []comboRow
	if err := tx.SelectContext(ctx, &combos, `
		SELECT id, name, category_id, selling_price FROM combos ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("query combos: %w", err)
	}
	snap.Combos = make([]catalog.Combo, 0, len(combos))
	for _, r := range combos {
		snap.Combos = append(snap.Combos, catalog.Combo{
			ID:           r.ID,
			Name:         r.Name,
			CategoryID:   r.CategoryID,
			SellingPrice: r.SellingPrice,
			Items:        comboItems[r.ID],
		})
	}

	s.log.Debug("catalog loaded",
		"version", snap.Version,
		"units", len(snap.Units),
		"ingredients", len(snap.Ingredients),
		"products", len(snap.Products),
		"combos", len(snap.Combos),
	)

	return catalog.New(snap), nil
}
