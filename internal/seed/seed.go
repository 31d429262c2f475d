package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/xiumachile/billpro/internal/catalog"
	"github.com/xiumachile/billpro/internal/units"
)

//go:embed demo.yaml
var demoYAML []byte

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Demo imports the embedded demo catalog and orders.
	Demo bool
	// Now and Location anchor the demo order days. Zero values mean
	// time.Now and time.Local.
	Now      time.Time
	Location *time.Location
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sqlx.DB, cfg Config) (Stats, error) {
	tx, err := db.Beginx()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if cfg.Demo {
		f, err := parseFixture(demoYAML)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		if err := ensureCatalog(tx, f, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		if err := ensureOrders(tx, f, cfg, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sqlx.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		stats.Skipped++
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

type fixture struct {
	Units        []units.Unit   `yaml:"units"`
	Conversions  []units.Factor `yaml:"conversions"`
	Categories   []named        `yaml:"categories"`
	Ingredients  []ingredient   `yaml:"ingredients"`
	Products     []product      `yaml:"products"`
	Combos       []combo        `yaml:"combos"`
	Sellers      []named        `yaml:"sellers"`
	DeliveryApps []named        `yaml:"delivery_apps"`
	Orders       []order        `yaml:"orders"`
}

type named struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type ingredient struct {
	ID        int64    `yaml:"id"`
	Name      string   `yaml:"name"`
	Unit      *int64   `yaml:"unit"`
	LastPrice *float64 `yaml:"last_price"`
	Price     *float64 `yaml:"price"`
}

type recipeLine struct {
	Ingredient int64   `yaml:"ingredient"`
	Quantity   float64 `yaml:"quantity"`
	Unit       *int64  `yaml:"unit"`
}

type product struct {
	ID         int64        `yaml:"id"`
	Name       string       `yaml:"name"`
	Category   *int64       `yaml:"category"`
	Price      float64      `yaml:"price"`
	Recipe     []recipeLine `yaml:"recipe"`
	Ingredient *int64       `yaml:"ingredient"`
}

type comboItem struct {
	Product      int64 `yaml:"product"`
	Multiplicity int   `yaml:"multiplicity"`
}

type combo struct {
	ID       int64       `yaml:"id"`
	Name     string      `yaml:"name"`
	Category *int64      `yaml:"category"`
	Price    float64     `yaml:"price"`
	Items    []comboItem `yaml:"items"`
}

type snapshotItem struct {
	ProductID    int64 `yaml:"product_id"`
	Multiplicity int   `yaml:"multiplicity"`
}

type orderLine struct {
	Product  int64          `yaml:"product"`
	Combo    int64          `yaml:"combo"`
	Quantity float64        `yaml:"quantity"`
	Price    float64        `yaml:"price"`
	Snapshot []snapshotItem `yaml:"snapshot"`
}

type order struct {
	ID        int64       `yaml:"id"`
	DaysAgo   int         `yaml:"days_ago"`
	Time      string      `yaml:"time"`
	Seller    *int64      `yaml:"seller"`
	Payment   string      `yaml:"payment"`
	Channel   string      `yaml:"channel"`
	App       *int64      `yaml:"app"`
	Gross     float64     `yaml:"gross"`
	Discount  float64     `yaml:"discount"`
	Tip       float64     `yaml:"tip"`
	Collected *float64    `yaml:"collected"`
	Status    string      `yaml:"status"`
	Items     []orderLine `yaml:"items"`
	Combos    []orderLine `yaml:"combos"`
}

func parseFixture(data []byte) (fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fixture{}, fmt.Errorf("parse demo fixture: %w", err)
	}
	return f, nil
}

func ensureCatalog(tx *sqlx.Tx, f fixture, stats *Stats) error {
	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM units`); err != nil {
		return fmt.Errorf("check catalog existence: %w", err)
	}
	if count > 0 {
		stats.Skipped++
		return nil
	}

	for _, u := range f.Units {
		if _, err := tx.NamedExec(`
			INSERT INTO units (id, symbol, name, dimension, base_factor)
			VALUES (:id, :symbol, :name, :dimension, :base_factor)
		`, u); err != nil {
			return fmt.Errorf("insert unit %q: %w", u.Symbol, err)
		}
		stats.Inserts++
	}
	for _, c := range f.Conversions {
		if _, err := tx.NamedExec(`
			INSERT INTO unit_conversions (origin_unit_id, destination_unit_id, factor)
			VALUES (:origin_unit_id, :destination_unit_id, :factor)
		`, c); err != nil {
			return fmt.Errorf("insert unit conversion: %w", err)
		}
		stats.Inserts++
	}
	for _, c := range f.Categories {
		if _, err := tx.Exec(`INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
		stats.Inserts++
	}
	for _, i := range f.Ingredients {
		if _, err := tx.Exec(`
			INSERT INTO ingredients (id, name, unit_id, last_purchase_price, purchase_price)
			VALUES (?, ?, ?, ?, ?)
		`, i.ID, i.Name, i.Unit, i.LastPrice, i.Price); err != nil {
			return fmt.Errorf("insert ingredient %q: %w", i.Name, err)
		}
		stats.Inserts++
	}
	for _, p := range f.Products {
		if _, err := tx.Exec(`
			INSERT INTO products (id, name, category_id, selling_price, is_composite, ingredient_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.Category, p.Price, len(p.Recipe) > 0, p.Ingredient); err != nil {
			return fmt.Errorf("insert product %q: %w", p.Name, err)
		}
		stats.Inserts++
		for _, l := range p.Recipe {
			if _, err := tx.Exec(`
				INSERT INTO recipe_lines (product_id, ingredient_id, quantity, unit_id)
				VALUES (?, ?, ?, ?)
			`, p.ID, l.Ingredient, l.Quantity, l.Unit); err != nil {
				return fmt.Errorf("insert recipe line of %q: %w", p.Name, err)
			}
			stats.Inserts++
		}
	}
	for _, c := range f.Combos {
		if _, err := tx.Exec(`
			INSERT INTO combos (id, name, category_id, selling_price)
			VALUES (?, ?, ?, ?)
		`, c.ID, c.Name, c.Category, c.Price); err != nil {
			return fmt.Errorf("insert combo %q: %w", c.Name, err)
		}
		stats.Inserts++
		for _, it := range c.Items {
			if _, err := tx.Exec(`
				INSERT INTO combo_items (combo_id, product_id, multiplicity)
				VALUES (?, ?, ?)
			`, c.ID, it.Product, it.Multiplicity); err != nil {
				return fmt.Errorf("insert combo item of %q: %w", c.Name, err)
			}
			stats.Inserts++
		}
	}

	return nil
}

func ensureOrders(tx *sqlx.Tx, f fixture, cfg Config, stats *Stats) error {
	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM orders`); err != nil {
		return fmt.Errorf("check orders existence: %w", err)
	}
	if count > 0 {
		stats.Skipped++
		return nil
	}

	for _, s := range f.Sellers {
		if _, err := tx.Exec(`INSERT INTO sellers (id, name) VALUES (?, ?)`, s.ID, s.Name); err != nil {
			return fmt.Errorf("insert seller %q: %w", s.Name, err)
		}
		stats.Inserts++
	}
	for _, a := range f.DeliveryApps {
		if _, err := tx.Exec(`INSERT INTO delivery_apps (id, name) VALUES (?, ?)`, a.ID, a.Name); err != nil {
			return fmt.Errorf("insert delivery app %q: %w", a.Name, err)
		}
		stats.Inserts++
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	for _, o := range f.Orders {
		at, err := orderTime(now, o.DaysAgo, o.Time)
		if err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO orders (
				id, created_at, seller_id, payment_method, channel, delivery_app_id,
				gross_total, discount, tip, total_collected, status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, o.ID, at.Format(time.RFC3339), o.Seller, o.Payment, o.Channel, o.App,
			o.Gross, o.Discount, o.Tip, o.Collected, o.Status); err != nil {
			return fmt.Errorf("insert order %d: %w", o.ID, err)
		}
		stats.Inserts++

		for _, it := range o.Items {
			if _, err := tx.Exec(`
				INSERT INTO order_items (order_id, product_id, quantity, unit_price)
				VALUES (?, ?, ?, ?)
			`, o.ID, it.Product, it.Quantity, it.Price); err != nil {
				return fmt.Errorf("insert item of order %d: %w", o.ID, err)
			}
			stats.Inserts++
		}
		for _, c := range o.Combos {
			snap, err := encodeSnapshot(c.Snapshot)
			if err != nil {
				return fmt.Errorf("order %d: %w", o.ID, err)
			}
			if _, err := tx.Exec(`
				INSERT INTO order_combos (order_id, combo_id, quantity, unit_price, items_snapshot)
				VALUES (?, ?, ?, ?, ?)
			`, o.ID, c.Combo, c.Quantity, c.Price, snap); err != nil {
				return fmt.Errorf("insert combo of order %d: %w", o.ID, err)
			}
			stats.Inserts++
		}
	}

	return nil
}

func orderTime(now time.Time, daysAgo int, clock string) (time.Time, error) {
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", clock, err)
	}
	d := now.AddDate(0, 0, -daysAgo)
	return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, now.Location()), nil
}

func encodeSnapshot(items []snapshotItem) (*string, error) {
	if items == nil {
		return nil, nil
	}
	out := make([]catalog.ComboItem, 0, len(items))
	for _, it := range items {
		out = append(out, catalog.ComboItem{ProductID: it.ProductID, Multiplicity: it.Multiplicity})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode combo snapshot: %w", err)
	}
	s := string(b)
	return &s, nil
}
