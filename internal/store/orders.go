package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xiumachile/billpro/internal/catalog"
	"github.com/xiumachile/billpro/internal/sales"
)

const dayLayout = "2006-01-02"

// OrderQuery selects orders by calendar day and status. From and To are
// matched on the stored day with one day of slack on each side, so callers
// that bucket orders in their own time zone must still filter exactly.
// Zero bounds are open.
type OrderQuery struct {
	From     time.Time
	To       time.Time
	Statuses []sales.Status
}

type orderRow struct {
	ID             int64    `db:"id"`
	CreatedAt      string   `db:"created_at"`
	SellerID       *int64   `db:"seller_id"`
	SellerName     string   `db:"seller_name"`
	PaymentMethod  string   `db:"payment_method"`
	Channel        string   `db:"channel"`
	DeliveryApp    string   `db:"delivery_app"`
	GrossTotal     float64  `db:"gross_total"`
	Discount       float64  `db:"discount"`
	Tip            float64  `db:"tip"`
	TotalCollected *float64 `db:"total_collected"`
	Status         string   `db:"status"`
}

type orderItemRow struct {
	OrderID   int64   `db:"order_id"`
	ProductID int64   `db:"product_id"`
	Quantity  float64 `db:"quantity"`
	UnitPrice float64 `db:"unit_price"`
}

type orderComboRow struct {
	OrderID   int64   `db:"order_id"`
	ComboID   int64   `db:"combo_id"`
	Quantity  float64 `db:"quantity"`
	UnitPrice float64 `db:"unit_price"`
	Snapshot  *string `db:"items_snapshot"`
}

// ListOrders returns the matching orders with their lines, oldest first.
func (s *Store) ListOrders(ctx context.Context, q OrderQuery) ([]sales.Order, error) {
	from, to := "0000-00-00", "9999-99-99"
	if !q.From.IsZero() {
		from = q.From.AddDate(0, 0, -1).Format(dayLayout)
	}
	if !q.To.IsZero() {
		to = q.To.AddDate(0, 0, 1).Format(dayLayout)
	}

	query := `
		SELECT
			o.id,
			o.created_at,
			o.seller_id,
			COALESCE(s.name, '') AS seller_name,
			o.payment_method,
			o.channel,
			COALESCE(a.name, '') AS delivery_app,
			o.gross_total,
			o.discount,
			o.tip,
			o.total_collected,
			o.status
		FROM orders o
		LEFT JOIN sellers s ON s.id = o.seller_id
		LEFT JOIN delivery_apps a ON a.id = o.delivery_app_id
		WHERE substr(o.created_at, 1, 10) BETWEEN ? AND ?`
	args := []any{from, to}
	if len(q.Statuses) > 0 {
		query += ` AND o.status IN (?)`
		args = append(args, q.Statuses)
	}
	query += ` ORDER BY o.created_at, o.id`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := make([]sales.Order, 0, len(rows))
	index := make(map[int64]int, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		o, err := r.order()
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		ids = append(ids, o.ID)
		orders = append(orders, o)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	var items []orderItemRow
	if err := selectIn(ctx, s.db, &items, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, id
	`, ids); err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	for _, it := range items {
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, sales.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	var combos []orderComboRow
	if err := selectIn(ctx, s.db, &combos, `
		SELECT order_id, combo_id, quantity, unit_price, items_snapshot
		FROM order_combos
		WHERE order_id IN (?)
		ORDER BY order_id, id
	`, ids); err != nil {
		return nil, fmt.Errorf("query order combos: %w", err)
	}
	for _, c := range combos {
		o := &orders[index[c.OrderID]]
		line := sales.ComboLine{ComboID: c.ComboID, Quantity: c.Quantity, UnitPrice: c.UnitPrice}
		snap, err := decodeSnapshot(c.Snapshot)
		if err != nil {
			s.log.Warn("ignoring unreadable combo snapshot", "order_id", c.OrderID, "combo_id", c.ComboID, "error", err)
		}
		line.Snapshot = snap
		o.Combos = append(o.Combos, line)
	}

	s.log.Debug("orders loaded", "from", from, "to", to, "orders", len(orders))
	return orders, nil
}

// ListSellers returns every seller by name.
func (s *Store) ListSellers(ctx context.Context) ([]sales.Seller, error) {
	sellers := make([]sales.Seller, 0)
	if err := s.db.SelectContext(ctx, &sellers, `SELECT id, name FROM sellers ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	return sellers, nil
}

func (r orderRow) order() (sales.Order, error) {
	at, err := ParseTimestamp(r.CreatedAt)
	if err != nil {
		return sales.Order{}, fmt.Errorf("order %d: %w", r.ID, err)
	}
	o := sales.Order{
		ID:             r.ID,
		Date:           at,
		PaymentMethod:  r.PaymentMethod,
		Channel:        sales.Channel(r.Channel),
		DeliveryApp:    r.DeliveryApp,
		GrossTotal:     r.GrossTotal,
		Discount:       r.Discount,
		Tip:            r.Tip,
		TotalCollected: r.TotalCollected,
		Status:         sales.Status(r.Status),
	}
	if r.SellerID != nil {
		o.Seller = &sales.Seller{ID: *r.SellerID, Name: r.SellerName}
	}
	return o, nil
}

// ParseTimestamp reads an RFC 3339 timestamp, or SQLite's CURRENT_TIMESTAMP
// format taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// decodeSnapshot returns nil for a missing snapshot and an empty, non-nil
// slice for a recorded empty one.
func decodeSnapshot(raw *string) ([]catalog.ComboItem, error) {
	if raw == nil {
		return nil, nil
	}
	text := strings.TrimSpace(*raw)
	if text == "" || text == "null" {
		return nil, nil
	}
	items := make([]catalog.ComboItem, 0)
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("decode combo snapshot: %w", err)
	}
	return items, nil
}
