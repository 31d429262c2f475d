// Package sales describes orders as the order provider hands them over for
// reporting.
package sales

import (
	"time"

	"github.com/xiumachile/billpro/internal/catalog"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusPaid      Status = "pagado"
	StatusDelivered Status = "entregado"
	StatusCancelled Status = "anulado"
)

// Reportable reports whether payment was captured for the order.
func (s Status) Reportable() bool {
	return s == StatusPaid || s == StatusDelivered
}

// ReportableStatuses lists the statuses revenue reports include.
var ReportableStatuses = []Status{StatusPaid, StatusDelivered}

// Channel is the sales context of an order.
type Channel string

const (
	ChannelTable    Channel = "mesa"
	ChannelLocal    Channel = "local"
	ChannelPickup   Channel = "takeout"
	ChannelDelivery Channel = "delivery"
	ChannelApp      Channel = "app"
)

// Seller is the employee credited with an order.
type Seller struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LineItem is a product sold on an order.
type LineItem struct {
	ProductID int64
	Quantity  float64
	UnitPrice float64
}

// ComboLine is a combo sold on an order. Snapshot holds the combo's items as
// they were when the order was taken; nil means no snapshot was recorded.
type ComboLine struct {
	ComboID   int64
	Quantity  float64
	UnitPrice float64
	Snapshot  []catalog.ComboItem
}

// Order is a sales ticket with its header totals and lines.
type Order struct {
	ID             int64
	Date           time.Time
	Seller         *Seller
	PaymentMethod  string
	Channel        Channel
	DeliveryApp    string
	GrossTotal     float64
	Discount       float64
	Tip            float64
	TotalCollected *float64
	Status         Status
	Items          []LineItem
	Combos         []ComboLine
}
