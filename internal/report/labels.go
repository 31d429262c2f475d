package report

import (
	"strings"

	"github.com/xiumachile/billpro/internal/sales"
)

const (
	labelTable      = "Mesa / Salón"
	labelPickup     = "Para Llevar"
	labelDelivery   = "Delivery Propio"
	labelUnknownApp = "App (Desconocida)"
	labelAppPayment = "Plataforma App"
	labelNoPayment  = "Sin Definir"
	labelUnassigned = "Sin Asignar"
)

// ChannelLabel names the bucket an order's net sale is reported under.
// Orders through a delivery app are bucketed by app name.
func ChannelLabel(o *sales.Order) string {
	switch sales.Channel(strings.ToLower(strings.TrimSpace(string(o.Channel)))) {
	case sales.ChannelTable, sales.ChannelLocal, "":
		return labelTable
	case sales.ChannelPickup:
		return labelPickup
	case sales.ChannelDelivery:
		return labelDelivery
	case sales.ChannelApp:
		if app := strings.TrimSpace(o.DeliveryApp); app != "" {
			return app
		}
		return labelUnknownApp
	default:
		return string(o.Channel)
	}
}

func PaymentLabel(o *sales.Order) string {
	if m := strings.TrimSpace(o.PaymentMethod); m != "" {
		return m
	}
	if o.Channel == sales.ChannelApp {
		return labelAppPayment
	}
	return labelNoPayment
}

func SellerLabel(o *sales.Order) string {
	if o.Seller == nil || strings.TrimSpace(o.Seller.Name) == "" {
		return labelUnassigned
	}
	return o.Seller.Name
}
