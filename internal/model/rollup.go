package model

import "github.com/shopspring/decimal"

// AggregationRow is one grouped output row: the dimension values in tuple
// order plus the computed metrics for every order in the group.
type AggregationRow struct {
	Dimensions []string          `json:"dimensions"` // values, in configured tuple order
	ByName     map[string]string `json:"by_name"`    // dimension name -> value

	Orders             int `json:"orders"`
	DistinctOrders     int `json:"distinct_order_uuid"`
	GHDOrders          int `json:"ghd_orders"`
	OrdersWithCareCost int `json:"orders_with_care_cost"`
	LateOrders         int `json:"late_orders"`
	CancelledOrders    int `json:"cancels_osmf_definition"`
	BundleOrders       int `json:"bundle_orders"`
	ShopAndPayOrders   int `json:"shop_and_pay_orders"`

	DinerAdjustment       decimal.Decimal `json:"diner_adjustment"`
	ConcessionAmount      decimal.Decimal `json:"concession_amount"`
	RedeliveryCost        decimal.Decimal `json:"redelivery_cost"`
	GrubRefund            decimal.Decimal `json:"grub_refund"`
	TicketCost            decimal.Decimal `json:"ticket_cost"`
	RestaurantRefundTotal decimal.Decimal `json:"restaurant_refund_total"`
	AltCurrencyConcession decimal.Decimal `json:"alt_currency_concession"`
	TotalCareCost         decimal.Decimal `json:"total_care_cost"`
}
