// Package rollup groups enriched orders by a configurable dimension tuple
// and computes per-group counts and cost sums.
package rollup

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mealcart/carecost-cli/internal/model"
)

// keySep joins dimension values into a group key. Unit separator, so values
// containing commas or spaces cannot collide.
const keySep = "\x1f"

// dimensionFns maps a dimension name to its value extractor. Boolean
// dimensions stringify as "true"/"false"; absent string dimensions group
// under the empty value, matching grouped-aggregation NULL semantics.
var dimensionFns = map[string]func(*model.EnrichedOrder) string{
	"market_segment":  func(o *model.EnrichedOrder) string { return o.MarketSegment },
	"region_id":       func(o *model.EnrichedOrder) string { return o.RegionID },
	"reason_group":    func(o *model.EnrichedOrder) string { return o.ReasonGroup },
	"eta_care_reason": func(o *model.EnrichedOrder) string { return o.ETACareReason },
	"delivery_date":   func(o *model.EnrichedOrder) string { return o.DeliveryDate.Format("2006-01-02") },
	"ghd":             func(o *model.EnrichedOrder) string { return boolDim(o.ManagedDelivery, "ghd", "non-ghd") },
	"late":            func(o *model.EnrichedOrder) string { return boolDim(o.Late, "late", "on-time") },
	"cancelled":       func(o *model.EnrichedOrder) string { return boolDim(o.Cancelled, "cancelled", "fulfilled") },
	"bundle":          func(o *model.EnrichedOrder) string { return boolDim(o.Bundle, "bundle", "single") },
	"shop_and_pay":    func(o *model.EnrichedOrder) string { return boolDim(o.ShopAndPay, "shop_and_pay", "standard") },
	"is_delivery":     func(o *model.EnrichedOrder) string { return boolDim(o.IsDelivery, "delivery", "pickup") },
}

func boolDim(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

// DefaultDimensions is the standard reporting tuple.
var DefaultDimensions = []string{"market_segment", "reason_group", "eta_care_reason"}

// ValidateDimensions checks every requested dimension name is known.
func ValidateDimensions(dims []string) error {
	for _, d := range dims {
		if _, ok := dimensionFns[d]; !ok {
			return eris.Errorf("rollup: unknown dimension %q", d)
		}
	}
	return nil
}

// Aggregate groups orders by the dimension tuple and computes the metrics
// for each group. Output is sorted by dimension values so identical input
// yields identical output. A group whose row count diverges from its
// distinct-order count indicates upstream fan-out and aborts the rollup.
func Aggregate(orders []model.EnrichedOrder, dims []string) ([]model.AggregationRow, error) {
	if len(dims) == 0 {
		dims = DefaultDimensions
	}
	if err := ValidateDimensions(dims); err != nil {
		return nil, err
	}

	type group struct {
		row     model.AggregationRow
		orderID map[string]bool
	}
	groups := make(map[string]*group)

	for i := range orders {
		o := &orders[i]

		values := make([]string, len(dims))
		byName := make(map[string]string, len(dims))
		for j, d := range dims {
			values[j] = dimensionFns[d](o)
			byName[d] = values[j]
		}
		key := strings.Join(values, keySep)

		g, ok := groups[key]
		if !ok {
			g = &group{
				row:     model.AggregationRow{Dimensions: values, ByName: byName},
				orderID: make(map[string]bool),
			}
			groups[key] = g
		}

		g.row.Orders++
		g.orderID[o.OrderUUID] = true
		if o.ManagedDelivery {
			g.row.GHDOrders++
		}
		if o.HasCareCost() {
			g.row.OrdersWithCareCost++
		}
		if o.Late {
			g.row.LateOrders++
		}
		if o.Cancelled {
			g.row.CancelledOrders++
		}
		if o.Bundle {
			g.row.BundleOrders++
		}
		if o.ShopAndPay {
			g.row.ShopAndPayOrders++
		}

		g.row.DinerAdjustment = g.row.DinerAdjustment.Add(o.DinerAdjustment)
		g.row.ConcessionAmount = g.row.ConcessionAmount.Add(o.ConcessionAmount)
		g.row.RedeliveryCost = g.row.RedeliveryCost.Add(o.RedeliveryCost)
		g.row.GrubRefund = g.row.GrubRefund.Add(o.GrubRefund)
		g.row.TicketCost = g.row.TicketCost.Add(o.TicketCost)
		g.row.RestaurantRefundTotal = g.row.RestaurantRefundTotal.Add(o.RestaurantRefundTotal)
		g.row.AltCurrencyConcession = g.row.AltCurrencyConcession.Add(o.AltCurrencyConcession)
		g.row.TotalCareCost = g.row.TotalCareCost.Add(o.TotalCareCost)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]model.AggregationRow, 0, len(groups))
	for _, k := range keys {
		g := groups[k]
		g.row.DistinctOrders = len(g.orderID)
		if g.row.DistinctOrders != g.row.Orders {
			return nil, eris.Errorf("rollup: group %q has %d rows but %d distinct orders, upstream join fanned out",
				strings.Join(g.row.Dimensions, ","), g.row.Orders, g.row.DistinctOrders)
		}
		rows = append(rows, g.row)
	}

	return rows, nil
}
