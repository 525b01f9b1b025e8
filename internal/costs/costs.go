// Package costs computes the per-order care cost total from the fixed
// component whitelist.
package costs

import (
	"github.com/shopspring/decimal"

	"github.com/mealcart/carecost-cli/internal/model"
)

// TicketCost sums the four sub-ticket cost components.
func TicketCost(f model.FinancialFact) decimal.Decimal {
	return f.DinerTicketCost.
		Add(f.DriverTicketCost).
		Add(f.RestaurantTicketCost).
		Add(f.InternalTicketCost)
}

// Total computes the order's total care cost:
//
//	concession + ticket_cost + diner_adjustment + redelivery + grub_refund
//
// Every component is already coalesced to zero by integration, so the total
// is always defined. Restaurant-initiated refunds and alternate-currency
// concessions are reported separately and deliberately excluded from the
// total; do not add them here without a contract change from the domain
// owner.
func Total(o *model.EnrichedOrder) decimal.Decimal {
	return o.ConcessionAmount.
		Add(o.TicketCost).
		Add(o.DinerAdjustment).
		Add(o.RedeliveryCost).
		Add(o.GrubRefund)
}
