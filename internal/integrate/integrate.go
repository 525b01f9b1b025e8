// Package integrate left-joins every resolved signal and dimensional lookup
// onto the base order set, producing exactly one EnrichedOrder per order.
package integrate

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mealcart/carecost-cli/internal/costs"
	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// Scope selects which orders the run covers.
type Scope string

const (
	// ScopeManagedOnly restricts the run to managed-delivery (GHD) orders.
	ScopeManagedOnly Scope = "ghd"
	// ScopeAll covers every order in the base set.
	ScopeAll Scope = "all"
)

// ParseScope converts a config string into a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeManagedOnly, ScopeAll:
		return Scope(s), nil
	default:
		return "", eris.Errorf("integrate: unknown scope %q (valid: ghd, all)", s)
	}
}

// Signals bundles the per-source extraction outputs, each already reduced to
// at most one entry per order.
type Signals struct {
	Adjustments        map[string]model.AdjustmentSignal
	GuaranteeClaims    map[string]model.GuaranteeClaimSignal
	Concessions        map[string]model.ConcessionSignal
	SelfServiceCancels map[string]model.SelfServiceCancelSignal
	FormalCancels      map[string]model.FormalCancelSignal
	Deliveries         map[string]model.DeliverySignal
	Contacts           map[string]model.ContactSignal
	RestaurantRefunds  map[string]model.RestaurantRefundSignal
}

// Run joins signals and lookups onto the base order set. The base set must
// hold exactly one row per order; a duplicate is a structural contract
// violation that aborts the run rather than fanning out downstream rows.
func Run(base []model.FinancialFact, sigs Signals, tables *taxonomy.Tables, scope Scope) ([]model.EnrichedOrder, error) {
	log := zap.L().With(zap.String("component", "integrate"))

	seen := make(map[string]bool, len(base))
	out := make([]model.EnrichedOrder, 0, len(base))

	for _, f := range base {
		if f.OrderUUID == "" {
			return nil, eris.New("integrate: base order with empty order_uuid")
		}
		if seen[f.OrderUUID] {
			return nil, eris.Errorf("integrate: duplicate order_uuid %s in base set", f.OrderUUID)
		}
		seen[f.OrderUUID] = true

		if scope == ScopeManagedOnly && !f.ManagedDelivery {
			continue
		}

		o := model.EnrichedOrder{
			OrderUUID:       f.OrderUUID,
			DeliveryDate:    f.DeliveryDate,
			RegionID:        f.RegionID,
			MarketSegment:   tables.Markets.Segment(f.RegionID),
			ManagedDelivery: f.ManagedDelivery,
			IsDelivery:      f.IsDelivery,

			DinerAdjustment:       f.DinerAdjustment,
			ConcessionAmount:      f.ConcessionAmount,
			RedeliveryCost:        f.RedeliveryCost,
			GrubRefund:            f.GrubRefund,
			TicketCost:            costs.TicketCost(f),
			RestaurantRefundTotal: f.RestaurantRefundTotal,
			AltCurrencyConcession: f.AltCurrencyConcession,
		}

		if adj, ok := sigs.Adjustments[f.OrderUUID]; ok {
			o.AdjustmentReason = adj.ResolvedReason
			o.AdjustmentContactReason = adj.ContactReason
		}
		if ghg, ok := sigs.GuaranteeClaims[f.OrderUUID]; ok {
			o.GuaranteeClaimReason = ghg.ResolvedReason
		}
		if con, ok := sigs.Concessions[f.OrderUUID]; ok {
			o.ConcessionReason = con.ResolvedReason
		}
		if ss, ok := sigs.SelfServiceCancels[f.OrderUUID]; ok {
			o.SelfServiceCancelReason = ss.ResolvedReason
			o.Cancelled = true
		}
		if can, ok := sigs.FormalCancels[f.OrderUUID]; ok {
			o.CancelReasonName = can.ReasonName
			o.CancelGroup = can.ReasonGroup
			if can.StatusCancelled {
				o.Cancelled = true
			}
		}
		if del, ok := sigs.Deliveries[f.OrderUUID]; ok {
			o.Late = del.Late
			o.Bundle = del.Bundle
			o.ShopAndPay = del.FulfillmentType == model.ShopAndPay
		}
		if c, ok := sigs.Contacts[f.OrderUUID]; ok {
			o.ContactGroup = c.Group
		}
		if rr, ok := sigs.RestaurantRefunds[f.OrderUUID]; ok && o.RestaurantRefundTotal.IsZero() {
			o.RestaurantRefundTotal = rr.Amount
		}

		o.TotalCareCost = costs.Total(&o)

		out = append(out, o)
	}

	log.Debug("integrated orders",
		zap.Int("base", len(base)),
		zap.Int("in_scope", len(out)),
	)

	return out, nil
}
