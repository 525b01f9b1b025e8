// Package classify resolves each order's final reason fields from its
// signals using a fixed precedence waterfall.
package classify

import (
	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// etaReasons are the combined-reason categories that count as ETA-driven.
var etaReasons = map[string]bool{
	"late order":      true,
	"missed delivery": true,
}

// Apply derives CombinedReason, FreeGrubReason, ReasonGroup and
// ETACareReason in place. Inputs are the order's joined signal fields; the
// waterfall below is ordered and every step is terminal.
func Apply(o *model.EnrichedOrder, tables *taxonomy.Tables) {
	o.CombinedReason = combineAdjustCancel(o.CancelReasonName, o.AdjustmentReason)
	o.FreeGrubReason = freeGrubReason(o)
	o.ReasonGroup = reasonGroup(o, tables)
	o.ETACareReason = etaCareReason(o)
}

// combineAdjustCancel prefers the governed cancellation reason, falling back
// to the normalized adjustment reason. The "Not Mapped" placeholder is
// treated as absence.
func combineAdjustCancel(cancelReason, adjustmentReason string) string {
	if cancelReason != "" && cancelReason != model.ReasonNotMapped {
		return cancelReason
	}
	return adjustmentReason
}

// freeGrubReason resolves the free-grub narrative: guarantee claim first,
// then the concession's contact reason. When a concession cost was incurred
// but neither source yields a reason, the combined cancel/adjustment reason
// is backfilled so the cost stays attributable.
func freeGrubReason(o *model.EnrichedOrder) string {
	if o.GuaranteeClaimReason != "" {
		return o.GuaranteeClaimReason
	}
	if o.ConcessionReason != "" {
		return o.ConcessionReason
	}
	if o.ConcessionAmount.IsNegative() {
		return o.CombinedReason
	}
	return ""
}

// reasonGroup is the precedence waterfall. First matching rule wins:
//
//  1. zero total care cost
//  2. redelivery incurred (operational fact outranks reason text)
//  3. governed cancellation group, unless the "Other" placeholder
//  4. group classification of the combined cancel/adjustment reason
//  5. group classification of the free-grub reason
//  6. contact-mapped group
//  7. not grouped
func reasonGroup(o *model.EnrichedOrder, tables *taxonomy.Tables) string {
	if o.TotalCareCost.IsZero() {
		return model.GroupNoCareCost
	}
	if !o.RedeliveryCost.IsZero() {
		return model.GroupLogistics
	}
	if o.CancelGroup != "" && o.CancelGroup != model.GroupOther {
		return o.CancelGroup
	}
	if g, ok := tables.Group.Match(o.CombinedReason); ok {
		return g
	}
	if g, ok := tables.Group.Match(o.FreeGrubReason); ok {
		return g
	}
	if o.ContactGroup != "" {
		return o.ContactGroup
	}
	return model.GroupNotGrouped
}

// etaCareReason splits logistics-side orders into ETA-driven and everything
// else, the secondary grouping dimension carried on every rollup row.
func etaCareReason(o *model.EnrichedOrder) string {
	if o.ReasonGroup == model.GroupLogistics && (o.Late || etaReasons[o.CombinedReason] || etaReasons[o.FreeGrubReason]) {
		return model.ETAIssues
	}
	return model.ETAOther
}
