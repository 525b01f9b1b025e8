package signal

import (
	"time"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// ExtractGuaranteeClaims resolves one guarantee claim per order. The claim
// type is the reason-bearing field; it feeds the free-grub reason downstream.
func ExtractGuaranteeClaims(events []model.GuaranteeClaimEvent, tables *taxonomy.Tables) (map[string]model.GuaranteeClaimSignal, []model.AuditRecord) {
	sel := selector[model.GuaranteeClaimEvent]{
		feed: "guarantee_claims",
		key:  func(e model.GuaranteeClaimEvent) string { return e.OrderUUID },
		ts:   func(e model.GuaranteeClaimEvent) time.Time { return e.Timestamp },
		id:   func(e model.GuaranteeClaimEvent) string { return e.RecordID },
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.GuaranteeClaimSignal, len(winners))
	for order, ev := range winners {
		out[order] = model.GuaranteeClaimSignal{
			SourceSignal: model.SourceSignal{
				OrderUUID:      order,
				Type:           model.SignalGuaranteeClaim,
				RawReason:      ev.ClaimType,
				ResolvedReason: tables.Item.Resolve(ev.ClaimType),
				EventTime:      ev.Timestamp,
			},
			ClaimType: ev.ClaimType,
			Decision:  ev.Decision,
		}
	}
	return out, audit
}
