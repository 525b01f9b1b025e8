package signal

import (
	"time"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// ExtractAdjustments resolves one refund adjustment per order. When the
// adjustment carries no reason of its own, or only a verbose "refund due to
// ..." itemization, the linked support contact's reason stands in for it.
func ExtractAdjustments(events []model.AdjustmentEvent, contacts map[string]model.ContactSignal, tables *taxonomy.Tables) (map[string]model.AdjustmentSignal, []model.AuditRecord) {
	sel := selector[model.AdjustmentEvent]{
		feed: "adjustments",
		key:  func(e model.AdjustmentEvent) string { return e.OrderUUID },
		ts:   func(e model.AdjustmentEvent) time.Time { return e.Timestamp },
		id:   func(e model.AdjustmentEvent) string { return e.RecordID },
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.AdjustmentSignal, len(winners))
	for order, ev := range winners {
		var contactReason string
		if c, ok := contacts[order]; ok {
			contactReason = c.RawReason
		}

		effective := ev.Reason
		if effective == "" || taxonomy.IsVerboseRefund(effective) {
			effective = contactReason
		}

		out[order] = model.AdjustmentSignal{
			SourceSignal: model.SourceSignal{
				OrderUUID:      order,
				Type:           model.SignalAdjustment,
				RawReason:      ev.Reason,
				ResolvedReason: tables.Item.Resolve(effective),
				EventTime:      ev.Timestamp,
				Amount:         ev.Amount,
			},
			ContactReason: contactReason,
		}
	}
	return out, audit
}
