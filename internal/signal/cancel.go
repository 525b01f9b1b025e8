package signal

import (
	"time"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// ExtractSelfServiceCancels resolves one diner self-service cancellation per
// order, normalizing the coded reason into the canonical vocabulary.
func ExtractSelfServiceCancels(events []model.SelfServiceCancelEvent) (map[string]model.SelfServiceCancelSignal, []model.AuditRecord) {
	sel := selector[model.SelfServiceCancelEvent]{
		feed: "self_service_cancels",
		key:  func(e model.SelfServiceCancelEvent) string { return e.OrderUUID },
		ts:   func(e model.SelfServiceCancelEvent) time.Time { return e.Timestamp },
		id:   func(e model.SelfServiceCancelEvent) string { return e.RecordID },
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.SelfServiceCancelSignal, len(winners))
	for order, ev := range winners {
		out[order] = model.SelfServiceCancelSignal{
			SourceSignal: model.SourceSignal{
				OrderUUID:      order,
				Type:           model.SignalSelfServiceCancel,
				RawReason:      ev.ReasonCode,
				ResolvedReason: taxonomy.ResolveSelfServiceCode(ev.ReasonCode),
				EventTime:      ev.Timestamp,
			},
			ReasonCode: ev.ReasonCode,
		}
	}
	return out, audit
}

// ExtractFormalCancels resolves one formal cancellation per order and
// attaches its governed reason name and group. Unknown reason ids map to the
// "Not Mapped" / "Other" placeholders, never to an error.
func ExtractFormalCancels(events []model.FormalCancelEvent, tables *taxonomy.Tables) (map[string]model.FormalCancelSignal, []model.AuditRecord) {
	sel := selector[model.FormalCancelEvent]{
		feed: "cancels",
		key:  func(e model.FormalCancelEvent) string { return e.OrderUUID },
		ts:   func(e model.FormalCancelEvent) time.Time { return e.Timestamp },
		id:   func(e model.FormalCancelEvent) string { return e.RecordID },
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.FormalCancelSignal, len(winners))
	for order, ev := range winners {
		name, group := tables.CancelReasons.Lookup(ev.CancelReasonID)

		out[order] = model.FormalCancelSignal{
			SourceSignal: model.SourceSignal{
				OrderUUID:      order,
				Type:           model.SignalFormalCancel,
				RawReason:      ev.CancelReasonID,
				ResolvedReason: name,
				EventTime:      ev.Timestamp,
			},
			ReasonName:      name,
			ReasonGroup:     group,
			TicketID:        ev.TicketID,
			StatusCancelled: ev.StatusCancel,
		}
	}
	return out, audit
}
