package signal

import (
	"time"

	"github.com/mealcart/carecost-cli/internal/model"
)

// ExtractDeliveryFacts resolves one status-milestone signal per order from
// the delivery-fact feed. This source allows multiple rows per order; the
// earliest-created row is authoritative.
func ExtractDeliveryFacts(events []model.DeliveryFactEvent) (map[string]model.DeliverySignal, []model.AuditRecord) {
	sel := selector[model.DeliveryFactEvent]{
		feed:     "delivery_facts",
		key:      func(e model.DeliveryFactEvent) string { return e.OrderUUID },
		ts:       func(e model.DeliveryFactEvent) time.Time { return e.OrderCreated },
		id:       func(e model.DeliveryFactEvent) string { return e.RecordID },
		earliest: true,
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.DeliverySignal, len(winners))
	for order, ev := range winners {
		late := !ev.DroppedOffAt.IsZero() && !ev.ETA.IsZero() && ev.DroppedOffAt.After(ev.ETA)

		out[order] = model.DeliverySignal{
			SourceSignal: model.SourceSignal{
				OrderUUID: order,
				Type:      model.SignalStatusMilestone,
				EventTime: ev.OrderCreated,
			},
			OrderCreated:    ev.OrderCreated,
			ETA:             ev.ETA,
			DroppedOffAt:    ev.DroppedOffAt,
			Late:            late,
			Bundle:          ev.Bundle,
			FulfillmentType: ev.FulfillmentType,
		}
	}
	return out, audit
}
