package signal

import (
	"time"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// ExtractContacts resolves one support contact per order. The secondary
// contact reason is preferred over the primary one: the more granular
// classification wins.
func ExtractContacts(events []model.ContactEvent, tables *taxonomy.Tables) (map[string]model.ContactSignal, []model.AuditRecord) {
	sel := selector[model.ContactEvent]{
		feed: "contacts",
		key:  func(e model.ContactEvent) string { return e.OrderUUID },
		ts:   func(e model.ContactEvent) time.Time { return e.Timestamp },
		id:   func(e model.ContactEvent) string { return e.RecordID },
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.ContactSignal, len(winners))
	for order, ev := range winners {
		reasonID := ev.SecondaryReasonID
		if reasonID == "" {
			reasonID = ev.PrimaryReasonID
		}
		raw := tables.ContactNames.Lookup(reasonID)

		out[order] = model.ContactSignal{
			SourceSignal: model.SourceSignal{
				OrderUUID:      order,
				Type:           model.SignalContact,
				RawReason:      raw,
				ResolvedReason: tables.Item.Resolve(raw),
				EventTime:      ev.Timestamp,
			},
			TicketID:  ev.TicketID,
			Group:     tables.ContactGroups.Lookup(reasonID),
			Automated: ev.Automated,
			Worked:    ev.Worked,
		}
	}
	return out, audit
}
