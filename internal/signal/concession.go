package signal

import (
	"time"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// ExtractConcessions resolves one goodwill concession per order. A
// concession event carries no reason of its own; the linked support
// contact's reason supplies the narrative.
func ExtractConcessions(events []model.ConcessionEvent, contacts map[string]model.ContactSignal, tables *taxonomy.Tables) (map[string]model.ConcessionSignal, []model.AuditRecord) {
	sel := selector[model.ConcessionEvent]{
		feed: "concessions",
		key:  func(e model.ConcessionEvent) string { return e.OrderUUID },
		ts:   func(e model.ConcessionEvent) time.Time { return e.Timestamp },
		id:   func(e model.ConcessionEvent) string { return e.RecordID },
	}
	winners, audit := sel.run(events)

	out := make(map[string]model.ConcessionSignal, len(winners))
	for order, ev := range winners {
		var raw string
		if c, ok := contacts[order]; ok {
			raw = c.RawReason
		}

		out[order] = model.ConcessionSignal{
			SourceSignal: model.SourceSignal{
				OrderUUID:      order,
				Type:           model.SignalConcession,
				RawReason:      raw,
				ResolvedReason: tables.Item.Resolve(raw),
				EventTime:      ev.Timestamp,
			},
			TicketID: ev.TicketID,
		}
	}
	return out, audit
}
