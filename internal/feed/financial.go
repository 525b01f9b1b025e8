package feed

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mealcart/carecost-cli/internal/model"
)

// financialMoneyCols lists the monetary columns of the financial-fact feed
// in struct order. A blank cell coalesces to zero; an unparsable one
// excludes the whole row to audit.
var financialMoneyCols = []string{
	"diner_adjustment",
	"concession_amount",
	"redelivery_cost",
	"grub_refund",
	"diner_ticket_cost",
	"driver_ticket_cost",
	"restaurant_ticket_cost",
	"internal_ticket_cost",
	"restaurant_refund_total",
	"alt_currency_concession",
}

// ReadFinancialFacts loads the base order set, scoped to the exact window
// (no one-day tolerance: the base set defines the run).
func ReadFinancialFacts(path string, w model.Window) ([]model.FinancialFact, []model.AuditRecord, error) {
	var facts []model.FinancialFact
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		date, err := parseTime(r.get("date"))
		if err != nil {
			audit = append(audit, flag("financial_facts", r, r.get("order_id"), "date", r.get("date"), err))
			return
		}
		if !w.Contains(date) {
			return
		}

		amounts := make([]decimal.Decimal, len(financialMoneyCols))
		for i, col := range financialMoneyCols {
			d, err := parseMoney(r.get(col))
			if err != nil {
				audit = append(audit, flag("financial_facts", r, r.get("order_id"), col, r.get(col), err))
				return
			}
			amounts[i] = d
		}

		facts = append(facts, model.FinancialFact{
			OrderUUID:       r.get("order_id"),
			DeliveryDate:    date,
			RegionID:        r.get("region_id"),
			ManagedDelivery: parseBool(r.get("managed_delivery_flag")),
			IsDelivery:      parseBool(r.get("delivery_flag")),

			DinerAdjustment:       amounts[0],
			ConcessionAmount:      amounts[1],
			RedeliveryCost:        amounts[2],
			GrubRefund:            amounts[3],
			DinerTicketCost:       amounts[4],
			DriverTicketCost:      amounts[5],
			RestaurantTicketCost:  amounts[6],
			InternalTicketCost:    amounts[7],
			RestaurantRefundTotal: amounts[8],
			AltCurrencyConcession: amounts[9],
		})
	})
	if err != nil {
		return nil, nil, err
	}

	if len(facts) == 0 {
		zap.L().Warn("feed: no financial facts in window",
			zap.String("start", w.Start.Format("2006-01-02")),
			zap.String("end", w.End.Format("2006-01-02")),
		)
	}

	return facts, audit, nil
}
