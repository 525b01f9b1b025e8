package costs

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mealcart/carecost-cli/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTicketCost(t *testing.T) {
	f := model.FinancialFact{
		DinerTicketCost:      d("-1.00"),
		DriverTicketCost:     d("-0.50"),
		RestaurantTicketCost: d("-0.25"),
		InternalTicketCost:   d("-0.25"),
	}
	assert.True(t, TicketCost(f).Equal(d("-2.00")))
}

func TestTicketCost_AllZero(t *testing.T) {
	assert.True(t, TicketCost(model.FinancialFact{}).IsZero())
}

func TestTotal_SumsWhitelistedComponents(t *testing.T) {
	o := model.EnrichedOrder{
		ConcessionAmount: d("-3.00"),
		TicketCost:       d("-2.00"),
		DinerAdjustment:  d("-5.00"),
		RedeliveryCost:   d("-7.50"),
		GrubRefund:       d("-1.50"),
	}
	assert.True(t, Total(&o).Equal(d("-19.00")))
}

func TestTotal_ExcludesRestaurantRefundAndAltCurrency(t *testing.T) {
	o := model.EnrichedOrder{
		ConcessionAmount:      d("-3.00"),
		RestaurantRefundTotal: d("-10.00"),
		AltCurrencyConcession: d("-20.00"),
	}
	assert.True(t, Total(&o).Equal(d("-3.00")))
}

func TestTotal_ZeroWhenNoComponents(t *testing.T) {
	var o model.EnrichedOrder
	assert.True(t, Total(&o).IsZero())
}

func TestTotal_ExactDecimalArithmetic(t *testing.T) {
	// 0.1 + 0.2 must come out exactly 0.3, not a float approximation.
	o := model.EnrichedOrder{
		ConcessionAmount: d("-0.10"),
		DinerAdjustment:  d("-0.20"),
	}
	assert.Equal(t, "-0.30", Total(&o).StringFixed(2))
}
