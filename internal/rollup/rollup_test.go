package rollup

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealcart/carecost-cli/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(uuid, segment, group string, total string) model.EnrichedOrder {
	return model.EnrichedOrder{
		OrderUUID:     uuid,
		DeliveryDate:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		MarketSegment: segment,
		ReasonGroup:   group,
		ETACareReason: model.ETAOther,
		TotalCareCost: d(total),
	}
}

func TestValidateDimensions(t *testing.T) {
	require.NoError(t, ValidateDimensions(DefaultDimensions))
	require.NoError(t, ValidateDimensions([]string{"ghd", "late", "delivery_date"}))

	err := ValidateDimensions([]string{"market_segment", "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dimension "bogus"`)
}

func TestAggregate_GroupsAndSums(t *testing.T) {
	orders := []model.EnrichedOrder{
		order("o-1", "CA", model.GroupLogistics, "-5.00"),
		order("o-2", "CA", model.GroupLogistics, "-2.50"),
		order("o-3", "ROM", model.GroupNoCareCost, "0"),
	}
	orders[0].ManagedDelivery = true
	orders[0].Late = true

	rows, err := Aggregate(orders, DefaultDimensions)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by dimension values, so CA before ROM.
	ca := rows[0]
	assert.Equal(t, []string{"CA", model.GroupLogistics, model.ETAOther}, ca.Dimensions)
	assert.Equal(t, "CA", ca.ByName["market_segment"])
	assert.Equal(t, 2, ca.Orders)
	assert.Equal(t, 2, ca.DistinctOrders)
	assert.Equal(t, 1, ca.GHDOrders)
	assert.Equal(t, 1, ca.LateOrders)
	assert.Equal(t, 2, ca.OrdersWithCareCost)
	assert.True(t, ca.TotalCareCost.Equal(d("-7.50")))

	rom := rows[1]
	assert.Equal(t, 1, rom.Orders)
	assert.Equal(t, 0, rom.OrdersWithCareCost)
	assert.True(t, rom.TotalCareCost.IsZero())
}

func TestAggregate_DeterministicOrdering(t *testing.T) {
	orders := []model.EnrichedOrder{
		order("o-1", "ROM", model.GroupDiner, "-1.00"),
		order("o-2", "CA", model.GroupLogistics, "-1.00"),
		order("o-3", "DCWP", model.GroupRestaurant, "-1.00"),
	}

	first, err := Aggregate(orders, DefaultDimensions)
	require.NoError(t, err)

	// Reversed input must produce identical output.
	reversed := []model.EnrichedOrder{orders[2], orders[1], orders[0]}
	second, err := Aggregate(reversed, DefaultDimensions)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregate_EmptyDimensionValueGroups(t *testing.T) {
	// Orders with an absent dimension value form their own group rather
	// than being dropped or merged into a neighbor.
	orders := []model.EnrichedOrder{
		order("o-1", "", model.GroupDiner, "-1.00"),
		order("o-2", "", model.GroupDiner, "-2.00"),
		order("o-3", "CA", model.GroupDiner, "-4.00"),
	}

	rows, err := Aggregate(orders, []string{"market_segment", "reason_group"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "", rows[0].ByName["market_segment"])
	assert.Equal(t, 2, rows[0].Orders)
	assert.True(t, rows[0].TotalCareCost.Equal(d("-3.00")))
}

func TestAggregate_FanOutAborts(t *testing.T) {
	orders := []model.EnrichedOrder{
		order("o-1", "CA", model.GroupDiner, "-1.00"),
		order("o-1", "CA", model.GroupDiner, "-1.00"),
	}

	_, err := Aggregate(orders, DefaultDimensions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fanned out")
}

func TestAggregate_DefaultDimensionsWhenEmpty(t *testing.T) {
	rows, err := Aggregate([]model.EnrichedOrder{order("o-1", "CA", model.GroupDiner, "-1.00")}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Dimensions, len(DefaultDimensions))
}

func TestAggregate_BooleanDimensions(t *testing.T) {
	o1 := order("o-1", "CA", model.GroupDiner, "-1.00")
	o1.ShopAndPay = true
	o2 := order("o-2", "CA", model.GroupDiner, "-1.00")

	rows, err := Aggregate([]model.EnrichedOrder{o1, o2}, []string{"shop_and_pay"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "shop_and_pay", rows[0].Dimensions[0])
	assert.Equal(t, 1, rows[0].ShopAndPayOrders)
	assert.Equal(t, "standard", rows[1].Dimensions[0])
	assert.Equal(t, 0, rows[1].ShopAndPayOrders)
}
