package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCombineAdjustCancel(t *testing.T) {
	tests := []struct {
		name       string
		cancel     string
		adjustment string
		expected   string
	}{
		{"cancel wins", "Restaurant closed", "late order", "Restaurant closed"},
		{"empty cancel falls back", "", "late order", "late order"},
		{"not mapped is absence", model.ReasonNotMapped, "late order", "late order"},
		{"both empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, combineAdjustCancel(tt.cancel, tt.adjustment))
		})
	}
}

func TestApply_ZeroCostShortCircuits(t *testing.T) {
	// Reason text alone never groups an order that cost nothing.
	o := model.EnrichedOrder{CancelReasonName: "Restaurant closed", CancelGroup: model.GroupRestaurant}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupNoCareCost, o.ReasonGroup)
	assert.Equal(t, model.ETAOther, o.ETACareReason)
}

func TestApply_RedeliveryOutranksReasonText(t *testing.T) {
	// "incorrect order" reads as a restaurant issue, but the redelivery
	// cost is an operational fact and wins.
	o := model.EnrichedOrder{
		AdjustmentReason: "incorrect order",
		RedeliveryCost:   d("-7.50"),
		TotalCareCost:    d("-7.50"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupLogistics, o.ReasonGroup)
}

func TestApply_CancelGroupPrecedesTextClassification(t *testing.T) {
	o := model.EnrichedOrder{
		CancelReasonName: "Diner changed mind",
		CancelGroup:      model.GroupDiner,
		AdjustmentReason: "missing item",
		TotalCareCost:    d("-5.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupDiner, o.ReasonGroup)
}

func TestApply_OtherCancelGroupFallsThrough(t *testing.T) {
	// The "Other" placeholder never decides a group; the combined reason
	// classifies instead.
	o := model.EnrichedOrder{
		CancelReasonName: model.ReasonNotMapped,
		CancelGroup:      model.GroupOther,
		AdjustmentReason: "missing item",
		TotalCareCost:    d("-5.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, "missing item", o.CombinedReason)
	assert.Equal(t, model.GroupRestaurant, o.ReasonGroup)
}

func TestApply_FreeGrubReasonClassifies(t *testing.T) {
	o := model.EnrichedOrder{
		GuaranteeClaimReason: "late order",
		ConcessionAmount:     d("-3.00"),
		TotalCareCost:        d("-3.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, "late order", o.FreeGrubReason)
	assert.Equal(t, model.GroupLogistics, o.ReasonGroup)
	assert.Equal(t, model.ETAIssues, o.ETACareReason)
}

func TestApply_FreeGrubBackfillsFromCombined(t *testing.T) {
	// A concession cost with no guarantee claim and no concession reason
	// backfills the combined reason so the cost stays attributable.
	o := model.EnrichedOrder{
		AdjustmentReason: "missing item",
		ConcessionAmount: d("-3.00"),
		TotalCareCost:    d("-3.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, "missing item", o.FreeGrubReason)
}

func TestApply_NoBackfillWithoutConcessionCost(t *testing.T) {
	o := model.EnrichedOrder{
		AdjustmentReason: "missing item",
		DinerAdjustment:  d("-5.00"),
		TotalCareCost:    d("-5.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, "", o.FreeGrubReason)
	assert.Equal(t, model.GroupRestaurant, o.ReasonGroup)
}

func TestApply_ContactGroupFallback(t *testing.T) {
	o := model.EnrichedOrder{
		ContactGroup:    model.GroupDiner,
		DinerAdjustment: d("-5.00"),
		TotalCareCost:   d("-5.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupDiner, o.ReasonGroup)
}

func TestApply_NotGroupedTerminal(t *testing.T) {
	o := model.EnrichedOrder{
		DinerAdjustment: d("-5.00"),
		TotalCareCost:   d("-5.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupNotGrouped, o.ReasonGroup)
}

func TestApply_ETAIssuesFromLateFlag(t *testing.T) {
	o := model.EnrichedOrder{
		Late:           true,
		RedeliveryCost: d("-7.50"),
		TotalCareCost:  d("-7.50"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupLogistics, o.ReasonGroup)
	assert.Equal(t, model.ETAIssues, o.ETACareReason)
}

func TestApply_ETAOtherOutsideLogistics(t *testing.T) {
	// A late order whose cost classifies as a restaurant issue is not an
	// ETA issue; the split only applies inside the logistics group.
	o := model.EnrichedOrder{
		Late:             true,
		AdjustmentReason: "missing item",
		DinerAdjustment:  d("-5.00"),
		TotalCareCost:    d("-5.00"),
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupRestaurant, o.ReasonGroup)
	assert.Equal(t, model.ETAOther, o.ETACareReason)
}

func TestApply_UnmappedReasonFallsToContactGroup(t *testing.T) {
	// A reason no group rule matches must not leak into the group vocabulary;
	// it stays visible as the combined reason while the contact-mapped group
	// decides the rollup bucket.
	o := model.EnrichedOrder{
		DinerAdjustment:  d("-5.00"),
		TotalCareCost:    d("-5.00"),
		AdjustmentReason: "goodwill gesture q3",
		ContactGroup:     model.GroupDiner,
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, "goodwill gesture q3", o.CombinedReason)
	assert.Equal(t, model.GroupDiner, o.ReasonGroup)
}

func TestApply_UnmappedReasonWithoutContactIsNotGrouped(t *testing.T) {
	o := model.EnrichedOrder{
		DinerAdjustment:  d("-5.00"),
		TotalCareCost:    d("-5.00"),
		AdjustmentReason: "goodwill gesture q3",
	}
	Apply(&o, taxonomy.Defaults())

	assert.Equal(t, model.GroupNotGrouped, o.ReasonGroup)
}
