// Package pipeline wires the full run: feed load, per-source extraction,
// integration, classification, costing, and the final rollup.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mealcart/carecost-cli/internal/classify"
	"github.com/mealcart/carecost-cli/internal/feed"
	"github.com/mealcart/carecost-cli/internal/integrate"
	"github.com/mealcart/carecost-cli/internal/model"
	"github.com/mealcart/carecost-cli/internal/rollup"
	"github.com/mealcart/carecost-cli/internal/signal"
	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

// Inputs holds the path of each upstream dump file.
type Inputs struct {
	Adjustments        string
	GuaranteeClaims    string
	Concessions        string
	SelfServiceCancels string
	Cancels            string
	Contacts           string
	DeliveryFacts      string
	RestaurantRefunds  string
	FinancialFacts     string
}

// InputsFromDir maps the conventional feed file names under dir.
func InputsFromDir(dir string) Inputs {
	return Inputs{
		Adjustments:        filepath.Join(dir, "adjustments.csv"),
		GuaranteeClaims:    filepath.Join(dir, "guarantee_claims.csv"),
		Concessions:        filepath.Join(dir, "concessions.csv"),
		SelfServiceCancels: filepath.Join(dir, "self_service_cancels.csv"),
		Cancels:            filepath.Join(dir, "cancels.csv"),
		Contacts:           filepath.Join(dir, "contacts.csv"),
		DeliveryFacts:      filepath.Join(dir, "delivery_facts.csv"),
		RestaurantRefunds:  filepath.Join(dir, "restaurant_refunds.csv"),
		FinancialFacts:     filepath.Join(dir, "financial_facts.csv"),
	}
}

// Options configures one run.
type Options struct {
	Inputs     Inputs
	Window     model.Window
	Scope      integrate.Scope
	Tables     *taxonomy.Tables
	Dimensions []string
}

// Stats summarizes a run for logging and persistence.
type Stats struct {
	BaseOrders    int           `json:"base_orders"`
	InScopeOrders int           `json:"in_scope_orders"`
	FlaggedRows   int           `json:"flagged_rows"`
	Groups        int           `json:"groups"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Result is the complete output of one run.
type Result struct {
	RunID  string                 `json:"run_id"`
	Window model.Window           `json:"window"`
	Scope  integrate.Scope        `json:"scope"`
	Rows   []model.AggregationRow `json:"rows"`
	Orders []model.EnrichedOrder  `json:"-"`
	Audit  []model.AuditRecord    `json:"audit,omitempty"`
	Stats  Stats                  `json:"stats"`
}

// feeds holds the raw batches after the parallel load.
type feeds struct {
	adjustments        []model.AdjustmentEvent
	guaranteeClaims    []model.GuaranteeClaimEvent
	concessions        []model.ConcessionEvent
	selfServiceCancels []model.SelfServiceCancelEvent
	cancels            []model.FormalCancelEvent
	contacts           []model.ContactEvent
	deliveryFacts      []model.DeliveryFactEvent
	restaurantRefunds  []model.RestaurantRefundEvent
	financialFacts     []model.FinancialFact

	audit [9][]model.AuditRecord
}

// Run executes the full pipeline. Row-level data issues accumulate into the
// audit list; structural contract violations abort.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	started := time.Now()

	if opts.Tables == nil {
		opts.Tables = taxonomy.Defaults()
	}

	var f feeds
	if err := loadFeeds(ctx, opts.Inputs, opts.Window, &f); err != nil {
		return nil, err
	}

	var audit []model.AuditRecord
	for _, a := range f.audit {
		audit = append(audit, a...)
	}

	// Contacts resolve first: adjustments and concessions borrow their
	// reason when the source record has none of its own.
	contacts, a := signalContacts(&f, opts.Tables)
	audit = append(audit, a...)

	sigs, a := extractAll(&f, contacts, opts.Tables)
	audit = append(audit, a...)

	orders, err := integrate.Run(f.financialFacts, sigs, opts.Tables, opts.Scope)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		classify.Apply(&orders[i], opts.Tables)
	}

	rows, err := rollup.Aggregate(orders, opts.Dimensions)
	if err != nil {
		return nil, err
	}
	if err := checkInvariants(rows); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:  uuid.New().String(),
		Window: opts.Window,
		Scope:  opts.Scope,
		Rows:   rows,
		Orders: orders,
		Audit:  audit,
		Stats: Stats{
			BaseOrders:    len(f.financialFacts),
			InScopeOrders: len(orders),
			FlaggedRows:   len(audit),
			Groups:        len(rows),
			Elapsed:       time.Since(started),
		},
	}

	log.Info("run complete",
		zap.String("run_id", res.RunID),
		zap.Int("base_orders", res.Stats.BaseOrders),
		zap.Int("in_scope_orders", res.Stats.InScopeOrders),
		zap.Int("groups", res.Stats.Groups),
		zap.Int("flagged_rows", res.Stats.FlaggedRows),
		zap.Duration("elapsed", res.Stats.Elapsed),
	)

	return res, nil
}

// loadFeeds reads every dump file concurrently. Sources are independent, so
// a read failure on any one of them fails the load as a whole.
func loadFeeds(ctx context.Context, in Inputs, w model.Window, f *feeds) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		f.adjustments, f.audit[0], err = feed.ReadAdjustments(in.Adjustments, w)
		return err
	})
	g.Go(func() (err error) {
		f.guaranteeClaims, f.audit[1], err = feed.ReadGuaranteeClaims(in.GuaranteeClaims, w)
		return err
	})
	g.Go(func() (err error) {
		f.concessions, f.audit[2], err = feed.ReadConcessions(in.Concessions, w)
		return err
	})
	g.Go(func() (err error) {
		f.selfServiceCancels, f.audit[3], err = feed.ReadSelfServiceCancels(in.SelfServiceCancels, w)
		return err
	})
	g.Go(func() (err error) {
		f.cancels, f.audit[4], err = feed.ReadFormalCancels(in.Cancels, w)
		return err
	})
	g.Go(func() (err error) {
		f.contacts, f.audit[5], err = feed.ReadContacts(in.Contacts, w)
		return err
	})
	g.Go(func() (err error) {
		f.deliveryFacts, f.audit[6], err = feed.ReadDeliveryFacts(in.DeliveryFacts, w)
		return err
	})
	g.Go(func() (err error) {
		f.restaurantRefunds, f.audit[7], err = feed.ReadRestaurantRefunds(in.RestaurantRefunds, w)
		return err
	})
	g.Go(func() (err error) {
		f.financialFacts, f.audit[8], err = feed.ReadFinancialFacts(in.FinancialFacts, w)
		return err
	})

	return g.Wait()
}

func signalContacts(f *feeds, tables *taxonomy.Tables) (map[string]model.ContactSignal, []model.AuditRecord) {
	return signal.ExtractContacts(f.contacts, tables)
}

func extractAll(f *feeds, contacts map[string]model.ContactSignal, tables *taxonomy.Tables) (integrate.Signals, []model.AuditRecord) {
	var audit []model.AuditRecord

	adjustments, a := signal.ExtractAdjustments(f.adjustments, contacts, tables)
	audit = append(audit, a...)
	guarantees, a := signal.ExtractGuaranteeClaims(f.guaranteeClaims, tables)
	audit = append(audit, a...)
	concessions, a := signal.ExtractConcessions(f.concessions, contacts, tables)
	audit = append(audit, a...)
	selfCancels, a := signal.ExtractSelfServiceCancels(f.selfServiceCancels)
	audit = append(audit, a...)
	cancels, a := signal.ExtractFormalCancels(f.cancels, tables)
	audit = append(audit, a...)
	deliveries, a := signal.ExtractDeliveryFacts(f.deliveryFacts)
	audit = append(audit, a...)
	refunds, a := signal.ExtractRestaurantRefunds(f.restaurantRefunds)
	audit = append(audit, a...)

	return integrate.Signals{
		Adjustments:        adjustments,
		GuaranteeClaims:    guarantees,
		Concessions:        concessions,
		SelfServiceCancels: selfCancels,
		FormalCancels:      cancels,
		Deliveries:         deliveries,
		Contacts:           contacts,
		RestaurantRefunds:  refunds,
	}, audit
}

// checkInvariants verifies the cross-metric sanity rules on every rollup
// row. A violation means an upstream integration bug, so the run aborts.
func checkInvariants(rows []model.AggregationRow) error {
	for _, r := range rows {
		if r.GHDOrders > r.Orders {
			return eris.Errorf("pipeline: group %v has ghd_orders %d > orders %d", r.Dimensions, r.GHDOrders, r.Orders)
		}
		if r.OrdersWithCareCost > r.Orders {
			return eris.Errorf("pipeline: group %v has orders_with_care_cost %d > orders %d", r.Dimensions, r.OrdersWithCareCost, r.Orders)
		}
		if r.CancelledOrders > r.Orders {
			return eris.Errorf("pipeline: group %v has cancelled %d > orders %d", r.Dimensions, r.CancelledOrders, r.Orders)
		}
	}
	return nil
}
