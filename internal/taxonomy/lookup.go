package taxonomy

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/mealcart/carecost-cli/internal/model"
)

// CancelReason is one governed cancellation-reason row.
type CancelReason struct {
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
}

// CancelReasonMap maps cancel_reason_id to its governed name and group.
// Missing keys resolve to the documented placeholders, never to an error.
type CancelReasonMap map[string]CancelReason

// Lookup returns the governed name and group for a cancel reason id,
// defaulting to "Not Mapped" / "Other" when the id is unknown.
func (m CancelReasonMap) Lookup(reasonID string) (name, group string) {
	if r, ok := m[strings.TrimSpace(reasonID)]; ok {
		return r.Name, r.Group
	}
	return model.ReasonNotMapped, model.GroupOther
}

// ContactReasonMap maps a contact reason id to its care-cost reason group.
type ContactReasonMap map[string]string

// Lookup returns the care-cost group for a contact reason id, defaulting to
// "not grouped".
func (m ContactReasonMap) Lookup(reasonID string) string {
	if g, ok := m[strings.TrimSpace(reasonID)]; ok {
		return g
	}
	return model.GroupNotGrouped
}

// ContactReasonNames maps contact reason ids to their display names, used as
// the fallback reason text for adjustments and concessions.
type ContactReasonNames map[string]string

// Lookup returns the display name for a contact reason id, or "" if unknown.
func (m ContactReasonNames) Lookup(reasonID string) string {
	return m[strings.TrimSpace(reasonID)]
}

// MarketMap maps region ids to a named market segment. Regions absent from
// the map fall into the rest-of-market segment.
type MarketMap struct {
	Segments map[string][]string `yaml:"segments"` // segment -> region ids
	Default  string              `yaml:"default"`

	byRegion map[string]string
}

// Segment returns the market segment for a region id.
func (m *MarketMap) Segment(regionID string) string {
	if m.byRegion == nil {
		m.byRegion = make(map[string]string)
		for seg, regions := range m.Segments {
			for _, r := range regions {
				m.byRegion[r] = seg
			}
		}
	}
	if seg, ok := m.byRegion[strings.TrimSpace(regionID)]; ok {
		return seg
	}
	return m.Default
}

// DefaultMarketMap returns the built-in CA / DCWP / rest-of-market split.
func DefaultMarketMap() *MarketMap {
	return &MarketMap{
		Segments: map[string][]string{
			"CA":   {"los_angeles", "san_francisco", "san_diego", "sacramento", "san_jose"},
			"DCWP": {"new_york_city"},
		},
		Default: "ROM",
	}
}

// Tables bundles every governed lookup plus both rule sets for one run.
type Tables struct {
	Item          *RuleSet
	Group         *RuleSet
	CancelReasons CancelReasonMap
	ContactGroups ContactReasonMap
	ContactNames  ContactReasonNames
	Markets       *MarketMap
}

// Defaults returns the built-in taxonomy used when no files are configured.
func Defaults() *Tables {
	return &Tables{
		Item:          ItemRules(),
		Group:         GroupRules(),
		CancelReasons: CancelReasonMap{},
		ContactGroups: ContactReasonMap{},
		ContactNames:  ContactReasonNames{},
		Markets:       DefaultMarketMap(),
	}
}

// tablesFile is the YAML layout of an external taxonomy file.
type tablesFile struct {
	ItemRules     []Rule                  `yaml:"item_rules"`
	GroupRules    []Rule                  `yaml:"group_rules"`
	CancelReasons map[string]CancelReason `yaml:"cancel_reasons"`
	ContactGroups map[string]string       `yaml:"contact_groups"`
	ContactNames  map[string]string       `yaml:"contact_names"`
	Markets       *MarketMap              `yaml:"markets"`
}

// Load reads a taxonomy file and overlays it on the defaults. Sections
// absent from the file keep their built-in values.
func Load(path string) (*Tables, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: read file")
	}

	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "taxonomy: unmarshal")
	}

	if len(f.ItemRules) > 0 {
		t.Item = &RuleSet{Name: "item", Rules: f.ItemRules}
		if err := t.Item.Compile(); err != nil {
			return nil, err
		}
	}
	if len(f.GroupRules) > 0 {
		t.Group = &RuleSet{Name: "group", Rules: f.GroupRules}
		if err := t.Group.Compile(); err != nil {
			return nil, err
		}
	}
	if len(f.CancelReasons) > 0 {
		t.CancelReasons = f.CancelReasons
	}
	if len(f.ContactGroups) > 0 {
		t.ContactGroups = f.ContactGroups
	}
	if len(f.ContactNames) > 0 {
		t.ContactNames = f.ContactNames
	}
	if f.Markets != nil {
		t.Markets = f.Markets
	}

	return t, nil
}
