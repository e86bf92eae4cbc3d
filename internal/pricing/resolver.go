package pricing

import "kioskpos/internal/domain"

const (
	LegacySizes   = "sizes"
	LegacyOrigins = "origins"

	sizeGroupName   = "규격 (Size)"
	originGroupName = "원산지 (Origin)"
)

// Selections maps an option group name to the chosen value.
type Selections map[string]string

// Mode is how a product prices its options. It is chosen once per product
// by ModeOf and is either CombinationMode or LegacyAxesMode.
type Mode interface {
	Groups() []domain.OptionGroup
	extra(sel Selections) int
}

// CombinationMode prices a selection by looking up its canonical name.
type CombinationMode struct {
	groups []domain.OptionGroup
	prices map[string]int
}

func (m CombinationMode) Groups() []domain.OptionGroup { return m.groups }

// A name with no combination (removed or renamed) costs nothing extra.
func (m CombinationMode) extra(sel Selections) int {
	return m.prices[m.Name(sel)]
}

// Name is the canonical combination name of sel in group order.
func (m CombinationMode) Name(sel Selections) string {
	vals := make([]string, len(m.groups))
	for i, g := range m.groups {
		vals[i] = sel[g.Name]
	}
	return CanonicalName(vals)
}

// LegacyAxesMode sums per-value extras of the sizes and origins axes.
// Groups without a legacy tag contribute nothing.
type LegacyAxesMode struct {
	groups []domain.OptionGroup
	axes   map[string][]domain.AxisValue
}

func (m LegacyAxesMode) Groups() []domain.OptionGroup { return m.groups }

func (m LegacyAxesMode) extra(sel Selections) int {
	total := 0
	for _, g := range m.groups {
		for _, v := range m.axes[g.Legacy] {
			if v.Name == sel[g.Name] {
				total += v.Price
				break
			}
		}
	}
	return total
}

// GroupsOf returns the product's option groups, falling back to groups
// derived from the legacy sizes and origins lists.
func GroupsOf(p domain.Product) []domain.OptionGroup {
	if len(p.OptionGroups) > 0 {
		return p.OptionGroups
	}
	var groups []domain.OptionGroup
	if len(p.Sizes) > 0 {
		groups = append(groups, domain.OptionGroup{Name: sizeGroupName, Values: axisNames(p.Sizes), Legacy: LegacySizes})
	}
	if len(p.Origins) > 0 {
		groups = append(groups, domain.OptionGroup{Name: originGroupName, Values: axisNames(p.Origins), Legacy: LegacyOrigins})
	}
	return groups
}

func axisNames(vals []domain.AxisValue) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Name
	}
	return out
}

func ModeOf(p domain.Product) Mode {
	groups := GroupsOf(p)
	if p.IsComplexOptions {
		prices := make(map[string]int, len(p.Combinations))
		for _, c := range p.Combinations {
			if _, dup := prices[c.Name]; !dup {
				prices[c.Name] = c.Price
			}
		}
		return CombinationMode{groups: groups, prices: prices}
	}
	return LegacyAxesMode{groups: groups, axes: map[string][]domain.AxisValue{
		LegacySizes:   p.Sizes,
		LegacyOrigins: p.Origins,
	}}
}

// Quote is the price of one unit under a selection.
type Quote struct {
	Base  int `json:"base"`
	Extra int `json:"extra"`
	Unit  int `json:"unit"`
}

func (q Quote) Total(qty int) int { return q.Unit * ClampQty(qty) }

// Resolver prices selections for one product.
type Resolver struct {
	Product domain.Product
	Mode    Mode
}

func NewResolver(p domain.Product) Resolver { return Resolver{Product: p, Mode: ModeOf(p)} }

func (r Resolver) Quote(sel Selections) Quote {
	extra := r.Mode.extra(sel)
	return Quote{Base: r.Product.Price, Extra: extra, Unit: r.Product.Price + extra}
}

// Delta is the signed price change of switching group to candidate. ok is
// false when the switch does not change the price.
func (r Resolver) Delta(group, candidate string, sel Selections) (diff int, ok bool) {
	next := make(Selections, len(sel)+1)
	for k, v := range sel {
		next[k] = v
	}
	next[group] = candidate
	diff = r.Mode.extra(next) - r.Mode.extra(sel)
	return diff, diff != 0
}

// CommitName is the label a selection is committed to the cart under.
func (r Resolver) CommitName(sel Selections) string {
	vals := make([]string, 0, len(r.Mode.Groups()))
	for _, g := range r.Mode.Groups() {
		vals = append(vals, sel[g.Name])
	}
	return CanonicalName(vals)
}

// DefaultSelections picks the first value of every group.
func DefaultSelections(groups []domain.OptionGroup) Selections {
	sel := make(Selections, len(groups))
	for _, g := range groups {
		if len(g.Values) > 0 {
			sel[g.Name] = g.Values[0]
		}
	}
	return sel
}

// Normalize keeps the known values of sel and fills the rest with defaults.
func Normalize(groups []domain.OptionGroup, sel Selections) Selections {
	out := DefaultSelections(groups)
	for _, g := range groups {
		v, ok := sel[g.Name]
		if !ok {
			continue
		}
		for _, known := range g.Values {
			if known == v {
				out[g.Name] = v
				break
			}
		}
	}
	return out
}

// ClampQty floors a quantity at 1.
func ClampQty(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// StepQty applies a +/- step; stepping below 1 leaves the quantity as is.
func StepQty(cur, step int) int {
	cur = ClampQty(cur)
	if cur+step < 1 {
		return cur
	}
	return cur + step
}
