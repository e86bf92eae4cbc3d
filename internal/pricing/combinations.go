package pricing

import (
	"fmt"
	"strings"

	"kioskpos/internal/domain"
)

const (
	Separator = " / "
	MaxGroups = 3
)

// RawGroup is an option group as typed by an operator: values is a
// comma-separated list.
type RawGroup struct {
	Name   string `json:"name" form:"name"`
	Values string `json:"values" form:"values"`
}

var errNoGroups = domain.Invalid("optionGroups", "at least one option group with name and values required")

// ParseGroups drops groups with a blank name or blank values and splits the
// rest on commas. Duplicate values are kept as given.
func ParseGroups(raw []RawGroup) ([]domain.OptionGroup, error) {
	var groups []domain.OptionGroup
	for _, g := range raw {
		name := strings.TrimSpace(g.Name)
		if name == "" || strings.TrimSpace(g.Values) == "" {
			continue
		}
		groups = append(groups, domain.OptionGroup{Name: name, Values: splitValues(g.Values)})
	}
	if len(groups) == 0 {
		return nil, errNoGroups
	}
	if len(groups) > MaxGroups {
		return nil, domain.Invalid("optionGroups", fmt.Sprintf("at most %d option groups allowed", MaxGroups))
	}
	return groups, nil
}

func splitValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// GenerateCombinations expands the groups into their Cartesian product, the
// first group varying slowest. Every combination starts at price 0.
func GenerateCombinations(raw []RawGroup) ([]domain.OptionGroup, []domain.Combination, error) {
	groups, err := ParseGroups(raw)
	if err != nil {
		return nil, nil, err
	}
	tuples := Cartesian(groups)
	if len(tuples) == 0 {
		return nil, nil, errNoGroups
	}
	combos := make([]domain.Combination, len(tuples))
	for i, tuple := range tuples {
		combos[i] = domain.Combination{ID: fmt.Sprintf("c-%d", i), Name: CanonicalName(tuple)}
	}
	return groups, combos, nil
}

// Cartesian returns one tuple per element of the product of the group
// values. A group without values empties the whole product.
func Cartesian(groups []domain.OptionGroup) [][]string {
	if len(groups) == 0 {
		return nil
	}
	out := [][]string{{}}
	for _, g := range groups {
		next := make([][]string, 0, len(out)*len(g.Values))
		for _, prefix := range out {
			for _, v := range g.Values {
				tuple := make([]string, len(prefix), len(prefix)+1)
				copy(tuple, prefix)
				next = append(next, append(tuple, v))
			}
		}
		out = next
	}
	return out
}

func CanonicalName(values []string) string { return strings.Join(values, Separator) }

// MergePrices carries prices over from previous combinations with the same
// name, so regenerating after adding a value keeps the operator's edits.
func MergePrices(fresh, previous []domain.Combination) []domain.Combination {
	prices := make(map[string]domain.Combination, len(previous))
	for _, c := range previous {
		prices[c.Name] = c
	}
	out := make([]domain.Combination, len(fresh))
	for i, c := range fresh {
		if old, ok := prices[c.Name]; ok {
			c.Price, c.ErpCode = old.Price, old.ErpCode
		}
		out[i] = c
	}
	return out
}
