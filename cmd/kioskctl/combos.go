package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kioskpos/internal/pricing"
)

// parseGroupFlag reads "Size=S,M" into a raw group.
func parseGroupFlag(s string) (pricing.RawGroup, error) {
	name, values, ok := strings.Cut(s, "=")
	if !ok {
		return pricing.RawGroup{}, fmt.Errorf("group %q: want NAME=V1,V2", s)
	}
	return pricing.RawGroup{Name: name, Values: values}, nil
}

func newCombosCmd() *cobra.Command {
	var groups []string
	combos := &cobra.Command{Use: "combos", Short: "Option combination tools"}
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the combinations a set of option groups expands to",
		Example: `  kioskctl combos preview -g "Size=S,M" -g "Color=Red,Blue"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make([]pricing.RawGroup, 0, len(groups))
			for _, g := range groups {
				rg, err := parseGroupFlag(g)
				if err != nil {
					return err
				}
				raw = append(raw, rg)
			}
			_, out, err := pricing.GenerateCombinations(raw)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range out {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
			}
			fmt.Fprintf(w, "%d combinations\n", len(out))
			return nil
		},
	}
	preview.Flags().StringArrayVarP(&groups, "group", "g", nil, "option group as NAME=V1,V2 (repeatable)")
	combos.AddCommand(preview)
	return combos
}
