package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kioskpos/internal/catalog"
	"kioskpos/internal/domain"
	"kioskpos/internal/pricing"
)

func newCatalogCmd() *cobra.Command {
	cat := &cobra.Command{Use: "catalog", Short: "Inspect the backend catalog"}
	cat.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the category tree with each category's products",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend()
			cats, err := api.Categories()
			if err != nil {
				return err
			}
			products, err := api.Products()
			if err != nil {
				return err
			}
			dumpCatalog(cmd.OutOrStdout(), catalog.NewTree(cats), products)
			return nil
		},
	})
	return cat
}

func dumpCatalog(w io.Writer, tree *catalog.Tree, products []domain.Product) {
	byCat := map[string][]domain.Product{}
	for _, p := range products {
		leaf := p.MainCategory
		if p.SubCategory != "" {
			leaf = p.SubCategory
		}
		if p.DetailCategory != "" {
			leaf = p.DetailCategory
		}
		byCat[leaf] = append(byCat[leaf], p)
	}
	var walk func(c domain.Category, depth int)
	walk = func(c domain.Category, depth int) {
		indent := fmt.Sprintf("%*s", depth*2, "")
		fmt.Fprintf(w, "%s%s [%s]\n", indent, c.Name, c.ID)
		for _, p := range byCat[c.ID] {
			fmt.Fprintf(w, "%s  - %s %s", indent, p.Name, pricing.Won(p.Price))
			if n := len(p.Combinations); n > 0 {
				fmt.Fprintf(w, " (%d combinations)", n)
			}
			fmt.Fprintln(w)
		}
		for _, child := range tree.Children(c.ID) {
			walk(child, depth+1)
		}
	}
	for _, m := range tree.Mains() {
		walk(m, 0)
	}
}
