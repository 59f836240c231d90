package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-rubric/internal/domain"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List challenge categories and the pathology vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Categories:")
			for _, c := range domain.Categories() {
				fmt.Fprintf(w, "  %-11s %s\n", c, strings.Join(c.SpecializationFields(), ", "))
			}
			fmt.Fprintln(w, "Pathologies:")
			for _, p := range domain.Pathologies() {
				fmt.Fprintf(w, "  %s\n", p)
			}
			return nil
		},
	}
}
