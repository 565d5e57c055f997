package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gnoverse/canopy/internal"
)

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List registered passes",
	Run: func(cmd *cobra.Command, args []string) {
		names := internal.PassNames()
		sort.Strings(names)

		core := make(map[string]bool)
		for _, name := range internal.DefaultOrder() {
			core[name] = true
		}

		for _, name := range names {
			desc, _ := internal.Describe(name)
			marker := " "
			if core[name] {
				marker = "*"
			}
			fmt.Printf("%s %-24s %s\n", marker, name, desc)
		}
		fmt.Println("\npasses marked * run by default, in this order:")
		for _, name := range internal.DefaultOrder() {
			fmt.Printf("  %s\n", name)
		}
	},
}
