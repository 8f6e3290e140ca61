package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"callconv/internal/rules"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the supported target triples and their aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range rules.Names() {
			t, err := rules.ForTarget(name, rules.Options{})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-28s %-12s %s\n", name, t.Rules.Name(), strings.Join(rules.Aliases(name), ", "))
		}
		return nil
	},
}
