package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mealcart/carecost-cli/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and check the reason taxonomy",
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective taxonomy after overlaying the configured file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tables, err := taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			return err
		}

		out := map[string]any{
			"item_rules":     tables.Item.Rules,
			"group_rules":    tables.Group.Rules,
			"cancel_reasons": tables.CancelReasons,
			"contact_groups": tables.ContactGroups,
			"contact_names":  tables.ContactNames,
			"markets":        tables.Markets,
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		return enc.Encode(out)
	},
}

var taxonomyCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Compile a taxonomy file and report pattern errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := taxonomy.Load(args[0])
		if err != nil {
			return eris.Wrapf(err, "taxonomy check %s", args[0])
		}
		fmt.Printf("ok: %d item rules, %d group rules, %d cancel reasons, %d contact groups\n",
			len(tables.Item.Rules), len(tables.Group.Rules),
			len(tables.CancelReasons), len(tables.ContactGroups))
		return nil
	},
}

func init() {
	taxonomyCmd.AddCommand(taxonomyShowCmd)
	taxonomyCmd.AddCommand(taxonomyCheckCmd)
	rootCmd.AddCommand(taxonomyCmd)
}
